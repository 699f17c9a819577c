package session

import (
	"context"
	"errors"
	"testing"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/cache"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/nodetype"
	"github.com/sharedcode/som/transport"
)

func newTestSession(t *testing.T, ft *fakeTransport) *SessionObjectManager {
	t.Helper()
	reg := nodetype.NewRegistry()
	return New(ft, reg, "alice")
}

func TestGetNodeByPathReadThrough(t *testing.T) {
	ft := newFakeTransport()
	ft.put("/a", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	s := newTestSession(t, ft)

	n, err := s.GetNodeByPath(context.Background(), "/a", item.Regular, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.PrimaryType != "nt:unstructured" {
		t.Fatalf("got primary type %q", n.PrimaryType)
	}

	n2, err := s.GetNodeByPath(context.Background(), "/a", item.Regular, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n2 != n {
		t.Fatal("expected cached node to be returned on second call")
	}
}

func TestGetNodeByPathConsultsL2CacheBeforeTransport(t *testing.T) {
	ft := newFakeTransport()
	ft.put("/a", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	l2 := cache.NewInMemoryL2(0, 8)
	reg := nodetype.NewRegistry()

	s1 := New(ft, reg, "alice", WithL2Cache(l2))
	if _, err := s1.GetNodeByPath(context.Background(), "/a", item.Regular, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.getCalls != 1 {
		t.Fatalf("expected 1 transport call after first session's fetch, got %d", ft.getCalls)
	}

	// A second session sharing the same L2 cache has an empty in-memory
	// index, so its read-through miss should be served from l2 instead of
	// the transport.
	s2 := New(ft, reg, "alice", WithL2Cache(l2))
	n, err := s2.GetNodeByPath(context.Background(), "/a", item.Regular, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.PrimaryType != "nt:unstructured" {
		t.Fatalf("got primary type %q", n.PrimaryType)
	}
	if ft.getCalls != 1 {
		t.Fatalf("expected transport call count to stay at 1 (served from l2), got %d", ft.getCalls)
	}
}

func TestSaveInvalidatesL2Cache(t *testing.T) {
	ft := newFakeTransport()
	ft.put("/a", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	l2 := cache.NewInMemoryL2(0, 8)
	reg := nodetype.NewRegistry()

	s1 := New(ft, reg, "alice", WithL2Cache(l2))
	n, err := s1.GetNodeByPath(context.Background(), "/a", item.Regular, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.SetProperty(item.NewProperty("title", item.STRING, "first"))
	if err := s1.Save(context.Background()); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	if _, err := l2.Get(context.Background(), "/a"); err == nil {
		t.Fatal("expected l2 entry to be invalidated by Save")
	}
}

func TestAddNodeAppearsBeforeSave(t *testing.T) {
	ft := newFakeTransport()
	s := newTestSession(t, ft)

	n, err := s.AddNode("/a", "nt:unstructured")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.State != item.New {
		t.Fatalf("expected New state, got %v", n.State)
	}

	if _, err := s.AddNode("/a", "nt:unstructured"); err == nil {
		t.Fatal("expected ItemExists on duplicate add")
	} else {
		var somErr som.Error
		if !errors.As(err, &somErr) || somErr.Code != som.ItemExists {
			t.Fatalf("got %v, want ItemExists", err)
		}
	}
}

func TestSaveBatchesAndConfirms(t *testing.T) {
	ft := newFakeTransport()
	s := newTestSession(t, ft)

	if _, err := s.AddNode("/a", "nt:unstructured"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.AddNode("/b", "nt:unstructured"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ft.stored) != 2 {
		t.Fatalf("expected both adds to reach the transport in one batch, got %d", len(ft.stored))
	}

	n, ok := s.index.Get(item.Regular, "/a")
	if !ok {
		t.Fatal("expected /a to remain cached")
	}
	if n.State != item.Clean {
		t.Fatalf("expected Clean after save, got %v", n.State)
	}
	if s.log.Len() != 0 {
		t.Fatal("expected log to be reset after a successful save")
	}
}

func TestMoveNodeRewritesPendingReads(t *testing.T) {
	ft := newFakeTransport()
	ft.put("/a", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	ft.put("/a/b", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	s := newTestSession(t, ft)

	if _, err := s.GetNodeByPath(context.Background(), "/a", item.Regular, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.MoveNode("/a", "/c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.fetchPath("/a"); err == nil {
		t.Fatal("expected ItemNotFound fetching the old path after a pending move")
	}

	fp, err := s.fetchPath("/c/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fp != "/a/b" {
		t.Fatalf("expected fetch path to rewrite back to /a/b, got %q", fp)
	}

	if _, ok := s.index.Get(item.Regular, "/c"); !ok {
		t.Fatal("expected the cached node to have moved to /c")
	}
}

func TestRemoveItemCascadesToDescendants(t *testing.T) {
	ft := newFakeTransport()
	s := newTestSession(t, ft)

	if _, err := s.AddNode("/a", "nt:unstructured"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.AddNode("/a/b", "nt:unstructured"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.RemoveItem("/a", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := s.index.Get(item.Regular, "/a"); ok {
		t.Fatal("expected /a to be dropped from the cache")
	}
	if _, ok := s.index.Get(item.Regular, "/a/b"); ok {
		t.Fatal("expected the cascaded descendant to be dropped from the cache too")
	}
}

func TestRefreshDiscardsAdds(t *testing.T) {
	ft := newFakeTransport()
	s := newTestSession(t, ft)

	if _, err := s.AddNode("/a", "nt:unstructured"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Refresh(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := s.index.Get(item.Regular, "/a"); ok {
		t.Fatal("expected /a to no longer be cached after refresh(false)")
	}
	if s.log.Len() != 0 {
		t.Fatal("expected the pending-adds log to be empty after refresh(false)")
	}
}

func TestRefreshUndoesMoveBackToOriginal(t *testing.T) {
	ft := newFakeTransport()
	ft.put("/a", transport.NodePayload{"jcr:primaryType": "nt:unstructured"})
	s := newTestSession(t, ft)

	if _, err := s.GetNodeByPath(context.Background(), "/a", item.Regular, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.MoveNode("/a", "/b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.MoveNode("/b", "/c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.Refresh(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := s.index.Get(item.Regular, "/a"); !ok {
		t.Fatal("expected /a to be restored after undoing both pending moves")
	}
	if _, ok := s.index.Get(item.Regular, "/c"); ok {
		t.Fatal("expected /c to no longer be cached after refresh(false)")
	}
}
