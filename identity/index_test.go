package identity

import (
	"errors"
	"testing"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

func TestPutAndGet(t *testing.T) {
	ix := New()
	n := item.NewNode("/a", "nt:unstructured")
	n.Identifier = "id-1"
	ix.Put(item.Regular, "/a", n)

	got, ok := ix.Get(item.Regular, "/a")
	if !ok || got != n {
		t.Fatal("expected to get back the same node")
	}
	path, ok := ix.PathForIdentifier("id-1")
	if !ok || path != "/a" {
		t.Fatalf("PathForIdentifier = %q, %v", path, ok)
	}
}

func TestRemovePurgesIdentifier(t *testing.T) {
	ix := New()
	n := item.NewNode("/a", "nt:unstructured")
	n.Identifier = "id-1"
	ix.Put(item.Regular, "/a", n)
	ix.Remove(item.Regular, "/a")

	if _, ok := ix.Get(item.Regular, "/a"); ok {
		t.Fatal("node should be gone")
	}
	if _, ok := ix.PathForIdentifier("id-1"); ok {
		t.Fatal("identifier binding should be purged (invariant I4)")
	}
}

func TestRegisterIdentifierDuplicate(t *testing.T) {
	ix := New()
	if err := ix.RegisterIdentifier("id-1", "/a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ix.RegisterIdentifier("id-1", "/b")
	if err == nil {
		t.Fatal("expected DuplicateIdentifier error")
	}
	var somErr som.Error
	if !errors.As(err, &somErr) || somErr.Code != som.DuplicateIdentifier {
		t.Fatalf("got %v, want DuplicateIdentifier", err)
	}
}

func TestMoveRewritesCacheKeyAndIdentifier(t *testing.T) {
	ix := New()
	n := item.NewNode("/a", "nt:unstructured")
	n.Identifier = "id-1"
	ix.Put(item.Regular, "/a", n)

	ix.Move(item.Regular, "/a", "/c", n)
	n.Path = "/c"

	if _, ok := ix.Get(item.Regular, "/a"); ok {
		t.Fatal("old path should no longer resolve")
	}
	got, ok := ix.Get(item.Regular, "/c")
	if !ok || got != n {
		t.Fatal("new path should resolve to the same node")
	}
	path, _ := ix.PathForIdentifier("id-1")
	if path != "/c" {
		t.Fatalf("identifier should follow the move, got %q", path)
	}
}

func TestPathsWithPrefix(t *testing.T) {
	ix := New()
	ix.Put(item.Regular, "/a", item.NewNode("/a", "t"))
	ix.Put(item.Regular, "/a/b", item.NewNode("/a/b", "t"))
	ix.Put(item.Regular, "/a/b/c", item.NewNode("/a/b/c", "t"))
	ix.Put(item.Regular, "/x", item.NewNode("/x", "t"))

	got := ix.PathsWithPrefix("/a/b", pathutil.IsSelfOrDescendant)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %v", len(got), got)
	}
}

func TestReindexAfterClear(t *testing.T) {
	ix := New()
	n := item.NewNode("/a", "nt:unstructured")
	n.Identifier = "id-1"
	ix.Put(item.Regular, "/a", n)
	ix.byIdentifier = map[string]string{} // simulate stale state
	ix.Reindex()

	path, ok := ix.PathForIdentifier("id-1")
	if !ok || path != "/a" {
		t.Fatalf("Reindex should rebuild binding, got %q, %v", path, ok)
	}
}
