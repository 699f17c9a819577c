package oplog

import (
	"errors"
	"testing"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
)

func TestGetFetchPathMoveRewrite(t *testing.T) {
	l := New()
	l.AppendMove("/a", "/c")

	got, err := l.GetFetchPath("/c/b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/a/b" {
		t.Fatalf("GetFetchPath(/c/b) = %q, want /a/b", got)
	}

	_, err = l.GetFetchPath("/a/b")
	if err == nil {
		t.Fatal("expected ItemNotFound for the moved-away source")
	}
	var somErr som.Error
	if !errors.As(err, &somErr) || somErr.Code != som.ItemNotFound {
		t.Fatalf("got %v, want ItemNotFound", err)
	}
}

func TestGetFetchPathRemove(t *testing.T) {
	l := New()
	l.AppendRemoveNode("/a/b", nil)

	_, err := l.GetFetchPath("/a/b/c")
	if err == nil {
		t.Fatal("expected ItemNotFound under a removed path")
	}
}

func TestGetFetchPathAddShortCircuits(t *testing.T) {
	l := New()
	n := item.NewNode("/r/x", "nt:unstructured")
	l.AppendAdd("/r/x", n)

	got, err := l.GetFetchPath("/r/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/r/x" {
		t.Fatalf("GetFetchPath(/r/x) = %q, want /r/x (local, no rewrite)", got)
	}
}

func TestTwoMovesChaseBackToOriginal(t *testing.T) {
	l := New()
	l.AppendMove("/a", "/b")
	l.AppendMove("/b", "/c")

	got, err := l.GetFetchPath("/c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/a" {
		t.Fatalf("GetFetchPath(/c) = %q, want /a", got)
	}
	if orig := l.OriginalSrc("/c"); orig != "/a" {
		t.Fatalf("OriginalSrc(/c) = %q, want /a", orig)
	}
}

func TestBatchingCoalescesContiguousSameKind(t *testing.T) {
	l := New()
	l.AppendAdd("/a", item.NewNode("/a", "t"))
	l.AppendAdd("/b", item.NewNode("/b", "t"))
	l.AppendMove("/x", "/y")
	l.AppendRemoveNode("/z", nil)
	l.AppendRemoveNode("/w", nil)

	batches := l.Batches()
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d: %+v", len(batches), batches)
	}
	if batches[0].Kind != item.AddNodeKind || len(batches[0].Ops) != 2 {
		t.Fatalf("batch 0 = %+v", batches[0])
	}
	if batches[1].Kind != item.MoveNodeKind || len(batches[1].Ops) != 1 {
		t.Fatalf("batch 1 = %+v", batches[1])
	}
	if batches[2].Kind != item.RemoveNodeKind || len(batches[2].Ops) != 2 {
		t.Fatalf("batch 2 = %+v", batches[2])
	}
}

func TestSkippedOperationsOmittedFromBatches(t *testing.T) {
	l := New()
	idx := l.AppendAdd("/a", item.NewNode("/a", "t"))
	l.MarkSkip(idx)
	l.AppendAdd("/b", item.NewNode("/b", "t"))

	batches := l.Batches()
	if len(batches) != 1 || len(batches[0].Ops) != 1 {
		t.Fatalf("expected one batch with one op, got %+v", batches)
	}
	if batches[0].Ops[0].Path != "/b" {
		t.Fatalf("expected surviving op to be /b, got %q", batches[0].Ops[0].Path)
	}
}

func TestAppendAddSkipsPriorNonSkippedAddAtSamePath(t *testing.T) {
	l := New()
	first := l.AppendAdd("/a", item.NewNode("/a", "t1"))
	second := l.AppendAdd("/a", item.NewNode("/a", "t2"))

	if !l.At(first).Skip {
		t.Fatal("first Add at /a should have been marked skip (invariant I2)")
	}
	if l.At(second).Skip {
		t.Fatal("second Add at /a should survive")
	}
}

func TestMoveThenReadScenario(t *testing.T) {
	// Move-then-read scenario (spec §8 scenario 1).
	l := New()
	l.AppendMove("/a", "/c")

	got, err := l.GetFetchPath("/c/b")
	if err != nil || got != "/a/b" {
		t.Fatalf("GetFetchPath(/c/b) = %q, %v; want /a/b, nil", got, err)
	}
}
