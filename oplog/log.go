// Package oplog implements the session's operation log: an append-only
// sequence of pending mutations, the side indexes used to look them up by
// path, the getFetchPath path-rewrite algorithm, and the save-time
// kind-contiguous batching policy.
package oplog

import (
	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

// Log is the OperationLog (spec §4.2).
type Log struct {
	ops []item.Operation

	// side indexes map a path to the index of the most recently appended,
	// non-skipped operation of that kind touching it.
	addsByPath    map[string]int
	removesByPath map[string]int
	movesBySrc    map[string]int
	movesByDst    map[string]int
}

// New returns an empty Log.
func New() *Log {
	return &Log{
		addsByPath:    make(map[string]int),
		removesByPath: make(map[string]int),
		movesBySrc:    make(map[string]int),
		movesByDst:    make(map[string]int),
	}
}

// Len returns the number of operations appended, including skipped ones.
func (l *Log) Len() int {
	return len(l.ops)
}

// At returns the operation at index i.
func (l *Log) At(i int) item.Operation {
	return l.ops[i]
}

// MarkSkip sets the Skip flag on the operation at index i.
func (l *Log) MarkSkip(i int) {
	l.ops[i].Skip = true
}

// AppendAdd records an AddNode operation. Per invariant I2 (at most one
// non-skipped AddNode per path), a prior non-skipped Add at the same path
// is marked skip before the new one is appended.
func (l *Log) AppendAdd(path string, n *item.Node) int {
	if i, ok := l.addsByPath[path]; ok {
		l.ops[i].Skip = true
	}
	idx := l.append(item.NewAddNode(path, n))
	l.addsByPath[path] = idx
	return idx
}

// AppendMove records a MoveNode operation.
func (l *Log) AppendMove(src, dst string) int {
	idx := l.append(item.NewMoveNode(src, dst))
	l.movesBySrc[src] = idx
	l.movesByDst[dst] = idx
	return idx
}

// AppendRemoveNode records a RemoveNode operation carrying the removed node n.
func (l *Log) AppendRemoveNode(path string, n *item.Node) int {
	idx := l.append(item.NewRemoveNode(path, n))
	l.removesByPath[path] = idx
	return idx
}

// AppendRemoveProperty records a RemoveProperty operation carrying the
// removed property p; path is the owning node's path.
func (l *Log) AppendRemoveProperty(path string, p *item.Property) int {
	return l.append(item.NewRemoveProperty(path, p))
}

func (l *Log) append(op item.Operation) int {
	l.ops = append(l.ops, op)
	return len(l.ops) - 1
}

// AddIndexFor returns the index of the most recent non-skipped AddNode at
// path, if any.
func (l *Log) AddIndexFor(path string) (int, bool) {
	i, ok := l.addsByPath[path]
	if ok && l.ops[i].Skip {
		return 0, false
	}
	return i, ok
}

// MoveIndexForSrc returns the index of the most recent MoveNode whose
// source is src.
func (l *Log) MoveIndexForSrc(src string) (int, bool) {
	i, ok := l.movesBySrc[src]
	return i, ok
}

// MoveIndexForDst returns the index of the most recent MoveNode whose
// destination is dst. Used to chase a move chain back to its original
// source (spec §4.4 step 5).
func (l *Log) MoveIndexForDst(dst string) (int, bool) {
	i, ok := l.movesByDst[dst]
	return i, ok
}

// OriginalSrc chases a chain of MoveNode operations backwards from path,
// following "path was itself the destination of an earlier move", and
// returns the earliest source path reached.
func (l *Log) OriginalSrc(path string) string {
	seen := make(map[string]bool)
	for {
		i, ok := l.movesByDst[path]
		if !ok || l.ops[i].Skip || seen[path] {
			return path
		}
		seen[path] = true
		path = l.ops[i].SrcPath
	}
}

// GetFetchPath computes the backend-visible path for a session-visible
// wanted path, per spec §4.2: the log is traversed newest to oldest,
// rewriting wanted according to each operation encountered, until an
// AddNode at the (already rewritten) wanted path short-circuits the walk.
func (l *Log) GetFetchPath(wanted string) (string, error) {
	for i := len(l.ops) - 1; i >= 0; i-- {
		op := l.ops[i]
		if op.Skip {
			continue
		}
		switch op.Kind {
		case item.MoveNodeKind:
			if wanted == op.SrcPath || pathutil.IsAncestor(op.SrcPath, wanted) {
				return "", som.NewError(som.ItemNotFound, wanted, nil)
			}
			if wanted == op.DstPath || pathutil.IsAncestor(op.DstPath, wanted) {
				wanted = pathutil.Rebase(wanted, op.DstPath, op.SrcPath)
			}
		case item.RemoveNodeKind:
			if wanted == op.Path || pathutil.IsAncestor(op.Path, wanted) {
				return "", som.NewError(som.ItemNotFound, wanted, nil)
			}
		case item.RemovePropertyKind:
			// op.Path is the owning node's path; the removed item is the
			// property below it.
			if op.PropertySnapshot != nil && wanted == pathutil.Resolve(op.Path, op.PropertySnapshot.Name) {
				return "", som.NewError(som.ItemNotFound, wanted, nil)
			}
		case item.AddNodeKind:
			if wanted == op.Path {
				return wanted, nil
			}
		}
	}
	return wanted, nil
}

// Batch is a maximal contiguous run of non-skipped operations sharing Kind.
type Batch struct {
	Kind item.Kind
	Ops  []item.Operation
}

// Batches walks the log left to right, omits skipped operations, and
// coalesces consecutive same-kind operations into one batch per
// contiguous run (spec §4.2 "Save-time ordering and batching"; P5). The
// log's own insertion order is authoritative: no reordering across kinds
// is performed.
func (l *Log) Batches() []Batch {
	var batches []Batch
	for _, op := range l.ops {
		if op.Skip {
			continue
		}
		if n := len(batches); n > 0 && batches[n-1].Kind == op.Kind {
			batches[n-1].Ops = append(batches[n-1].Ops, op)
			continue
		}
		batches = append(batches, Batch{Kind: op.Kind, Ops: []item.Operation{op}})
	}
	return batches
}

// Reset clears the log and all side indexes, used after a successful save.
func (l *Log) Reset() {
	l.ops = nil
	l.addsByPath = make(map[string]int)
	l.removesByPath = make(map[string]int)
	l.movesBySrc = make(map[string]int)
	l.movesByDst = make(map[string]int)
}

// Ops returns every operation in insertion order, including skipped ones
// (callers filter on Skip as needed). Used by refresh to walk the log in
// reverse.
func (l *Log) Ops() []item.Operation {
	return l.ops
}
