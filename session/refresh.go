package session

import (
	"context"
	"errors"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

// Refresh implements spec §4.5's refresh(keepChanges).
//
// keepChanges=false discards every pending operation, walking the log in
// reverse and undoing each one in place, then clears the identifier map and
// rebuilds it from whatever nodes survive in the cache.
//
// keepChanges=true retains all pending operations but re-fetches every
// Clean cached node from the transport, reconciling backend state against
// the session's own overlay.
func (s *SessionObjectManager) Refresh(ctx context.Context, keepChanges bool) error {
	if keepChanges {
		return s.refreshKeepingChanges(ctx)
	}
	return s.refreshDiscardingChanges()
}

func (s *SessionObjectManager) refreshDiscardingChanges() error {
	ops := s.log.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if op.Skip {
			continue
		}
		switch op.Kind {
		case item.AddNodeKind:
			s.undoAdd(op)
		case item.RemovePropertyKind:
			s.undoRemoveProperty(op)
		case item.RemoveNodeKind:
			s.undoRemoveNode(op)
		case item.MoveNodeKind:
			s.undoMove(op)
		}
	}

	s.log.Reset()
	s.movedOriginal = make(map[string]string)
	s.index.Reindex()
	return nil
}

func (s *SessionObjectManager) undoAdd(op item.Operation) {
	n, ok := s.index.Remove(item.Regular, op.Path)
	if !ok {
		return
	}
	n.State = item.Deleted
	parentPath := pathutil.Parent(op.Path)
	if parent, ok := s.index.Get(item.Regular, parentPath); ok {
		parent.RemoveChild(pathutil.Name(op.Path))
	}
}

func (s *SessionObjectManager) undoRemoveProperty(op item.Operation) {
	n, ok := s.index.Get(item.Regular, op.Path)
	if !ok || op.PropertySnapshot == nil {
		return
	}
	n.RestoreProperty(op.PropertySnapshot)
}

func (s *SessionObjectManager) undoRemoveNode(op item.Operation) {
	if op.NodeSnapshot == nil {
		return
	}
	op.NodeSnapshot.State = item.Clean
	s.index.Put(item.Regular, op.Path, op.NodeSnapshot)

	parentPath := pathutil.Parent(op.Path)
	if parent, ok := s.index.Get(item.Regular, parentPath); ok {
		parent.AddChild(pathutil.Name(op.Path))
	}
}

// undoMove rewrites every cached path at or below the move's destination
// back under the original source, mirroring MoveNode's own rewrite in
// reverse (spec §4.4 step 2 run backwards).
func (s *SessionObjectManager) undoMove(op item.Operation) {
	matches := s.index.PathsWithPrefix(op.DstPath, isSelfOrDescendant)
	for _, m := range matches {
		n, ok := s.index.Get(m.Class, m.Path)
		if !ok {
			continue
		}
		oldPath := pathutil.Rebase(m.Path, op.DstPath, op.SrcPath)
		s.index.Move(m.Class, m.Path, oldPath, n)
		n.Path = oldPath
		if m.Path == op.DstPath {
			n.State = item.Clean
		}
	}

	srcParentPath := pathutil.Parent(op.SrcPath)
	dstParentPath := pathutil.Parent(op.DstPath)
	if dstParent, ok := s.index.Get(item.Regular, dstParentPath); ok {
		dstParent.RemoveChild(pathutil.Name(op.DstPath))
	}
	if srcParent, ok := s.index.Get(item.Regular, srcParentPath); ok {
		srcParent.AddChild(pathutil.Name(op.SrcPath))
	}
}

func (s *SessionObjectManager) refreshKeepingChanges(ctx context.Context) error {
	for _, class := range []item.Class{item.Regular, item.Version} {
		for _, n := range s.nodesOf(class) {
			if n.State != item.Clean {
				continue
			}
			if err := s.refreshNodeFromTransport(ctx, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshNodeFromTransport re-fetches n's backend state and overlays it onto
// the cached Node, leaving session-local Children/State untouched (a Clean
// node carries no pending overlay of its own by definition).
func (s *SessionObjectManager) refreshNodeFromTransport(ctx context.Context, n *item.Node) error {
	fp, err := s.fetchPath(n.Path)
	if err != nil {
		var somErr som.Error
		if errors.As(err, &somErr) && somErr.Code == som.ItemNotFound {
			return nil
		}
		return err
	}

	payload, err := s.fetchNodeWithRetry(ctx, fp)
	if err != nil {
		return err
	}

	fresh := nodeFromPayload(n.Path, payload)
	n.PrimaryType = fresh.PrimaryType
	n.MixinTypes = fresh.MixinTypes
	n.Identifier = fresh.Identifier
	n.Properties = fresh.Properties
	return nil
}
