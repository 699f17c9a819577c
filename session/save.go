package session

import (
	"context"
	"errors"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
	"github.com/sharedcode/som/transport"
)

// confirmConcurrency bounds how many in-memory confirmations run at once
// during the post-save sweep (spec §5 "transactional notification fan-out
// to every live in-memory item").
const confirmConcurrency = 8

// Save implements spec §4.2's save(): executes the log left to right,
// grouping consecutive same-kind operations into one transport batch,
// then confirms every in-memory item.
func (s *SessionObjectManager) Save(ctx context.Context) error {
	writer, ok := s.transport.(transport.Writing)
	if !ok {
		return som.NewError(som.UnsupportedOperation, "save", nil)
	}

	if err := s.runBatches(ctx, writer); err != nil {
		if rbErr := writer.RollbackSave(ctx); rbErr != nil {
			return som.NewError(som.Rollback, "save", rbErr)
		}
		var somErr som.Error
		if errors.As(err, &somErr) {
			return err
		}
		return som.NewError(som.Repository, "transport failure", err)
	}

	if err := s.flushModifiedProperties(ctx, writer); err != nil {
		if rbErr := writer.RollbackSave(ctx); rbErr != nil {
			return som.NewError(som.Rollback, "save", rbErr)
		}
		return som.NewError(som.Repository, "transport failure", err)
	}

	s.confirmAll(ctx)
	s.invalidateL2(ctx)
	s.log.Reset()
	s.movedOriginal = make(map[string]string)
	return nil
}

// invalidateL2 drops the payload cache entries touched by this save (by
// backend path and, where known, by identifier) so a later read-through
// doesn't resurrect pre-save data.
func (s *SessionObjectManager) invalidateL2(ctx context.Context) {
	if s.l2 == nil {
		return
	}
	for _, class := range []item.Class{item.Regular, item.Version} {
		for _, n := range s.nodesOf(class) {
			_ = s.l2.Delete(ctx, n.Path)
			if n.Identifier != "" {
				_ = s.l2.Delete(ctx, "id:"+n.Identifier)
			}
		}
	}
}

func (s *SessionObjectManager) runBatches(ctx context.Context, writer transport.Writing) error {
	for _, batch := range s.log.Batches() {
		var err error
		switch batch.Kind {
		case item.AddNodeKind:
			err = writer.StoreNodes(ctx, batch.Ops)
		case item.MoveNodeKind:
			err = writer.MoveNodes(ctx, batch.Ops)
		case item.RemoveNodeKind:
			err = writer.DeleteNodes(ctx, batch.Ops)
		case item.RemovePropertyKind:
			err = writer.DeleteProperties(ctx, batch.Ops)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SessionObjectManager) flushModifiedProperties(ctx context.Context, writer transport.Writing) error {
	for _, class := range []item.Class{item.Regular, item.Version} {
		for _, n := range s.nodesOf(class) {
			if n.State == item.Modified {
				if err := writer.UpdateProperties(ctx, n); err != nil {
					return err
				}
			}
			if n.OriginalChildOrder != nil {
				diff := item.ReorderDiff(n.OriginalChildOrder, n.Children)
				if err := writer.ReorderChildren(ctx, n, diff); err != nil {
					return err
				}
				n.OriginalChildOrder = nil
			}
		}
	}
	return nil
}

// confirmAll fans out confirmSaved to every still-live cached item: added
// nodes not themselves deleted, destinations of successful moves, and any
// node left in Modified state.
func (s *SessionObjectManager) confirmAll(ctx context.Context) {
	var live []*item.Node
	seen := make(map[*item.Node]bool)
	for _, class := range []item.Class{item.Regular, item.Version} {
		for _, n := range s.nodesOf(class) {
			if n.State == item.Deleted || seen[n] {
				continue
			}
			seen[n] = true
			live = append(live, n)
		}
	}

	_ = som.NotifyAll(ctx, confirmConcurrency, live, func(ctx context.Context, n *item.Node) error {
		confirmSaved(n)
		return nil
	})
}

func confirmSaved(n *item.Node) {
	n.State = item.Clean
	n.OriginalChildOrder = nil
	n.DeletedProperties = nil
}

func (s *SessionObjectManager) nodesOf(class item.Class) []*item.Node {
	var out []*item.Node
	for _, m := range s.index.PathsWithPrefix(pathutil.Separator, pathutil.IsSelfOrDescendant) {
		if m.Class != class {
			continue
		}
		if n, ok := s.index.Get(m.Class, m.Path); ok {
			out = append(out, n)
		}
	}
	return out
}
