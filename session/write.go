package session

import (
	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/pathutil"
)

// AddNode implements spec §3's addNode: allocates a New node and an
// AddNode operation, attaching it to its cached parent if one exists.
// NodeProcessor validation/autocreation runs immediately so a caller sees
// ConstraintViolation/ValueFormat errors at add time rather than at save.
func (s *SessionObjectManager) AddNode(path, primaryType string) (*item.Node, error) {
	if err := pathutil.Validate(path); err != nil {
		return nil, err
	}
	if _, ok := s.index.Get(item.Regular, path); ok {
		return nil, som.NewError(som.ItemExists, path, nil)
	}

	n := item.NewNode(path, primaryType)
	s.index.Put(item.Regular, path, n)
	s.log.AppendAdd(path, n)

	parentPath := pathutil.Parent(path)
	if parent, ok := s.index.Get(item.Regular, parentPath); ok {
		parent.AddChild(pathutil.Name(path))
	}

	extra, err := s.processor.Process(n)
	if err != nil {
		return nil, err
	}
	for _, op := range extra {
		s.log.AppendAdd(op.Path, op.Node)
		s.index.Put(item.Regular, op.Path, op.Node)
	}

	return n, nil
}

// SetProperty installs or replaces a property value on the cached node at
// path. The caller must have already fetched the node into the cache
// (typically via AddNode or GetNodeByPath).
func (s *SessionObjectManager) SetProperty(path, name string, typ item.Type, value any) error {
	n, ok := s.index.Get(item.Regular, path)
	if !ok {
		return som.NewError(som.PathNotFound, path, nil)
	}
	if n.State == item.Deleted {
		return som.NewError(som.InvalidItemState, path, nil)
	}
	n.SetProperty(item.NewProperty(name, typ, value))
	return nil
}

// MoveNode implements spec §4.4's moveNode.
func (s *SessionObjectManager) MoveNode(src, dst string) error {
	if _, ok := s.index.Get(item.Regular, src); !ok {
		if _, err := s.fetchPath(src); err != nil {
			return err
		}
	}
	if existing, ok := s.index.Get(item.Regular, dst); ok && existing.Path != src {
		return som.NewError(som.ItemExists, dst, nil)
	}

	// Rewrite every cached path equal to src or strictly below it.
	matches := s.index.PathsWithPrefix(src, isSelfOrDescendant)
	for _, m := range matches {
		n, ok := s.index.Get(m.Class, m.Path)
		if !ok {
			continue
		}
		newPath := pathutil.Rebase(m.Path, src, dst)
		s.index.Move(m.Class, m.Path, newPath, n)
		n.Path = newPath
		if m.Path == src {
			n.State = item.Moved
		}
	}

	srcParentPath := pathutil.Parent(src)
	dstParentPath := pathutil.Parent(dst)
	if srcParent, ok := s.index.Get(item.Regular, srcParentPath); ok {
		srcParent.RemoveChild(pathutil.Name(src))
	}
	if dstParent, ok := s.index.Get(item.Regular, dstParentPath); ok {
		dstParent.AddChild(pathutil.Name(dst))
	}

	s.log.AppendMove(src, dst)

	// Chase the chain of pending moves back to the earliest source and
	// record it against the new destination (spec §4.4 step 5).
	original := src
	if o, ok := s.movedOriginal[src]; ok {
		original = o
	}
	delete(s.movedOriginal, src)
	s.movedOriginal[dst] = original

	return nil
}

// RemoveItem implements spec §4.4's removeItem. Pass an empty property
// name to remove the node itself (and cascade); a non-empty name removes
// just that property.
func (s *SessionObjectManager) RemoveItem(path, property string) error {
	if property != "" {
		return s.removeProperty(path, property)
	}
	return s.removeNode(item.Regular, path)
}

func (s *SessionObjectManager) removeProperty(path, property string) error {
	n, ok := s.index.Get(item.Regular, path)
	if !ok {
		return som.NewError(som.PathNotFound, path, nil)
	}
	p, ok := n.Properties[property]
	if !ok {
		return som.NewError(som.PathNotFound, property, nil)
	}
	if p.State == item.New {
		// Pure in-memory removal: never reached the transport.
		delete(n.Properties, property)
		return nil
	}
	snapshot := n.RemoveProperty(property)
	s.log.AppendRemoveProperty(path, snapshot)
	return nil
}

func (s *SessionObjectManager) removeNode(class item.Class, path string) error {
	n, ok := s.index.Get(class, path)
	if !ok {
		return som.NewError(som.PathNotFound, path, nil)
	}

	s.index.Remove(class, path)
	n.State = item.Deleted
	s.log.AppendRemoveNode(path, n)

	parentPath := pathutil.Parent(path)
	if parent, ok := s.index.Get(class, parentPath); ok {
		parent.RemoveChild(pathutil.Name(path))
	}

	// Cascade: every cached descendant is dropped and marked Deleted, but
	// the backend implicitly removes subtrees, so no operation is
	// appended to the log for descendants.
	descendants := s.index.PathsWithPrefix(path, pathutil.IsAncestor)
	for _, d := range descendants {
		if dn, ok := s.index.Get(d.Class, d.Path); ok {
			s.index.Remove(d.Class, d.Path)
			dn.State = item.Deleted
		}
	}

	return nil
}

// RemoveVersion additionally purges mirror entries from the Version-class
// partition of the cache (spec §4.4).
func (s *SessionObjectManager) RemoveVersion(path string) error {
	if err := s.removeNode(item.Regular, path); err != nil {
		return err
	}
	s.index.Remove(item.Version, path)
	descendants := s.index.PathsWithPrefix(path, pathutil.IsAncestor)
	for _, d := range descendants {
		if d.Class == item.Version {
			s.index.Remove(item.Version, d.Path)
		}
	}
	return nil
}

// OrderBefore implements spec §4.3's orderBefore: reorders a child of the
// node at parentPath.
func (s *SessionObjectManager) OrderBefore(parentPath, src, dest string) error {
	n, ok := s.index.Get(item.Regular, parentPath)
	if !ok {
		return som.NewError(som.PathNotFound, parentPath, nil)
	}
	n.OrderBefore(src, dest)
	return nil
}
