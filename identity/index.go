// Package identity implements the session's dual identity index: a
// path-to-node map partitioned by item class, and an identifier-to-path
// map, kept coherent across every pending move, delete and re-addition.
package identity

import (
	"github.com/sharedcode/som"
	"github.com/sharedcode/som/item"
)

// Index is the Identity Index (spec §4.1).
type Index struct {
	byPath       map[item.Class]map[string]*item.Node
	byIdentifier map[string]string // identifier -> path
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byPath:       make(map[item.Class]map[string]*item.Node),
		byIdentifier: make(map[string]string),
	}
}

func (ix *Index) classMap(class item.Class) map[string]*item.Node {
	m, ok := ix.byPath[class]
	if !ok {
		m = make(map[string]*item.Node)
		ix.byPath[class] = m
	}
	return m
}

// Get returns the cached node at (class, path), if any.
func (ix *Index) Get(class item.Class, path string) (*item.Node, bool) {
	n, ok := ix.byPath[class][path]
	return n, ok
}

// Put installs n at (class, path). If n carries an identifier, it is bound
// in the identifier map, overwriting any prior binding for that identifier
// (spec §4.1: "on put, if node.identifier is set, it binds that
// identifier" — unlike RegisterIdentifier this never fails, since it is
// used for nodes freshly materialised from transport payloads that already
// own their identifier).
func (ix *Index) Put(class item.Class, path string, n *item.Node) {
	ix.classMap(class)[path] = n
	if n.Identifier != "" {
		ix.byIdentifier[n.Identifier] = path
	}
}

// Remove drops the node cached at (class, path) and purges any identifier
// binding that pointed at it.
func (ix *Index) Remove(class item.Class, path string) (*item.Node, bool) {
	n, ok := ix.byPath[class][path]
	if !ok {
		return nil, false
	}
	delete(ix.byPath[class], path)
	if n.Identifier != "" && ix.byIdentifier[n.Identifier] == path {
		delete(ix.byIdentifier, n.Identifier)
	}
	return n, true
}

// Move rewrites the cache key for a node from oldPath to newPath within the
// same class, keeping the identifier map pointed at the new path. It does
// not touch n.Path; callers update the Node's own path field themselves.
func (ix *Index) Move(class item.Class, oldPath, newPath string, n *item.Node) {
	delete(ix.classMap(class), oldPath)
	ix.classMap(class)[newPath] = n
	if n.Identifier != "" {
		ix.byIdentifier[n.Identifier] = newPath
	}
}

// RegisterIdentifier binds id to path, failing with DuplicateIdentifier if
// id is already bound to a different path. The session calls it when it
// registers a node read from the transport; a jcr:uuid value autocreated
// on a new node is not bound through it.
func (ix *Index) RegisterIdentifier(id, path string) error {
	if existing, ok := ix.byIdentifier[id]; ok && existing != path {
		return som.NewError(som.DuplicateIdentifier, id, nil)
	}
	ix.byIdentifier[id] = path
	return nil
}

// UnregisterIdentifier purges a binding, used by refresh/undo when an Add
// is reverted.
func (ix *Index) UnregisterIdentifier(id string) {
	delete(ix.byIdentifier, id)
}

// PathForIdentifier returns the path bound to id, if any.
func (ix *Index) PathForIdentifier(id string) (string, bool) {
	p, ok := ix.byIdentifier[id]
	return p, ok
}

// GetByIdentifier resolves id to a path via the identifier map, then looks
// up the node in the given class partition.
func (ix *Index) GetByIdentifier(class item.Class, id string) (*item.Node, bool) {
	path, ok := ix.byIdentifier[id]
	if !ok {
		return nil, false
	}
	return ix.Get(class, path)
}

// PathsWithPrefix returns every cached path, across all classes, for which
// isSelfOrDescendant(prefix, path) holds, paired with its class: with
// pathutil.IsSelfOrDescendant that is prefix itself and everything below
// it, with pathutil.IsAncestor only the paths strictly below. Used by
// moveNode and removeItem to enumerate affected descendants without
// materialising uncached ones.
func (ix *Index) PathsWithPrefix(prefix string, isSelfOrDescendant func(ancestor, p string) bool) []struct {
	Class item.Class
	Path  string
} {
	var out []struct {
		Class item.Class
		Path  string
	}
	for class, m := range ix.byPath {
		for p := range m {
			if isSelfOrDescendant(prefix, p) {
				out = append(out, struct {
					Class item.Class
					Path  string
				}{class, p})
			}
		}
	}
	return out
}

// Clear empties both maps.
func (ix *Index) Clear() {
	ix.byPath = make(map[item.Class]map[string]*item.Node)
	ix.byIdentifier = make(map[string]string)
}

// Reindex rebuilds the identifier map from the surviving cached nodes,
// used by refresh(false) after pending state has been reverted in place.
func (ix *Index) Reindex() {
	ix.byIdentifier = make(map[string]string)
	for _, m := range ix.byPath {
		for path, n := range m {
			if n.Identifier != "" {
				ix.byIdentifier[n.Identifier] = path
			}
		}
	}
}

// Count returns the number of cached nodes across all classes.
func (ix *Index) Count() int {
	n := 0
	for _, m := range ix.byPath {
		n += len(m)
	}
	return n
}
