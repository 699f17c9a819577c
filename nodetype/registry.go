// Package nodetype holds the already-parsed node-type registry shape (CND
// text parsing itself is an external collaborator's job, out of scope
// here) and the NodeProcessor that validates a node's properties against
// its declared types and emits the autocreation operations they imply.
package nodetype

import "github.com/sharedcode/som/item"

// ChildDefinition declares one named (or wildcard "*") child slot a node
// type permits or requires.
type ChildDefinition struct {
	Name                 string
	RequiredPrimaryTypes []string
	DefaultPrimaryType   string
	Mandatory            bool
	AutoCreated          bool
}

// PropertyDefinition declares one named property slot a node type permits
// or requires.
type PropertyDefinition struct {
	Name          string
	Type          item.Type
	Multiple      bool
	Mandatory     bool
	AutoCreated   bool
	DefaultValues []any
}

// NodeType is one declarative type: a primary type or a mixin.
type NodeType struct {
	Name                string
	Supertypes          []string
	ChildDefinitions    []ChildDefinition
	PropertyDefinitions []PropertyDefinition
}

// Registry holds registered node types and namespace prefixes for the
// current session.
type Registry struct {
	types      map[string]*NodeType
	namespaces map[string]string // prefix -> uri
}

// NewRegistry returns a Registry pre-seeded with the handful of namespace
// prefixes every repository registers by default: jcr, nt and mix.
func NewRegistry() *Registry {
	r := &Registry{
		types:      make(map[string]*NodeType),
		namespaces: make(map[string]string),
	}
	r.RegisterNamespace("jcr", "http://www.jcp.org/jcr/1.0")
	r.RegisterNamespace("nt", "http://www.jcp.org/jcr/nt/1.0")
	r.RegisterNamespace("mix", "http://www.jcp.org/jcr/mix/1.0")
	return r
}

// RegisterType installs or replaces a NodeType definition.
func (r *Registry) RegisterType(nt *NodeType) {
	r.types[nt.Name] = nt
}

// Type looks up a registered NodeType by name.
func (r *Registry) Type(name string) (*NodeType, bool) {
	nt, ok := r.types[name]
	return nt, ok
}

// RegisterNamespace binds a prefix to a namespace URI.
func (r *Registry) RegisterNamespace(prefix, uri string) {
	r.namespaces[prefix] = uri
}

// IsRegisteredPrefix reports whether prefix has a bound namespace.
func (r *Registry) IsRegisteredPrefix(prefix string) bool {
	_, ok := r.namespaces[prefix]
	return ok
}

// EffectiveTypes resolves primaryType and mixinTypes (in that order) plus
// each type's declared supertypes, transitively, deduplicated, primary
// type and its ancestry first.
func (r *Registry) EffectiveTypes(primaryType string, mixinTypes []string) []*NodeType {
	seen := make(map[string]bool)
	var out []*NodeType

	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		nt, ok := r.types[name]
		if !ok {
			return
		}
		out = append(out, nt)
		for _, sup := range nt.Supertypes {
			visit(sup)
		}
	}

	visit(primaryType)
	for _, m := range mixinTypes {
		visit(m)
	}
	return out
}
