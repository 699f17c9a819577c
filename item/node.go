package item

import "github.com/sharedcode/som/pathutil"

// Class distinguishes the identity index partition a node lives in: the
// same path may simultaneously hold a regular Node and a Version Node if
// both have been fetched into the cache.
type Class int

const (
	Regular Class = iota
	Version
)

// Node is a named vertex in the repository tree.
type Node struct {
	Path       string
	Identifier string
	Class      Class

	PrimaryType string
	MixinTypes  []string

	Children []string

	Properties map[string]*Property
	// DeletedProperties retains a removed property's prior object until a
	// save succeeds, so refresh can restore it.
	DeletedProperties map[string]*Property

	// OriginalChildOrder is nil until the first reorder; it records the
	// child order observed at load time (or synthesised at first
	// mutation) so the reorder diff is computable on save.
	OriginalChildOrder []string

	// Index is the same-name-sibling index; always 1, per the spec's
	// decision not to implement indexed-name resolution.
	Index int

	State State
}

// NewNode allocates a New node at path with the given primary type.
func NewNode(path, primaryType string) *Node {
	return &Node{
		Path:        path,
		PrimaryType: primaryType,
		Properties:  make(map[string]*Property),
		Index:       1,
		State:       New,
	}
}

// HasMixin reports whether name is one of the node's mixin types.
func (n *Node) HasMixin(name string) bool {
	for _, m := range n.MixinTypes {
		if m == name {
			return true
		}
	}
	return false
}

// AddChild appends name to the child list if not already present.
func (n *Node) AddChild(name string) {
	for _, c := range n.Children {
		if c == name {
			return
		}
	}
	n.Children = append(n.Children, name)
}

// RemoveChild drops name from the child list, if present.
func (n *Node) RemoveChild(name string) {
	for i, c := range n.Children {
		if c == name {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return
		}
	}
}

// SetProperty installs or replaces a property, marking the node Modified if
// it was Clean.
func (n *Node) SetProperty(p *Property) {
	if n.Properties == nil {
		n.Properties = make(map[string]*Property)
	}
	p.Path = pathutil.Resolve(n.Path, p.Name)
	n.Properties[p.Name] = p
	n.touch()
}

// RemoveProperty moves a property into DeletedProperties and marks the node
// Modified; returns the removed property, or nil if absent.
func (n *Node) RemoveProperty(name string) *Property {
	p, ok := n.Properties[name]
	if !ok {
		return nil
	}
	delete(n.Properties, name)
	if n.DeletedProperties == nil {
		n.DeletedProperties = make(map[string]*Property)
	}
	n.DeletedProperties[name] = p
	n.touch()
	return p
}

// RestoreProperty moves a property back out of DeletedProperties, undoing a
// pending RemoveProperty.
func (n *Node) RestoreProperty(p *Property) {
	delete(n.DeletedProperties, p.Name)
	if n.Properties == nil {
		n.Properties = make(map[string]*Property)
	}
	n.Properties[p.Name] = p
}

func (n *Node) touch() {
	if n.State == Clean {
		n.State = Modified
	}
}

// OrderBefore moves child src to just before dest in the child list, or to
// the end if dest is empty. Snapshots OriginalChildOrder on first call.
func (n *Node) OrderBefore(src, dest string) {
	if n.OriginalChildOrder == nil {
		n.OriginalChildOrder = append([]string(nil), n.Children...)
	}
	n.RemoveChild(src)
	if dest == "" {
		n.Children = append(n.Children, src)
		n.touch()
		return
	}
	out := make([]string, 0, len(n.Children)+1)
	for _, c := range n.Children {
		if c == dest {
			out = append(out, src)
		}
		out = append(out, c)
	}
	n.Children = out
	n.touch()
}

// ReorderDiffStep is one {moveBefore(name, anchorOrNull)} pair.
type ReorderDiffStep struct {
	Name   string
	Anchor string // empty means "move to end"
}

// ReorderDiff computes a sequence of moveBefore steps that transforms
// 'from' into 'to', fixing each position of 'to' in turn: a step is
// emitted for every position whose name is not already in place. The
// sequence is not necessarily the shortest possible one. Used at save time
// to build the diff reorderChildren consumes, and by tests validating P7.
func ReorderDiff(from, to []string) []ReorderDiffStep {
	cur := append([]string(nil), from...)
	var steps []ReorderDiffStep

	indexOf := func(list []string, name string) int {
		for i, v := range list {
			if v == name {
				return i
			}
		}
		return -1
	}
	move := func(list []string, name, anchor string) []string {
		i := indexOf(list, name)
		if i < 0 {
			return list
		}
		list = append(list[:i], list[i+1:]...)
		if anchor == "" {
			return append(list, name)
		}
		j := indexOf(list, anchor)
		if j < 0 {
			return append(list, name)
		}
		out := make([]string, 0, len(list)+1)
		out = append(out, list[:j]...)
		out = append(out, name)
		out = append(out, list[j:]...)
		return out
	}

	for i, name := range to {
		var anchor string
		if i < len(cur) {
			anchor = cur[i]
		}
		if anchor == name {
			continue
		}
		steps = append(steps, ReorderDiffStep{Name: name, Anchor: anchor})
		cur = move(cur, name, anchor)
	}
	return steps
}

// ApplyReorderDiff applies steps to base and returns the resulting order,
// used by tests to verify ReorderDiff's output round-trips (P7).
func ApplyReorderDiff(base []string, steps []ReorderDiffStep) []string {
	cur := append([]string(nil), base...)
	for _, s := range steps {
		i := -1
		for idx, v := range cur {
			if v == s.Name {
				i = idx
				break
			}
		}
		if i < 0 {
			continue
		}
		cur = append(cur[:i], cur[i+1:]...)
		if s.Anchor == "" {
			cur = append(cur, s.Name)
			continue
		}
		j := -1
		for idx, v := range cur {
			if v == s.Anchor {
				j = idx
				break
			}
		}
		if j < 0 {
			cur = append(cur, s.Name)
			continue
		}
		out := make([]string, 0, len(cur)+1)
		out = append(out, cur[:j]...)
		out = append(out, s.Name)
		out = append(out, cur[j:]...)
		cur = out
	}
	return cur
}
