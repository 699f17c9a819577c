package item

// Kind discriminates an Operation's tagged variant, used to batch
// consecutive same-kind operations together at save time.
type Kind int

const (
	AddNodeKind Kind = iota
	MoveNodeKind
	RemoveNodeKind
	RemovePropertyKind
)

func (k Kind) String() string {
	switch k {
	case AddNodeKind:
		return "AddNode"
	case MoveNodeKind:
		return "MoveNode"
	case RemoveNodeKind:
		return "RemoveNode"
	case RemovePropertyKind:
		return "RemoveProperty"
	default:
		return "Unknown"
	}
}

// Operation is an immutable record of one pending mutation, modeled as a
// tagged variant: only the fields relevant to Kind are populated. Skip is
// the one field mutated after append (e.g. when a later AddNode at the
// same path supersedes an earlier one).
type Operation struct {
	Kind Kind
	Skip bool

	// AddNode
	Path string
	Node *Node

	// MoveNode
	SrcPath string
	DstPath string

	// RemoveNode: Path above carries the removed node's path;
	// NodeSnapshot is the removed Node object itself, not a copy.
	NodeSnapshot *Node

	// RemoveProperty: Path above carries the owning node's path;
	// PropertySnapshot is the removed Property object itself, not a copy.
	PropertySnapshot *Property
}

// NewAddNode builds an AddNode operation.
func NewAddNode(path string, n *Node) Operation {
	return Operation{Kind: AddNodeKind, Path: path, Node: n}
}

// NewMoveNode builds a MoveNode operation.
func NewMoveNode(src, dst string) Operation {
	return Operation{Kind: MoveNodeKind, SrcPath: src, DstPath: dst}
}

// NewRemoveNode builds a RemoveNode operation carrying n.
func NewRemoveNode(path string, n *Node) Operation {
	return Operation{Kind: RemoveNodeKind, Path: path, NodeSnapshot: n}
}

// NewRemoveProperty builds a RemoveProperty operation carrying p.
func NewRemoveProperty(path string, p *Property) Operation {
	return Operation{Kind: RemovePropertyKind, Path: path, PropertySnapshot: p}
}
