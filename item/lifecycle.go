// Package item holds the in-memory entities the session object manager
// tracks: nodes, properties, their lifecycle state, and the tagged
// operation variants recorded in the operation log.
package item

// State is a node or property's lifecycle flag. Represented as a small enum
// rather than bit-flags: the transitions are few and explicit.
type State int

const (
	// New means the item was created locally this session and has never
	// been saved.
	New State = iota
	// Clean means the item matches what was last read from or written to
	// the transport.
	Clean
	// Modified means the item has local changes that must be flushed on
	// save.
	Modified
	// Moved means the item's path was rewritten by a pending moveNode.
	Moved
	// Deleted means the item was removed, explicitly or by cascade.
	Deleted
	// Dirty means the item must be re-read from the transport before its
	// next access. No session operation assigns this state:
	// refresh(keepChanges=true) re-fetches Clean nodes directly instead.
	Dirty
)

func (s State) String() string {
	switch s {
	case New:
		return "New"
	case Clean:
		return "Clean"
	case Modified:
		return "Modified"
	case Moved:
		return "Moved"
	case Deleted:
		return "Deleted"
	case Dirty:
		return "Dirty"
	default:
		return "Unknown"
	}
}
