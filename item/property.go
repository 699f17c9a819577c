package item

import (
	"io"

	"github.com/sharedcode/som"
)

// Type is a property's declared type tag.
type Type int

const (
	STRING Type = iota
	NAME
	PATH
	URI
	REFERENCE
	WEAKREFERENCE
	BINARY
	DATE
	LONG
	DOUBLE
	DECIMAL
	BOOLEAN
)

// ParseType parses a wire-format type tag, as carried in a payload's ":name"
// metadata key, back into a Type. Returns false if s names none of them,
// leaving the type inference to the caller.
func ParseType(s string) (Type, bool) {
	switch s {
	case "STRING":
		return STRING, true
	case "NAME":
		return NAME, true
	case "PATH":
		return PATH, true
	case "URI":
		return URI, true
	case "REFERENCE":
		return REFERENCE, true
	case "WEAKREFERENCE":
		return WEAKREFERENCE, true
	case "BINARY":
		return BINARY, true
	case "DATE":
		return DATE, true
	case "LONG":
		return LONG, true
	case "DOUBLE":
		return DOUBLE, true
	case "DECIMAL":
		return DECIMAL, true
	case "BOOLEAN":
		return BOOLEAN, true
	default:
		return STRING, false
	}
}

func (t Type) String() string {
	switch t {
	case STRING:
		return "STRING"
	case NAME:
		return "NAME"
	case PATH:
		return "PATH"
	case URI:
		return "URI"
	case REFERENCE:
		return "REFERENCE"
	case WEAKREFERENCE:
		return "WEAKREFERENCE"
	case BINARY:
		return "BINARY"
	case DATE:
		return "DATE"
	case LONG:
		return "LONG"
	case DOUBLE:
		return "DOUBLE"
	case DECIMAL:
		return "DECIMAL"
	case BOOLEAN:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// Property is a typed value, or ordered value list, attached to a Node.
type Property struct {
	Name     string
	Type     Type
	Multiple bool
	Values   []any
	State    State

	// Path is the property's own fully-qualified path (its owning node's
	// path plus Name), set when the property is installed by
	// Node.SetProperty. It is not rewritten when the owning node is later
	// moved. Used by Binary() to resolve the registered binary stream
	// handler.
	Path string
}

// NewProperty builds a single-valued, New property.
func NewProperty(name string, typ Type, value any) *Property {
	return &Property{Name: name, Type: typ, Values: []any{value}, State: New}
}

// NewMultiProperty builds a multi-valued, New property.
func NewMultiProperty(name string, typ Type, values []any) *Property {
	return &Property{Name: name, Type: typ, Multiple: true, Values: values, State: New}
}

// Value returns the first (or only) value, or nil if the property has none.
func (p *Property) Value() any {
	if len(p.Values) == 0 {
		return nil
	}
	return p.Values[0]
}

// Binary opens the process-wide registered binary stream handler at this
// property's path, for a BINARY-typed property whose Values carry only
// size metadata rather than the actual bytes (spec §9).
func (p *Property) Binary() (io.ReadCloser, error) {
	if p.Type != BINARY {
		return nil, som.NewError(som.ValueFormat, p.Name, nil)
	}
	return som.OpenBinaryStream(p.Path)
}

// Clone returns a deep-enough copy for use as a pre-removal snapshot: the
// Values slice is copied so later in-place edits to the live property don't
// retroactively change a snapshot kept for refresh/undo.
func (p *Property) Clone() *Property {
	cp := *p
	cp.Values = make([]any, len(p.Values))
	copy(cp.Values, p.Values)
	return &cp
}
