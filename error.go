package som

import "fmt"

// ErrorCode enumerates the error kinds raised by the Session Object Manager (spec §7).
type ErrorCode int

const (
	// Unknown represents an unspecified error condition.
	Unknown ErrorCode = iota
	// ItemNotFound: path has no backing node after rewrite, or a read targets a path the
	// operation log reports as moved-away or deleted in the current session.
	ItemNotFound
	// ItemExists: attempted to add a node where one already exists, pending or persisted.
	ItemExists
	// ConstraintViolation: node-type rules rejected a value, or a mandatory child/property
	// is missing with no default available.
	ConstraintViolation
	// ValueFormat: a property value did not match its declared type's syntax.
	ValueFormat
	// Namespace: a name used a prefix not registered for this session.
	Namespace
	// UnsupportedOperation: the transport lacks the capability the call requires.
	UnsupportedOperation
	// PathNotFound: a relative path, a deleted property, or a parent missing at mutation time.
	PathNotFound
	// AccessDenied: the transport reported an authorization failure.
	AccessDenied
	// Repository: catch-all for transport faults; wraps the underlying cause.
	Repository
	// InvalidItemState: operation attempted on a Deleted node.
	InvalidItemState
	// Rollback: a transactional commit failed and was rolled back.
	Rollback
	// DuplicateIdentifier: registerIdentifier called with an already-bound id.
	DuplicateIdentifier
)

func (c ErrorCode) String() string {
	switch c {
	case ItemNotFound:
		return "ItemNotFound"
	case ItemExists:
		return "ItemExists"
	case ConstraintViolation:
		return "ConstraintViolation"
	case ValueFormat:
		return "ValueFormat"
	case Namespace:
		return "Namespace"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	case PathNotFound:
		return "PathNotFound"
	case AccessDenied:
		return "AccessDenied"
	case Repository:
		return "Repository"
	case InvalidItemState:
		return "InvalidItemState"
	case Rollback:
		return "Rollback"
	case DuplicateIdentifier:
		return "DuplicateIdentifier"
	default:
		return "Unknown"
	}
}

// Error is a som-specific error carrying a code, the wrapped cause and optional user data.
type Error struct {
	Code     ErrorCode
	Err      error
	UserData any
}

// NewError builds an Error of the given code, wrapping err and attaching userData (e.g. the
// offending path) for diagnostics.
func NewError(code ErrorCode, userData any, err error) Error {
	return Error{Code: code, Err: err, UserData: userData}
}

// Error implements the error interface by formatting the code, user data, and wrapped error details.
func (e Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Code, e.UserData)
	}
	return fmt.Errorf("%s: %v: %w", e.Code, e.UserData, e.Err).Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an Error with the same Code, so callers can write
// errors.Is(err, som.Error{Code: som.ItemNotFound}).
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
