// Package transport declares the Session Object Manager's backend
// collaborator: a black-box wire/storage driver offering read, write,
// reference-lookup, transaction and namespace primitives. No
// implementation lives here — concrete drivers (HTTP/JSON, SQL, etc.) are
// out of scope for this module (spec.md §1, §6).
package transport

import (
	"context"

	"github.com/sharedcode/som/item"
)

// NodePayload is a keyed record describing one node as returned by the
// transport. Keys beginning with ":" carry type metadata for the
// same-named non-colon property. "::NodeIteratorSize" is a reserved hint
// and is ignored. A value that is itself a NodePayload denotes an inlined
// child node (used for prefetch). Binary properties arrive as
// metadata-only (their size, or size list); actual bytes are streamed on
// demand via GetBinaryStream.
type NodePayload map[string]any

// Reader is the read side of Transport.
type Reader interface {
	GetNode(ctx context.Context, path string) (NodePayload, error)
	GetNodes(ctx context.Context, paths []string) (map[string]NodePayload, error)
	GetNodeByIdentifier(ctx context.Context, id string) (NodePayload, error)
	GetNodesByIdentifier(ctx context.Context, ids []string) (map[string]NodePayload, error)
	GetBinaryStream(ctx context.Context, path string) (ReadCloser, error)
	GetReferences(ctx context.Context, path string, name string) ([]string, error)
	GetWeakReferences(ctx context.Context, path string, name string) ([]string, error)
	GetPropertiesByPath(ctx context.Context, propertyPaths []string) ([]*item.Property, error)
}

// ReadCloser is the minimal streaming surface for a binary property,
// matching io.ReadCloser without importing it just for this one alias.
type ReadCloser interface {
	Read(p []byte) (n int, err error)
	Close() error
}

// TypeFilter is a server-side (or userland-applied) node type filter.
type TypeFilter func(primaryType string, mixinTypes []string) bool

// NodeTypeFilter is the capability probe for transports that can apply a
// TypeFilter server-side rather than forcing the caller to fetch unfiltered
// and filter in userland.
type NodeTypeFilter interface {
	GetNodesFiltered(ctx context.Context, paths []string, filter TypeFilter) (map[string]NodePayload, error)
}

// Writing is the capability probe for transports that accept mutations.
// Missing this capability means the SOM raises UnsupportedOperation on any
// public call that would need it.
type Writing interface {
	StoreNodes(ctx context.Context, ops []item.Operation) error
	MoveNodes(ctx context.Context, ops []item.Operation) error
	DeleteNodes(ctx context.Context, ops []item.Operation) error
	DeleteProperties(ctx context.Context, ops []item.Operation) error
	UpdateProperties(ctx context.Context, n *item.Node) error
	ReorderChildren(ctx context.Context, n *item.Node, diff []item.ReorderDiffStep) error
	CopyNode(ctx context.Context, src, dst string, srcWorkspace string) error
	CloneFrom(ctx context.Context, srcWorkspace, src, dst string, removeExisting bool) error
	MoveNodeImmediately(ctx context.Context, src, dst string) error
	DeleteNodeImmediately(ctx context.Context, path string) error
	DeletePropertyImmediately(ctx context.Context, path, name string) error
	PrepareSave(ctx context.Context) error
	FinishSave(ctx context.Context) error
	RollbackSave(ctx context.Context) error
	AssertValidName(name string) error
}

// Versioning is the capability probe for version-related operations
// (checkin/checkout and friends); left as a marker since versioning
// workflow itself lives in the out-of-scope public Session façade.
type Versioning interface {
	IsVersionable(ctx context.Context, path string) (bool, error)
}

// Transaction is the capability probe for transports that support
// explicit transactional commit/rollback.
type Transaction interface {
	BeginTransaction(ctx context.Context) error
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}

// Permission is the capability probe for authorization checks.
type Permission interface {
	HasPermission(ctx context.Context, path string, action string) (bool, error)
}

// NodeTypeManagement is the capability probe for registering/unregistering
// node types at runtime.
type NodeTypeManagement interface {
	RegisterNodeTypes(ctx context.Context, defs []byte, allowUpdate bool) error
}

// NodeTypeCndManagement is the capability probe for transports that accept
// node type definitions in CND text form (parsing itself is out of scope
// here; the transport owns it).
type NodeTypeCndManagement interface {
	RegisterNodeTypesCnd(ctx context.Context, cnd string, allowUpdate bool) error
}

// Observation is the capability probe for event-listener registration.
type Observation interface {
	AddEventListener(ctx context.Context, path string, eventTypes int) (Subscription, error)
}

// Subscription is a live event listener registration.
type Subscription interface {
	Close() error
}

// WorkspaceManagement is the capability probe for workspace-level
// operations (create/delete/clone a workspace).
type WorkspaceManagement interface {
	CreateWorkspace(ctx context.Context, name string, srcWorkspace string) error
	DeleteWorkspace(ctx context.Context, name string) error
}

// Transport is the baseline required surface: every transport must support
// reads. Writing and every other capability (Versioning, Transaction,
// Permission, NodeTypeManagement, NodeTypeCndManagement, NodeTypeFilter,
// Observation, WorkspaceManagement) is a capability probe, satisfied via a
// type assertion against the concrete Transport value rather than embedded
// here, since a given transport need not implement all of them — a missing
// capability makes the SOM raise UnsupportedOperation on the corresponding
// public call (spec §6).
type Transport interface {
	Reader
}
