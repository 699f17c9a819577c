// Package som implements the Session Object Manager: the client-side unit-of-work and
// caching layer that sits between a hierarchical content repository's public API and its
// backend transport. It stages reads and writes against an in-memory cache, rewrites
// session-visible paths against pending operations on every read, and flushes pending
// mutations to the transport in a single ordered, kind-batched commit.
//
// Concrete pieces live in subpackages: pathutil (path normalization), item (Node/Property
// lifecycle), oplog (the operation log and its path-rewrite algorithm), identity (the
// path<->node and identifier->path indexes), nodetype (node-type driven validation and
// autocreation), transport (the external backend collaborator interfaces) and session
// (the SessionObjectManager facade itself). This root package holds the stack shared by
// all of them: identifiers, errors, logging, retry and concurrent notification helpers.
//
// This package is foundational; it is not meant to be used directly beyond the types and
// helpers it exports for the subpackages above.
package som
