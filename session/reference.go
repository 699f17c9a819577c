package session

import (
	"context"

	"github.com/sharedcode/som/item"
)

// GetReferences implements spec §4.6's getReferences: resolves path through
// the operation log, asks the transport for the REFERENCE properties
// pointing at it (optionally scoped to name), then resolves those property
// paths to Property objects.
//
// Known rough edge (spec §4.6): with pending moves not yet saved, the
// transport returns backend-side property paths that may not round-trip
// through the session's own rewrite. This is not corrected here.
func (s *SessionObjectManager) GetReferences(ctx context.Context, path, name string) ([]*item.Property, error) {
	return s.resolveReferences(ctx, path, name, s.transport.GetReferences)
}

// GetWeakReferences is GetReferences over WEAKREFERENCE properties instead
// of REFERENCE ones.
func (s *SessionObjectManager) GetWeakReferences(ctx context.Context, path, name string) ([]*item.Property, error) {
	return s.resolveReferences(ctx, path, name, s.transport.GetWeakReferences)
}

func (s *SessionObjectManager) resolveReferences(
	ctx context.Context,
	path, name string,
	lookup func(ctx context.Context, path, name string) ([]string, error),
) ([]*item.Property, error) {
	fp, err := s.fetchPath(path)
	if err != nil {
		return nil, err
	}

	propertyPaths, err := lookup(ctx, fp, name)
	if err != nil {
		return nil, err
	}
	if len(propertyPaths) == 0 {
		return nil, nil
	}

	return s.transport.GetPropertiesByPath(ctx, propertyPaths)
}
