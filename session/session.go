// Package session implements the SessionObjectManager: the façade tying
// together the Identity Index, the OperationLog and the NodeProcessor into
// a read-through cache and write-staging unit of work over a Transport.
package session

import (
	"context"
	"log/slog"

	"github.com/sethvargo/go-retry"

	"github.com/sharedcode/som"
	"github.com/sharedcode/som/cache"
	"github.com/sharedcode/som/identity"
	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/nodetype"
	"github.com/sharedcode/som/oplog"
	"github.com/sharedcode/som/pathutil"
	"github.com/sharedcode/som/transport"
)

// SessionObjectManager is the façade described by spec.md §2/§4: reads
// consult the Identity Index, rewriting the requested path through the
// OperationLog before calling the Transport; writes mutate in-memory
// state, append to the OperationLog and update side indexes; save walks
// the log, batches it, and confirms every item.
//
// Not safe for concurrent use: one instance is exclusively owned by one
// logical thread of execution at a time (spec.md §5).
type SessionObjectManager struct {
	transport transport.Transport
	registry  *nodetype.Registry
	processor *nodetype.Processor

	index *identity.Index
	log   *oplog.Log

	// l2 is an optional payload cache keyed by backend path, consulted
	// before the transport on a read-through miss and populated after a
	// successful fetch.
	l2        cache.L2Cache
	marshaler som.Marshaler

	userID string

	// movedOriginal records, per *current* destination path, the earliest
	// source path reached by a chain of pending moves in this session
	// (spec §4.4 step 5). It is reset by Save and Refresh but not read by
	// them: Refresh(false) restores original locations by undoing the
	// operation log's moves in reverse order.
	movedOriginal map[string]string
}

// Option configures a new SessionObjectManager.
type Option func(*SessionObjectManager)

// WithL2Cache installs an optional payload cache.
func WithL2Cache(c cache.L2Cache) Option {
	return func(s *SessionObjectManager) { s.l2 = c }
}

// New returns a SessionObjectManager bound to t and reg, attributing
// autocreated userId properties to userID.
func New(t transport.Transport, reg *nodetype.Registry, userID string, opts ...Option) *SessionObjectManager {
	s := &SessionObjectManager{
		transport:     t,
		registry:      reg,
		processor:     nodetype.NewProcessor(reg, userID),
		index:         identity.New(),
		log:           oplog.New(),
		marshaler:     som.NewMarshaler(),
		userID:        userID,
		movedOriginal: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetchPath computes the backend-visible path for a session-visible path,
// via the operation log rewrite (spec §4.2).
func (s *SessionObjectManager) fetchPath(wanted string) (string, error) {
	return s.log.GetFetchPath(wanted)
}

// GetNodeByPath implements spec §4.7's getNodeByPath(path, class,
// prefetchedOrNull). A nil prefetched payload triggers a retried
// transport.GetNode call.
func (s *SessionObjectManager) GetNodeByPath(ctx context.Context, path string, class item.Class, prefetched transport.NodePayload) (*item.Node, error) {
	if n, ok := s.index.Get(class, path); ok {
		return n, nil
	}

	fp, err := s.fetchPath(path)
	if err != nil {
		return nil, err
	}

	payload := prefetched
	if payload == nil {
		payload, err = s.fetchNodeWithRetry(ctx, fp)
		if err != nil {
			return nil, err
		}
	}

	return s.registerPayload(ctx, class, path, payload)
}

func (s *SessionObjectManager) fetchNodeWithRetry(ctx context.Context, fetchPath string) (transport.NodePayload, error) {
	if s.l2 != nil {
		var cached transport.NodePayload
		if _, err := s.l2.GetStruct(ctx, fetchPath, &cached); err == nil {
			return cached, nil
		}
	}

	var payload transport.NodePayload
	err := som.Retry(ctx, func(ctx context.Context) error {
		p, err := s.transport.GetNode(ctx, fetchPath)
		if err != nil {
			if som.ShouldRetry(err) {
				return retry.RetryableError(err)
			}
			return som.NewError(som.Repository, fetchPath, err)
		}
		payload = p
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	if s.l2 != nil {
		if err := s.l2.SetStruct(ctx, fetchPath, payload, -1); err != nil {
			slog.Debug("som: l2 cache populate failed", "path", fetchPath, "error", err)
		}
	}
	return payload, nil
}

// registerPayload instantiates a Node from a payload and registers it into
// the cache, recursively registering any inlined child payloads (spec §4.7
// step 4), eliding children that were locally moved or deleted.
func (s *SessionObjectManager) registerPayload(ctx context.Context, class item.Class, path string, payload transport.NodePayload) (*item.Node, error) {
	n := nodeFromPayload(path, payload)
	n.State = item.Clean

	for name, raw := range payload {
		child, ok := raw.(transport.NodePayload)
		if !ok || !looksLikeFullPayload(child) {
			continue
		}
		childPath := path + "/" + name
		if _, err := s.fetchPath(childPath); err != nil {
			// Locally moved or deleted: elide silently per spec §4.7 step 4.
			continue
		}
		if _, err := s.registerPayload(ctx, class, childPath, child); err != nil {
			return nil, err
		}
		n.AddChild(name)
	}

	if n.Identifier != "" {
		if err := s.index.RegisterIdentifier(n.Identifier, path); err != nil {
			return nil, err
		}
	}
	s.index.Put(class, path, n)
	return n, nil
}

// looksLikeFullPayload reports whether a child entry appears to carry its
// own full data: more than one field, or a single field that is not just
// the identifier (spec §4.7 step 4).
func looksLikeFullPayload(p transport.NodePayload) bool {
	if len(p) > 1 {
		return true
	}
	for k := range p {
		return k != "jcr:uuid"
	}
	return false
}

// GetNodesByPath implements spec §4.7's getNodesByPath.
func (s *SessionObjectManager) GetNodesByPath(ctx context.Context, paths []string, class item.Class, filter transport.TypeFilter) (map[string]*item.Node, error) {
	result := make(map[string]*item.Node, len(paths))
	var toFetch []string
	fetchPaths := make(map[string]string, len(paths))

	for _, p := range paths {
		if n, ok := s.index.Get(class, p); ok {
			if filter == nil || filter(n.PrimaryType, n.MixinTypes) {
				result[p] = n
			}
			continue
		}
		fp, err := s.fetchPath(p)
		if err != nil {
			continue // dropped: not reachable, matches "drop paths not returned"
		}
		fetchPaths[p] = fp
		toFetch = append(toFetch, fp)
	}

	if len(toFetch) == 0 {
		return orderedSubset(result, paths), nil
	}

	var payloads map[string]transport.NodePayload
	err := som.Retry(ctx, func(ctx context.Context) error {
		var err error
		if nf, ok := s.transport.(transport.NodeTypeFilter); ok && filter != nil {
			payloads, err = nf.GetNodesFiltered(ctx, toFetch, filter)
		} else {
			payloads, err = s.transport.GetNodes(ctx, toFetch)
		}
		if err != nil && som.ShouldRetry(err) {
			return retry.RetryableError(err)
		}
		return err
	}, nil)
	if err != nil {
		return nil, som.NewError(som.Repository, toFetch, err)
	}

	for sessionPath, fp := range fetchPaths {
		payload, ok := payloads[fp]
		if !ok {
			continue
		}
		n, err := s.registerPayload(ctx, class, sessionPath, payload)
		if err != nil {
			return nil, err
		}
		if filter == nil || filter(n.PrimaryType, n.MixinTypes) {
			result[sessionPath] = n
		}
	}

	return orderedSubset(result, paths), nil
}

func orderedSubset(m map[string]*item.Node, order []string) map[string]*item.Node {
	out := make(map[string]*item.Node, len(m))
	for _, p := range order {
		if n, ok := m[p]; ok {
			out[p] = n
		}
	}
	return out
}

// GetNodeByIdentifier implements spec §4.7's getNodeByIdentifier.
func (s *SessionObjectManager) GetNodeByIdentifier(ctx context.Context, id string, class item.Class) (*item.Node, error) {
	if path, ok := s.index.PathForIdentifier(id); ok {
		return s.GetNodeByPath(ctx, path, class, nil)
	}

	l2Key := "id:" + id
	var payload transport.NodePayload
	if s.l2 != nil {
		var cached transport.NodePayload
		if _, err := s.l2.GetStruct(ctx, l2Key, &cached); err == nil {
			payload = cached
		}
	}

	if payload == nil {
		err := som.Retry(ctx, func(ctx context.Context) error {
			p, err := s.transport.GetNodeByIdentifier(ctx, id)
			if err != nil {
				if som.ShouldRetry(err) {
					return retry.RetryableError(err)
				}
				return som.NewError(som.Repository, id, err)
			}
			payload = p
			return nil
		}, nil)
		if err != nil {
			return nil, err
		}
		if s.l2 != nil {
			if err := s.l2.SetStruct(ctx, l2Key, payload, -1); err != nil {
				slog.Debug("som: l2 cache populate failed", "id", id, "error", err)
			}
		}
	}

	path, _ := payload["jcr:path"].(string)
	if path == "" {
		return nil, som.NewError(som.ItemNotFound, id, nil)
	}
	n, err := s.registerPayload(ctx, class, path, payload)
	if err != nil {
		return nil, err
	}
	slog.Debug("som: registered node by identifier", "id", id, "path", path)
	return n, nil
}

// nodeFromPayload instantiates a Node from a transport payload (spec §4.7
// step 5), building a real Property for every non-colon key instead of
// discarding it: its declared type comes from the payload's ":name" type
// metadata key when present, falling back to nodetype.InferType otherwise.
func nodeFromPayload(path string, payload transport.NodePayload) *item.Node {
	n := item.NewNode(path, "")
	n.State = item.Clean
	n.Properties = make(map[string]*item.Property)

	typeTags := make(map[string]string, len(payload))
	for k, v := range payload {
		if len(k) > 0 && k[0] == ':' {
			if s, ok := v.(string); ok {
				typeTags[k[1:]] = s
			}
		}
	}

	for k, v := range payload {
		if k == "::NodeIteratorSize" {
			continue
		}
		if len(k) > 0 && k[0] == ':' {
			continue // type-metadata key; consumed above
		}
		if _, isChild := v.(transport.NodePayload); isChild {
			continue
		}
		switch k {
		case "jcr:primaryType":
			if s, ok := v.(string); ok {
				n.PrimaryType = s
			}
			continue
		case "jcr:mixinTypes":
			if list, ok := v.([]string); ok {
				n.MixinTypes = list
			}
			continue
		case "jcr:uuid":
			if s, ok := v.(string); ok {
				n.Identifier = s
			}
			continue
		}

		typ, ok := item.ParseType(typeTags[k])
		if !ok {
			typ, _ = nodetype.InferType(v)
		}
		values, multiple := propertyValues(v)
		n.Properties[k] = &item.Property{
			Name:     k,
			Type:     typ,
			Multiple: multiple,
			Values:   values,
			State:    item.Clean,
			Path:     pathutil.Resolve(path, k),
		}
	}
	n.Index = 1
	return n
}

// propertyValues normalizes a raw payload value into a Property's Values
// slice, reporting whether it arrived as a multi-valued (array) entry.
func propertyValues(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	return []any{v}, false
}

// isSelfOrDescendant adapts pathutil.IsSelfOrDescendant to the function
// signature identity.Index.PathsWithPrefix expects.
var isSelfOrDescendant = pathutil.IsSelfOrDescendant
