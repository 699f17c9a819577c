package session

import (
	"context"
	"sync"

	"github.com/sharedcode/som/item"
	"github.com/sharedcode/som/transport"
)

// fakeTransport is a simple in-memory stand-in for a real transport,
// structured the same way the teacher's own mock repositories are: a lookup
// map guarded by a mutex, with no behavior beyond what the test needs.
type fakeTransport struct {
	mu    sync.Mutex
	nodes map[string]transport.NodePayload

	stored  []item.Operation
	moved   []item.Operation
	deleted []item.Operation
	rolled  bool

	getCalls int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nodes: make(map[string]transport.NodePayload)}
}

func (f *fakeTransport) put(path string, payload transport.NodePayload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes[path] = payload
}

func (f *fakeTransport) GetNode(ctx context.Context, path string) (transport.NodePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.nodes[path], nil
}

func (f *fakeTransport) GetNodes(ctx context.Context, paths []string) (map[string]transport.NodePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]transport.NodePayload, len(paths))
	for _, p := range paths {
		if n, ok := f.nodes[p]; ok {
			out[p] = n
		}
	}
	return out, nil
}

func (f *fakeTransport) GetNodeByIdentifier(ctx context.Context, id string) (transport.NodePayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for p, n := range f.nodes {
		if uuid, _ := n["jcr:uuid"].(string); uuid == id {
			n["jcr:path"] = p
			return n, nil
		}
	}
	return nil, nil
}

func (f *fakeTransport) GetNodesByIdentifier(ctx context.Context, ids []string) (map[string]transport.NodePayload, error) {
	out := make(map[string]transport.NodePayload, len(ids))
	for _, id := range ids {
		n, _ := f.GetNodeByIdentifier(ctx, id)
		if n != nil {
			out[id] = n
		}
	}
	return out, nil
}

func (f *fakeTransport) GetBinaryStream(ctx context.Context, path string) (transport.ReadCloser, error) {
	return nil, nil
}

func (f *fakeTransport) GetReferences(ctx context.Context, path, name string) ([]string, error) {
	return nil, nil
}

func (f *fakeTransport) GetWeakReferences(ctx context.Context, path, name string) ([]string, error) {
	return nil, nil
}

func (f *fakeTransport) GetPropertiesByPath(ctx context.Context, propertyPaths []string) ([]*item.Property, error) {
	return nil, nil
}

func (f *fakeTransport) StoreNodes(ctx context.Context, ops []item.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, ops...)
	for _, op := range ops {
		f.nodes[op.Path] = transport.NodePayload{"jcr:primaryType": op.Node.PrimaryType}
	}
	return nil
}

func (f *fakeTransport) MoveNodes(ctx context.Context, ops []item.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moved = append(f.moved, ops...)
	for _, op := range ops {
		if n, ok := f.nodes[op.SrcPath]; ok {
			delete(f.nodes, op.SrcPath)
			f.nodes[op.DstPath] = n
		}
	}
	return nil
}

func (f *fakeTransport) DeleteNodes(ctx context.Context, ops []item.Operation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ops...)
	for _, op := range ops {
		delete(f.nodes, op.Path)
	}
	return nil
}

func (f *fakeTransport) DeleteProperties(ctx context.Context, ops []item.Operation) error {
	return nil
}

func (f *fakeTransport) UpdateProperties(ctx context.Context, n *item.Node) error {
	return nil
}

func (f *fakeTransport) ReorderChildren(ctx context.Context, n *item.Node, diff []item.ReorderDiffStep) error {
	return nil
}

func (f *fakeTransport) CopyNode(ctx context.Context, src, dst, srcWorkspace string) error {
	return nil
}

func (f *fakeTransport) CloneFrom(ctx context.Context, srcWorkspace, src, dst string, removeExisting bool) error {
	return nil
}

func (f *fakeTransport) MoveNodeImmediately(ctx context.Context, src, dst string) error {
	return nil
}

func (f *fakeTransport) DeleteNodeImmediately(ctx context.Context, path string) error {
	return nil
}

func (f *fakeTransport) DeletePropertyImmediately(ctx context.Context, path, name string) error {
	return nil
}

func (f *fakeTransport) PrepareSave(ctx context.Context) error { return nil }
func (f *fakeTransport) FinishSave(ctx context.Context) error  { return nil }

func (f *fakeTransport) RollbackSave(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rolled = true
	return nil
}

func (f *fakeTransport) AssertValidName(name string) error { return nil }

var (
	_ transport.Transport = (*fakeTransport)(nil)
	_ transport.Writing   = (*fakeTransport)(nil)
)
