package engine

import (
	"context"
	"sort"
	"sync"
)

// Runtime is the behavior bound to one node kind. The returned outputs are
// merged into the run variables only when err is nil.
type Runtime interface {
	Execute(ctx context.Context, node Node, ec *ExecutionContext) (map[string]any, error)
}

// RuntimeFunc adapts a plain function to the Runtime interface.
type RuntimeFunc func(ctx context.Context, node Node, ec *ExecutionContext) (map[string]any, error)

func (f RuntimeFunc) Execute(ctx context.Context, node Node, ec *ExecutionContext) (map[string]any, error) {
	return f(ctx, node, ec)
}

// Registry maps node kinds to runtimes. It is safe for concurrent runs to
// resolve while another goroutine registers, but kinds should be registered
// once at process start.
type Registry struct {
	mu       sync.RWMutex
	runtimes map[string]Runtime
}

// NewRegistry returns a registry seeded with the base kinds.
func NewRegistry() *Registry {
	r := &Registry{runtimes: make(map[string]Runtime)}
	for kind, rt := range baseRuntimes() {
		r.runtimes[kind] = rt
	}
	return r
}

// Register binds kind to rt, replacing any previous binding.
func (r *Registry) Register(kind string, rt Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runtimes[kind] = rt
}

// Resolve returns the runtime bound to kind.
func (r *Registry) Resolve(kind string) (Runtime, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.runtimes[kind]
	return rt, ok
}

// Kinds lists the registered kinds in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.runtimes))
	for kind := range r.runtimes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
