// Package resolve turns forward-reference names into descriptors.
//
// Resolvers are consulted by the matching engine when it meets a
// descriptor.ForwardRef. A resolver reports ErrNotFound when it does not
// know a name; any other error aborts resolution.
package resolve

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/structcheck/typematch"
	"github.com/structcheck/typematch/cache"
	"github.com/structcheck/typematch/descriptor"
)

// ErrNotFound is returned when a name is unknown to a resolver.
var ErrNotFound = errors.New("type name not found")

// Resolver resolves a type name to a descriptor.
type Resolver interface {
	Resolve(ctx context.Context, name string) (*descriptor.Type, error)
}

// Func adapts a plain function to Resolver.
type Func func(ctx context.Context, name string) (*descriptor.Type, error)

// Resolve calls f.
func (f Func) Resolve(ctx context.Context, name string) (*descriptor.Type, error) {
	return f(ctx, name)
}

// --- Map Resolver ---

// MapResolver resolves names from an in-memory table.
type MapResolver struct {
	mu    sync.RWMutex
	types map[string]*descriptor.Type
}

// NewMapResolver creates a resolver over a copy of types.
func NewMapResolver(types map[string]*descriptor.Type) *MapResolver {
	m := &MapResolver{types: make(map[string]*descriptor.Type, len(types))}
	for name, t := range types {
		m.types[name] = t
	}
	return m
}

// Define registers t under name, replacing any previous definition.
func (m *MapResolver) Define(name string, t *descriptor.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[name] = t
}

// Resolve implements Resolver.
func (m *MapResolver) Resolve(ctx context.Context, name string) (*descriptor.Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.types[name]; ok {
		return t, nil
	}
	return nil, ErrNotFound
}

// Names returns the defined names in sorted order.
func (m *MapResolver) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.types))
	for name := range m.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// --- Chain ---

// Chain tries resolvers in order; the first one that knows the name wins.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a resolver chain.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

// Resolve tries each resolver until one succeeds.
func (c *Chain) Resolve(ctx context.Context, name string) (*descriptor.Type, error) {
	for _, r := range c.resolvers {
		t, err := r.Resolve(ctx, name)
		if err == nil && t != nil {
			return t, nil
		}
		// Continue to next resolver if not found
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Add appends a resolver to the chain.
func (c *Chain) Add(r Resolver) {
	c.resolvers = append(c.resolvers, r)
}

// --- Caching Wrapper ---

// CachingResolver memoizes successful resolutions of a wrapped resolver.
type CachingResolver struct {
	resolver Resolver
	cache    *cache.LRU[string, *descriptor.Type]
	metrics  *typematch.Metrics
}

// NewCachingResolver wraps r with an LRU of the given capacity. metrics may be nil.
func NewCachingResolver(r Resolver, capacity int, metrics *typematch.Metrics) *CachingResolver {
	return &CachingResolver{
		resolver: r,
		cache:    cache.New[string, *descriptor.Type](capacity),
		metrics:  metrics,
	}
}

// Resolve checks the cache first, then calls the wrapped resolver.
func (c *CachingResolver) Resolve(ctx context.Context, name string) (*descriptor.Type, error) {
	t, cached, err := c.cache.Load(name, func(name string) (*descriptor.Type, error) {
		return c.resolver.Resolve(ctx, name)
	})
	if c.metrics != nil {
		if cached {
			c.metrics.RecordCacheHit()
		} else {
			c.metrics.RecordCacheMiss()
		}
	}
	return t, err
}

// Invalidate drops name from the cache, or everything when name is empty.
func (c *CachingResolver) Invalidate(name string) {
	if name == "" {
		c.cache.Purge()
		return
	}
	c.cache.Remove(name)
}

// Stats returns the underlying cache counters.
func (c *CachingResolver) Stats() cache.Stats {
	return c.cache.Stats()
}
