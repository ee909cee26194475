package schema

import (
	"reflect"
	"sort"
	"sync"
)

// Classes maps schema names to Go types. Type expressions may name a
// registered class directly, and named tuples and protocols in schema
// documents bind to registered struct and interface types.
type Classes struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
	gen   uint64 // bumped by Register
}

// NewClasses creates an empty class table.
func NewClasses() *Classes {
	return &Classes{types: make(map[string]reflect.Type)}
}

// Register binds name to rt, replacing any previous binding.
func (c *Classes) Register(name string, rt reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[name] = rt
	c.gen++
}

// generation changes whenever a binding is added or replaced.
func (c *Classes) generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// RegisterClass binds name to T.
func RegisterClass[T any](c *Classes, name string) {
	c.Register(name, reflect.TypeOf((*T)(nil)).Elem())
}

// Lookup returns the type bound to name.
func (c *Classes) Lookup(name string) (reflect.Type, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rt, ok := c.types[name]
	return rt, ok
}

// Names returns the registered names in sorted order.
func (c *Classes) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
