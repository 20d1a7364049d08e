// Package types holds the explicit TypeRegistry JungleBus uses to turn a
// wire-carried type name back into a concrete Go value, replacing the
// reflective cross-process type lookup a naive port would reach for.
package types

import (
	"fmt"
	"reflect"
	"sync"
)

// Factory constructs a fresh, zero-valued instance of a registered type.
type Factory func() any

// Registry maps fully-qualified type names to factories that produce fresh
// instances of the corresponding Go type. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	names     map[reflect.Type]string
}

// NewRegistry returns an empty TypeRegistry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		names:     make(map[reflect.Type]string),
	}
}

// Register associates typeName with a factory that produces T values. A
// zero-value prototype is used only to record the reverse (type -> name)
// lookup used when publishing.
func Register[T any](r *Registry, typeName string) {
	var zero T
	rt := reflect.TypeOf(zero)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[typeName] = func() any {
		var v T
		return &v
	}
	if rt != nil {
		r.names[rt] = typeName
	}
}

// New instantiates a fresh value for typeName, or reports that no type was
// registered under that name.
func (r *Registry) New(typeName string) (any, error) {
	r.mu.RLock()
	factory, ok := r.factories[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("junglebus: no type registered for %q", typeName)
	}
	return factory(), nil
}

// NameOf returns the type name registered for v's type, if any.
func (r *Registry) NameOf(v any) (string, bool) {
	rt := reflect.TypeOf(v)
	if rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[rt]
	return name, ok
}

// NameOfType returns the type name registered for rt, if any. Unlike
// NameOf, it takes a reflect.Type directly so callers that only have a
// handler registration's key (as HandlerRegistry.RegisteredTypes returns)
// can look up the matching wire type name.
func (r *Registry) NameOfType(rt reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[rt]
	return name, ok
}

// Has reports whether typeName has a registered factory.
func (r *Registry) Has(typeName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[typeName]
	return ok
}
