// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc

import (
	"sort"
	"sync"
)

// TypeManager provides type descriptors by name.
type TypeManager interface {
	TypeDescriptor(name string) (*TypeDescriptor, bool)
}

// Registry is an in-memory TypeManager.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*TypeDescriptor
}

// NewRegistry creates a registry holding the given types.
func NewRegistry(types ...*TypeDescriptor) *Registry {
	r := &Registry{types: make(map[string]*TypeDescriptor, len(types))}
	for _, td := range types {
		r.types[td.Name] = td
	}
	return r
}

// Register adds a type. Registering a different descriptor under an existing
// name fails.
func (r *Registry) Register(td *TypeDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[td.Name]; ok && existing != td {
		return Error.New("type %q already registered", td.Name)
	}
	r.types[td.Name] = td
	return nil
}

// TypeDescriptor implements TypeManager.
func (r *Registry) TypeDescriptor(name string) (*TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	td, ok := r.types[name]
	return td, ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
