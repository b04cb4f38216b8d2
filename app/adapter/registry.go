package adapter

import (
	"fmt"
)

// Registry maps adapter identifiers to implementations. The mapping is built
// explicitly at startup so a catalog entry referencing an unknown adapter is
// caught before any run, not during one.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry from the given adapters, keyed by ID
func NewRegistry(adapters ...Adapter) *Registry {
	registry := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		registry.adapters[a.ID()] = a
	}
	return registry
}

// Get returns the adapter registered under the given identifier
func (r *Registry) Get(adapterID string) (Adapter, error) {
	a, ok := r.adapters[adapterID]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for %q", adapterID)
	}
	return a, nil
}

// IDs returns all registered adapter identifiers
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	return ids
}
