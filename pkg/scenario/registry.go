package scenario

import (
	"fmt"
	"sync"
)

// Registry manages available scenarios
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]func() Scenario
}

// NewRegistry creates a new scenario registry
func NewRegistry() *Registry {
	return &Registry{
		scenarios: make(map[string]func() Scenario),
	}
}

// Register adds a scenario to the registry
func (r *Registry) Register(name string, factory func() Scenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[name]; exists {
		return fmt.Errorf("scenario %s already registered", name)
	}

	r.scenarios[name] = factory
	return nil
}

// Get returns a new instance of the requested scenario
func (r *Registry) Get(name string) (Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.scenarios[name]
	if !exists {
		return nil, fmt.Errorf("scenario %s not found", name)
	}

	return factory(), nil
}

// List returns all registered scenario names
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global scenario registry
var DefaultRegistry = NewRegistry()
