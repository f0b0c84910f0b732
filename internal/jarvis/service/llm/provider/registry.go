// Package provider holds the provider registry, the per-vendor adapters, and
// the always-present mock provider. Retries and the per-provider circuit
// breaker live in the llm package's Facade, which routes requests through
// this registry.
package provider

import (
	"fmt"
	"sync"

	"github.com/jarvisrun/jarvis/internal/jarvis/service/llm/entity"
)

// Registry is a thread-safe registry of named LLM providers.
type Registry struct {
	mu       sync.RWMutex
	registry map[string]*entity.Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{registry: make(map[string]*entity.Provider)}
}

// Register adds a provider. Returns an error if the name is already taken.
func (r *Registry) Register(p *entity.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.registry[p.Name]; ok {
		return fmt.Errorf("provider %s is already registered", p.Name)
	}
	r.registry[p.Name] = p
	return nil
}

// MustRegister registers a provider, panicking on a duplicate name.
func (r *Registry) MustRegister(p *entity.Provider) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the named provider.
func (r *Registry) Get(name string) (*entity.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.registry[name]
	return p, ok
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registry)
}
