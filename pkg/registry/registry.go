package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/element"
)

// Registry maps component names used by documents to component declarations.
// The same *element.Component is returned for a name on every lookup, which
// keeps component identity stable across renders.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*element.Component
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]*element.Component),
	}
}

// NewDefault creates a registry holding the built-in components.
func NewDefault() *Registry {
	r := NewRegistry()
	r.Register(element.Fragment)
	return r
}

// Register adds c under c.Name.
// If a component with the same name exists, it is overwritten; elements
// already rendered with the old one remount on their next render.
func (r *Registry) Register(c *element.Component) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[c.Name] = c
}

// RegisterFunc declares and registers a component in one step.
func (r *Registry) RegisterFunc(name string, render element.RenderFunc) *element.Component {
	c := element.NewComponent(name, render)
	r.Register(c)
	return c
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (*element.Component, error) {
	r.mu.RLock()
	c, ok := r.components[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownComponent, name)
	}
	return c, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
