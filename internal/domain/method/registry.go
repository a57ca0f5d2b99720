package method

import (
	"fmt"
	"sync"
)

// Registry maps scoring-method name to implementation. It is populated at
// sport-registration time and read-only afterwards, so it is safe to share
// across concurrent engine invocations.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]Method
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]Method)}
}

// Register adds a method under its own name.
func (r *Registry) Register(m Method) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if name == "" {
		return fmt.Errorf("register: %w: empty name", ErrInvalidValue)
	}
	if _, exists := r.methods[name]; exists {
		return fmt.Errorf("register %q: %w", name, ErrAlreadyRegistered)
	}
	r.methods[name] = m
	return nil
}

// Lookup resolves a method by name. A miss is a configuration error, not a
// runtime fallback.
func (r *Registry) Lookup(name string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[name]
	if !ok {
		return nil, fmt.Errorf("lookup %q: %w", name, ErrNotRegistered)
	}
	return m, nil
}

// Names returns the registered method names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	return names
}
