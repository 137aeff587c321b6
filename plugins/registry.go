package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the plugins the executor can run, keyed by plugin id.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// DefaultRegistry returns a registry with the built-in plugins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range []Plugin{&HourRate{}, &DispatchFee{}, &WorkStatusDues{}} {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plugins[p.ID()]; ok {
		return fmt.Errorf("plugin: duplicate registration: %s", p.ID())
	}
	r.plugins[p.ID()] = p
	return nil
}

func (r *Registry) Get(id string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	return p, ok
}

// List returns the registered plugins ordered by id.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Handles reports whether p reacts to the trigger type.
func Handles(p Plugin, triggerType string) bool {
	return contains(p.Triggers(), triggerType)
}
