// Package registry maintains the mapping from logical role names ("grill",
// "fryer") to bound agents and their display metadata. The registry is built
// once at startup from instruction definitions and a shared tool catalog and
// is read-only afterwards from the workflow engine's point of view.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/kitchenmesh/agent"
)

// Descriptor pairs a bound agent with the descriptive metadata the front end
// uses to render it.
type Descriptor struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Domain string      `json:"domain"`
	Tools  []string    `json:"tools"`
	Emoji  string      `json:"emoji"`
	Color  string      `json:"color"`
	Agent  agent.Agent `json:"-"`
}

// Registry is a concurrency-safe role-name to descriptor mapping.
// Registering an existing id replaces the previous entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Descriptor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register stores a descriptor under its id, replacing any previous entry.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[d.ID] = d
}

// Get returns the descriptor registered under id.
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.entries[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("agent role %q not registered", id)
	}
	return d, nil
}

// Has reports whether a role id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[id]
	return ok
}

// List returns all descriptors sorted by id.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered roles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
