package provider

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Registry maps provider ids to Analyzer implementations. Backends are
// registered once at startup; lookups afterwards are read-only, so the
// selector and executor only ever see the Analyzer interface.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

func NewRegistry() *Registry {
	return &Registry{analyzers: make(map[string]Analyzer)}
}

// Register adds an analyzer under its own id. Registering the same id
// twice is a configuration mistake and returns an error.
func (r *Registry) Register(a Analyzer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := a.ID()
	if id == "" {
		return fmt.Errorf("analyzer has empty id")
	}
	if _, exists := r.analyzers[id]; exists {
		return fmt.Errorf("analyzer %q already registered", id)
	}
	r.analyzers[id] = a
	log.Debugf("Registered analysis provider %s", id)
	return nil
}

// Replace swaps the analyzer for an id, registering it if absent. Used by
// configuration reload paths.
func (r *Registry) Replace(a Analyzer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analyzers[a.ID()] = a
}

func (r *Registry) Get(id string) (Analyzer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.analyzers[id]
	if !ok {
		return nil, fmt.Errorf("analyzer %q not registered", id)
	}
	return a, nil
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.analyzers))
	for id := range r.analyzers {
		ids = append(ids, id)
	}
	return ids
}
