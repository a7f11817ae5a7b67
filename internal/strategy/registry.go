package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the set of known strategies, keyed by name.
// It replaces the original's module-level registry so callers share one
// explicit instance instead of global state.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

func (r *Registry) Register(s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.strategies[s.Name()]; exists {
		return fmt.Errorf("strategy %q already registered", s.Name())
	}
	r.strategies[s.Name()] = s
	return nil
}

func (r *Registry) Get(name string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[name]
	return s, ok
}

// All returns the strategies sorted by name for stable listings.
func (r *Registry) All() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// EnabledCount returns how many strategies are currently enabled.
func (r *Registry) EnabledCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.strategies {
		if s.Enabled() {
			n++
		}
	}
	return n
}

// SetEnabled toggles one strategy by name.
func (r *Registry) SetEnabled(name string, enable bool) error {
	s, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("strategy %q not found", name)
	}
	if enable {
		s.Enable()
	} else {
		s.Disable()
	}
	return nil
}

// DisableAll turns every strategy off. Called on engine stop.
func (r *Registry) DisableAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.strategies {
		s.Disable()
	}
}
