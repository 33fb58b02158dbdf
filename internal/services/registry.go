package services

import (
	"context"
	"sort"
	"sync"
)

// Registry holds the probes checked by the readiness endpoint
type Registry struct {
	mu     sync.RWMutex
	probes map[string]Probe
}

// NewRegistry creates a new probe registry
func NewRegistry() *Registry {
	return &Registry{
		probes: make(map[string]Probe),
	}
}

// Register adds a probe under its name, replacing any previous one
func (r *Registry) Register(probe Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[probe.Name()] = probe
}

// List returns all registered probe names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.probes))
	for name := range r.probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll checks every registered probe concurrently
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	probes := make([]Probe, 0, len(r.probes))
	for _, p := range r.probes {
		probes = append(probes, p)
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(probes))
	)
	for _, p := range probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			err := p.HealthCheck(ctx)
			mu.Lock()
			results[p.Name()] = err
			mu.Unlock()
		}(p)
	}
	wg.Wait()
	return results
}

// Close closes every probe and returns the first error
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for name, p := range r.probes {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
		delete(r.probes, name)
	}
	return first
}
