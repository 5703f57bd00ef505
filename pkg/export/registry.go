package export

import (
	"sort"
	"sync"
)

// Registry holds the configured recorders and sinks
type Registry struct {
	mu        sync.RWMutex
	recorders map[string]Recorder
	sinks     map[string]Sink
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		recorders: make(map[string]Recorder),
		sinks:     make(map[string]Sink),
	}
}

// Register adds a recorder, replacing any recorder with the same name
func (r *Registry) Register(rec Recorder) {
	if rec == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.recorders[rec.Name()] = rec
}

// RegisterSink adds an hourly sink, replacing any sink with the same name
func (r *Registry) RegisterSink(s Sink) {
	if s == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sinks[s.Name()] = s
}

// Get retrieves a recorder by name
func (r *Registry) Get(name string) (Recorder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recorders[name]
	return rec, ok
}

// Recorders returns all recorders ordered by name
func (r *Registry) Recorders() []Recorder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recorders := make([]Recorder, 0, len(r.recorders))
	for _, rec := range r.recorders {
		recorders = append(recorders, rec)
	}
	sort.Slice(recorders, func(i, j int) bool {
		return recorders[i].Name() < recorders[j].Name()
	})
	return recorders
}

// Sinks returns all sinks ordered by name
func (r *Registry) Sinks() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		sinks = append(sinks, s)
	}
	sort.Slice(sinks, func(i, j int) bool {
		return sinks[i].Name() < sinks[j].Name()
	})
	return sinks
}
