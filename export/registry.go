package export

import (
	"fmt"
	"sort"
	"sync"
)

// BackendFactory creates a Backend for a job.
type BackendFactory func(job Job) (Backend, error)

// BackendRegistry stores backend factories by format.
type BackendRegistry struct {
	mu        sync.RWMutex
	factories map[Format]BackendFactory
}

// NewBackendRegistry creates an empty registry.
func NewBackendRegistry() *BackendRegistry {
	return &BackendRegistry{factories: make(map[Format]BackendFactory)}
}

// Register adds a backend factory for a format.
func (r *BackendRegistry) Register(format Format, factory BackendFactory) error {
	if format == "" {
		return NewError(KindValidation, "backend format is required", nil)
	}
	if factory == nil {
		return NewError(KindValidation, "backend factory is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[format]; exists {
		return NewError(KindValidation, fmt.Sprintf("backend for %q already registered", format), nil)
	}
	r.factories[format] = factory
	return nil
}

// Resolve returns the backend factory for the format.
func (r *BackendRegistry) Resolve(format Format) (BackendFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[format]
	return factory, ok
}

// Formats lists the registered formats in sorted order.
func (r *BackendRegistry) Formats() []Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Format, 0, len(r.factories))
	for format := range r.factories {
		out = append(out, format)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
