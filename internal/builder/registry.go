package builder

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/nutrilog/internal/apperr"
)

// Registry keeps builder sessions by id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Builder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Builder)}
}

// Create opens a new empty session.
func (r *Registry) Create() (string, *Builder) {
	id := uuid.NewString()
	b := New()
	r.mu.Lock()
	r.sessions[id] = b
	r.mu.Unlock()
	return id, b
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Builder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: builder %s", apperr.ErrNotFound, id)
	}
	return b, nil
}

// Discard drops the session with id.
func (r *Registry) Discard(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("%w: builder %s", apperr.ErrNotFound, id)
	}
	delete(r.sessions, id)
	return nil
}
