package usecase

import (
	"sync"

	"github.com/google/uuid"

	"github.com/pantrypal/backend/internal/domain"
)

// FlowFactory builds a fully wired flow for a fresh ID. Each flow gets its
// own scan manager and camera so frames route to the right session.
type FlowFactory func(id string) *Flow

// Registry tracks live acquisition flows for the delivery layer.
type Registry struct {
	factory FlowFactory

	mu    sync.RWMutex
	flows map[string]*Flow
}

// NewRegistry creates a flow registry.
func NewRegistry(factory FlowFactory) *Registry {
	return &Registry{
		factory: factory,
		flows:   make(map[string]*Flow),
	}
}

// Create mints a new flow and registers it.
func (r *Registry) Create() *Flow {
	id := uuid.NewString()
	flow := r.factory(id)

	r.mu.Lock()
	r.flows[id] = flow
	r.mu.Unlock()
	return flow
}

// Get returns the live flow with the given ID.
func (r *Registry) Get(id string) (*Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return flow, nil
}

// Remove tears a flow down and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	flow, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrFlowNotFound
	}
	flow.Teardown()
	return nil
}

// Len reports the number of live flows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}
