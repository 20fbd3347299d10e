// README: In-memory driver registry; owns every driver record for the process lifetime.
package driver

import (
	"fmt"
	"sync"

	"ridesim/internal/types"
)

// Registry holds a fixed pool of drivers. Readers always receive copies;
// SetLocation is the only mutation.
type Registry struct {
	mu      sync.RWMutex
	drivers []Driver
	index   map[types.ID]int
}

func NewRegistry(drivers []Driver) *Registry {
	r := &Registry{
		drivers: make([]Driver, len(drivers)),
		index:   make(map[types.ID]int, len(drivers)),
	}
	copy(r.drivers, drivers)
	for i, d := range r.drivers {
		r.index[d.ID] = i
	}
	return r
}

// List returns a snapshot of all drivers in creation order.
func (r *Registry) List() []Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Driver, len(r.drivers))
	copy(out, r.drivers)
	return out
}

func (r *Registry) Get(id types.ID) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return Driver{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return r.drivers[i], nil
}

func (r *Registry) SetLocation(id types.ID, p types.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("set location %s: %w", id, ErrNotFound)
	}
	r.drivers[i].Location = p
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drivers)
}
