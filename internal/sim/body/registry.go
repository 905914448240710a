package body

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"orrery/internal/sim/orbit"
	"orrery/pkg/platform/sentinel"
)

// Registry owns the authoritative set of simulated bodies. Membership only
// changes through Add and Remove; tick results become visible to the rest
// of the system exclusively through UpdatePosition.
//
// The tick loop is the only writer during a run, but the registry is still
// lock-guarded because the HTTP surface reads it concurrently.
type Registry struct {
	mu     sync.RWMutex
	bodies map[string]*Body
}

func NewRegistry() *Registry {
	return &Registry{bodies: make(map[string]*Body)}
}

// Add registers a validated body. Fails with sentinel.ErrDuplicateID when
// the id is already taken.
func (r *Registry) Add(_ context.Context, b Body) error {
	if err := b.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bodies[b.ID]; ok {
		return fmt.Errorf("body %q: %w", b.ID, sentinel.ErrDuplicateID)
	}
	r.bodies[b.ID] = &b
	return nil
}

// Remove deletes a body. Fails with sentinel.ErrNotFound when absent.
func (r *Registry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bodies[id]; !ok {
		return fmt.Errorf("body %q: %w", id, sentinel.ErrNotFound)
	}
	delete(r.bodies, id)
	return nil
}

// Get returns a copy of the body as a read view.
func (r *Registry) Get(_ context.Context, id string) (Body, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bodies[id]
	if !ok {
		return Body{}, fmt.Errorf("body %q: %w", id, sentinel.ErrNotFound)
	}
	return *b, nil
}

// UpdatePosition writes back a tick result for one body.
func (r *Registry) UpdatePosition(_ context.Context, id string, pos, vel orbit.Vec3) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bodies[id]
	if !ok {
		return fmt.Errorf("body %q: %w", id, sentinel.ErrNotFound)
	}
	b.Position = pos
	b.Velocity = vel
	return nil
}

// Len reports the number of registered bodies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bodies)
}

// Snapshot returns copies of all bodies sorted by id. The fixed order keeps
// published sequences reproducible run to run.
func (r *Registry) Snapshot(_ context.Context) []Body {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Body, 0, len(r.bodies))
	for _, b := range r.bodies {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
