package state

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"orrery/internal/publish"
	"orrery/pkg/platform/sentinel"
)

// MemoryStore is the in-process snapshot store. Always present; the Redis
// mirror is layered on top when configured.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]publish.PositionUpdate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]publish.PositionUpdate)}
}

func (s *MemoryStore) SetLatest(_ context.Context, u publish.PositionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[u.ID] = u
	return nil
}

func (s *MemoryStore) Latest(_ context.Context, id string) (publish.PositionUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.latest[id]
	if !ok {
		return publish.PositionUpdate{}, fmt.Errorf("body %q: %w", id, sentinel.ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) List(_ context.Context) ([]publish.PositionUpdate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]publish.PositionUpdate, 0, len(s.latest))
	for _, u := range s.latest {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
