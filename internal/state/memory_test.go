package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"orrery/internal/publish"
	"orrery/internal/sim/body"
	"orrery/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func update(id string, ts uint64) publish.PositionUpdate {
	return publish.PositionUpdate{
		SchemaVersion: publish.SchemaVersion,
		ID:            id,
		Kind:          body.KindPlanet,
		Timestamp:     ts,
	}
}

func (s *MemoryStoreSuite) TestSetAndGet() {
	s.Run("latest returns the stored update", func() {
		s.Require().NoError(s.store.SetLatest(s.ctx, update("earth", 1000)))

		got, err := s.store.Latest(s.ctx, "earth")
		s.Require().NoError(err)
		s.Equal(uint64(1000), got.Timestamp)
	})

	s.Run("later write wins", func() {
		s.Require().NoError(s.store.SetLatest(s.ctx, update("mars", 1000)))
		s.Require().NoError(s.store.SetLatest(s.ctx, update("mars", 2000)))

		got, err := s.store.Latest(s.ctx, "mars")
		s.Require().NoError(err)
		s.Equal(uint64(2000), got.Timestamp)
	})

	s.Run("unknown id fails", func() {
		_, err := s.store.Latest(s.ctx, "nibiru")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListSortedByID() {
	for _, id := range []string{"venus", "earth", "mercury"} {
		s.Require().NoError(s.store.SetLatest(s.ctx, update(id, 1)))
	}

	list, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("earth", list[0].ID)
	s.Equal("mercury", list[1].ID)
	s.Equal("venus", list[2].ID)
}
