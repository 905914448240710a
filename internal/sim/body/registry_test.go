package body

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"orrery/internal/sim/orbit"
	"orrery/pkg/platform/sentinel"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = NewRegistry()
	s.ctx = context.Background()
}

func planet(id string) Body {
	return Body{
		ID:    id,
		Kind:  KindPlanet,
		Orbit: orbit.Circular{Radius: 1, AngularSpeed: 2 * math.Pi / 10},
	}
}

func ship(id string) Body {
	return Body{ID: id, Kind: KindShip, Flight: &Flight{}}
}

func (s *RegistrySuite) TestAddGet() {
	s.Run("add then get returns the same body", func() {
		s.Require().NoError(s.registry.Add(s.ctx, planet("earth")))

		got, err := s.registry.Get(s.ctx, "earth")
		s.Require().NoError(err)
		s.Equal("earth", got.ID)
		s.Equal(KindPlanet, got.Kind)
	})

	s.Run("duplicate id fails", func() {
		s.Require().NoError(s.registry.Add(s.ctx, ship("falcon")))
		err := s.registry.Add(s.ctx, ship("falcon"))
		s.ErrorIs(err, sentinel.ErrDuplicateID)
	})

	s.Run("get unknown id fails", func() {
		_, err := s.registry.Get(s.ctx, "pluto")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("invalid body rejected", func() {
		err := s.registry.Add(s.ctx, Body{ID: "mystery", Kind: KindPlanet})
		s.Error(err)
		s.Zero(s.registry.Len())
	})
}

func (s *RegistrySuite) TestRemove() {
	s.Require().NoError(s.registry.Add(s.ctx, planet("mars")))

	s.Require().NoError(s.registry.Remove(s.ctx, "mars"))

	_, err := s.registry.Get(s.ctx, "mars")
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.ErrorIs(s.registry.Remove(s.ctx, "mars"), sentinel.ErrNotFound)
}

func (s *RegistrySuite) TestUpdatePosition() {
	s.Run("mutates in place", func() {
		s.Require().NoError(s.registry.Add(s.ctx, ship("voyager")))

		pos := orbit.Vec3{X: 1, Y: 2, Z: 3}
		vel := orbit.Vec3{X: -1}
		s.Require().NoError(s.registry.UpdatePosition(s.ctx, "voyager", pos, vel))

		got, err := s.registry.Get(s.ctx, "voyager")
		s.Require().NoError(err)
		s.Equal(pos, got.Position)
		s.Equal(vel, got.Velocity)
	})

	s.Run("unknown id fails", func() {
		err := s.registry.UpdatePosition(s.ctx, "ghost", orbit.Vec3{}, orbit.Vec3{})
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RegistrySuite) TestSnapshotSortedByID() {
	for _, id := range []string{"venus", "earth", "mercury"} {
		s.Require().NoError(s.registry.Add(s.ctx, planet(id)))
	}

	snap := s.registry.Snapshot(s.ctx)
	s.Require().Len(snap, 3)
	s.Equal("earth", snap[0].ID)
	s.Equal("mercury", snap[1].ID)
	s.Equal("venus", snap[2].ID)
}

func (s *RegistrySuite) TestSnapshotIsACopy() {
	s.Require().NoError(s.registry.Add(s.ctx, ship("probe")))

	snap := s.registry.Snapshot(s.ctx)
	snap[0].Position = orbit.Vec3{X: 99}

	got, err := s.registry.Get(s.ctx, "probe")
	s.Require().NoError(err)
	s.Zero(got.Position.X)
}

func (s *RegistrySuite) TestConcurrentReads() {
	s.Require().NoError(s.registry.Add(s.ctx, planet("jupiter")))

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			_, err := s.registry.Get(s.ctx, "jupiter")
			s.NoError(err)
			s.registry.Snapshot(s.ctx)
		})
	}
	for range 50 {
		wg.Go(func() {
			s.NoError(s.registry.UpdatePosition(s.ctx, "jupiter",
				orbit.Vec3{X: 1}, orbit.Vec3{}))
		})
	}
	wg.Wait()
}
