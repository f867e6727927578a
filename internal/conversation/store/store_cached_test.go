package store

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"mia/internal/conversation/models"
	"mia/internal/customer"
	"mia/pkg/platform/sentinel"
)

type CachedStoreSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	inner  *InMemoryStore
	cached *Cached
}

func (s *CachedStoreSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.inner = NewInMemory(customer.NewInMemorySeeded(), "Banco Nova Era")
	s.cached = NewCached(s.inner, client, time.Hour, slog.Default())
}

func (s *CachedStoreSuite) TearDownTest() {
	s.mr.Close()
}

func TestCachedStoreSuite(t *testing.T) {
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) TestReadThrough() {
	s.Run("a miss falls back to the inner store and repopulates the cache", func() {
		_, err := s.inner.Create(context.Background(), "cust-ale", "sess-1", "web")
		s.Require().NoError(err)

		got, err := s.cached.Get(context.Background(), "sess-1")
		s.Require().NoError(err)
		s.Equal(models.StateGreeting, got.State)

		s.True(s.mr.Exists("session:sess-1"), "snapshot cached after the miss")
		ttl := s.mr.TTL("session:sess-1")
		s.Greater(ttl, time.Duration(0))
		s.LessOrEqual(ttl, time.Hour)
	})

	s.Run("a hit is served from the cache without touching the inner store", func() {
		_, err := s.cached.Create(context.Background(), "cust-ale", "sess-2", "web")
		s.Require().NoError(err)

		// Mutate the durable store behind the cache's back: the stale
		// snapshot must win until invalidation.
		err = s.inner.Update(context.Background(), "sess-2", models.Mutation{
			State: models.StatePtr(models.StateClosed),
		})
		s.Require().NoError(err)

		got, err := s.cached.Get(context.Background(), "sess-2")
		s.Require().NoError(err)
		s.Equal(models.StateGreeting, got.State)
	})

	s.Run("expired snapshots read through again", func() {
		_, err := s.cached.Create(context.Background(), "cust-ale", "sess-3", "web")
		s.Require().NoError(err)

		s.mr.FastForward(2 * time.Hour)

		err = s.inner.Update(context.Background(), "sess-3", models.Mutation{
			State: models.StatePtr(models.StateConfirmName),
		})
		s.Require().NoError(err)

		got, err := s.cached.Get(context.Background(), "sess-3")
		s.Require().NoError(err)
		s.Equal(models.StateConfirmName, got.State)
	})

	s.Run("a corrupt cache entry falls through to the inner store", func() {
		_, err := s.inner.Create(context.Background(), "cust-ale", "sess-4", "web")
		s.Require().NoError(err)
		s.Require().NoError(s.mr.Set("session:sess-4", "not json"))

		got, err := s.cached.Get(context.Background(), "sess-4")
		s.Require().NoError(err)
		s.Equal(models.StateGreeting, got.State)
	})

	s.Run("unknown sessions still report ErrNotFound", func() {
		_, err := s.cached.Get(context.Background(), "sess-nope")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CachedStoreSuite) TestInvalidation() {
	s.Run("updates invalidate instead of patching the snapshot", func() {
		_, err := s.cached.Create(context.Background(), "cust-ale", "sess-1", "web")
		s.Require().NoError(err)
		s.Require().True(s.mr.Exists("session:sess-1"))

		err = s.cached.Update(context.Background(), "sess-1", models.Mutation{
			State: models.StatePtr(models.StateConfirmName),
		})
		s.Require().NoError(err)

		s.False(s.mr.Exists("session:sess-1"), "write deleted the snapshot")

		got, err := s.cached.Get(context.Background(), "sess-1")
		s.Require().NoError(err)
		s.Equal(models.StateConfirmName, got.State, "next read rebuilt from durable storage")
	})

	s.Run("empty session id stays a no-op", func() {
		err := s.cached.Update(context.Background(), "", models.Mutation{
			State: models.StatePtr(models.StateClosed),
		})
		s.Require().NoError(err)
	})
}

func (s *CachedStoreSuite) TestCacheOutage() {
	s.Run("reads and writes degrade to the inner store when redis is down", func() {
		_, err := s.cached.Create(context.Background(), "cust-ale", "sess-1", "web")
		s.Require().NoError(err)

		s.mr.Close()

		got, err := s.cached.Get(context.Background(), "sess-1")
		s.Require().NoError(err)
		s.Equal(models.StateGreeting, got.State)

		err = s.cached.Update(context.Background(), "sess-1", models.Mutation{
			State: models.StatePtr(models.StateConfirmName),
		})
		s.Require().NoError(err)
	})
}
