//go:build integration

package securelink_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"deedflow/internal/party/securelink"
	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
	"deedflow/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *securelink.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = securelink.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSaveAndLoad() {
	ctx := context.Background()
	partyID := id.NewPartyID()
	now := time.Now()

	err := s.store.Save(ctx, partyID, "hash-1", now.Add(time.Hour), now)
	s.Require().NoError(err)

	hash, err := s.store.Load(ctx, partyID)
	s.Require().NoError(err)
	s.Equal("hash-1", hash)
}

func (s *RedisStoreSuite) TestSaveOverwritesPreviousLink() {
	ctx := context.Background()
	partyID := id.NewPartyID()
	now := time.Now()

	s.Require().NoError(s.store.Save(ctx, partyID, "hash-1", now.Add(time.Hour), now))
	s.Require().NoError(s.store.Save(ctx, partyID, "hash-2", now.Add(time.Hour), now))

	hash, err := s.store.Load(ctx, partyID)
	s.Require().NoError(err)
	s.Equal("hash-2", hash, "re-dispatch replaces the active link")
}

func (s *RedisStoreSuite) TestLoadMissingLink() {
	_, err := s.store.Load(context.Background(), id.NewPartyID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestDeleteRetiresLink() {
	ctx := context.Background()
	partyID := id.NewPartyID()
	now := time.Now()

	s.Require().NoError(s.store.Save(ctx, partyID, "hash-1", now.Add(time.Hour), now))
	s.Require().NoError(s.store.Delete(ctx, partyID))

	_, err := s.store.Load(ctx, partyID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestExpiredLinkIsGone() {
	ctx := context.Background()
	partyID := id.NewPartyID()
	now := time.Now()

	s.Require().NoError(s.store.Save(ctx, partyID, "hash-1", now.Add(time.Second), now))

	s.Require().Eventually(func() bool {
		_, err := s.store.Load(ctx, partyID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond, "redis TTL retires the link")
}

func (s *RedisStoreSuite) TestSaveRejectsExpiredLink() {
	now := time.Now()
	err := s.store.Save(context.Background(), id.NewPartyID(), "hash-1", now.Add(-time.Minute), now)
	s.Require().Error(err)
}
