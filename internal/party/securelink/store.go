package securelink

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "deedflow/pkg/domain"
	"deedflow/pkg/platform/sentinel"
)

// ActiveLinkStore holds the secret hash of each party's current link.
// Saving overwrites the previous entry, so re-dispatching a link revokes the
// old one immediately instead of waiting for its expiry.
type ActiveLinkStore interface {
	Save(ctx context.Context, partyID id.PartyID, secretHash string, expiresAt, now time.Time) error
	// Load returns the active secret hash, or sentinel.ErrNotFound when the
	// party has no live link.
	Load(ctx context.Context, partyID id.PartyID) (string, error)
	Delete(ctx context.Context, partyID id.PartyID) error
}

// RedisStore keeps active links in Redis with the link TTL, so revocation
// needs no sweeping.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func linkKey(partyID id.PartyID) string {
	return "securelink:" + partyID.String()
}

func (s *RedisStore) Save(ctx context.Context, partyID id.PartyID, secretHash string, expiresAt, now time.Time) error {
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return fmt.Errorf("link already expired")
	}
	if err := s.client.Set(ctx, linkKey(partyID), secretHash, ttl).Err(); err != nil {
		return fmt.Errorf("save active link: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, partyID id.PartyID) (string, error) {
	val, err := s.client.Get(ctx, linkKey(partyID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load active link: %w", err)
	}
	return val, nil
}

func (s *RedisStore) Delete(ctx context.Context, partyID id.PartyID) error {
	if err := s.client.Del(ctx, linkKey(partyID)).Err(); err != nil {
		return fmt.Errorf("delete active link: %w", err)
	}
	return nil
}

type memoryLink struct {
	hash      string
	expiresAt time.Time
}

// InMemoryStore is the fallback when Redis is not configured.
type InMemoryStore struct {
	mu    sync.RWMutex
	links map[id.PartyID]memoryLink
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{links: make(map[id.PartyID]memoryLink)}
}

func (s *InMemoryStore) Save(_ context.Context, partyID id.PartyID, secretHash string, expiresAt, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[partyID] = memoryLink{hash: secretHash, expiresAt: expiresAt}
	return nil
}

func (s *InMemoryStore) Load(_ context.Context, partyID id.PartyID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.links[partyID]
	if !ok || time.Now().After(link.expiresAt) {
		return "", sentinel.ErrNotFound
	}
	return link.hash, nil
}

func (s *InMemoryStore) Delete(_ context.Context, partyID id.PartyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, partyID)
	return nil
}
