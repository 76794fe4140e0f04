package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rajsahu24/invitation-frontend/internal/preview"
)

// RedisStore shares retained snapshots across BFF instances. Keys expire so
// abandoned editing sessions do not accumulate.
//
// Key structure: preview:snapshot:{invitation_id} -> snapshot JSON
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{redis: client, ttl: ttl}, nil
}

// NewRedisStoreFromClient wraps an existing Redis connection.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl}
}

func snapshotKey(invitationID string) string {
	return "preview:snapshot:" + invitationID
}

func (s *RedisStore) Save(ctx context.Context, invitationID string, snap preview.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return s.redis.Set(ctx, snapshotKey(invitationID), data, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, invitationID string) (preview.Snapshot, bool, error) {
	data, err := s.redis.Get(ctx, snapshotKey(invitationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return preview.Snapshot{}, false, nil
	}
	if err != nil {
		return preview.Snapshot{}, false, err
	}

	var snap preview.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return preview.Snapshot{}, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, invitationID string) error {
	return s.redis.Del(ctx, snapshotKey(invitationID)).Err()
}

func (s *RedisStore) Close() error {
	return s.redis.Close()
}
