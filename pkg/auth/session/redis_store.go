package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

type redisBackend interface {
	GetTouch(ctx context.Context, key string, ttl time.Duration) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	SessionKey(sessionID, entry string) string
}

// RedisStore keeps session entries as plain Redis strings with a TTL.
type RedisStore struct {
	client redisBackend
	ttl    time.Duration
}

func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID, entry string) ([]byte, error) {
	if err := validKey(sessionID, entry); err != nil {
		return nil, err
	}
	raw, err := s.client.GetTouch(ctx, s.client.SessionKey(sessionID, entry), s.ttl)
	if err != nil {
		if errors.Is(err, redisclient.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session entry: %w", err)
	}
	return []byte(raw), nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID, entry string, payload []byte) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.client.SessionKey(sessionID, entry), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save session entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID, entry string) error {
	if err := validKey(sessionID, entry); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.client.SessionKey(sessionID, entry)); err != nil {
		return fmt.Errorf("delete session entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
