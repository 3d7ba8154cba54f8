package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-token-auth/token"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "auth-session:"

// RedisBackend stores each pair as JSON under prefix+id with the session TTL.
type RedisBackend struct {
	redis  redis.Cmdable
	prefix string
}

func NewRedisBackend(client redis.Cmdable, prefix string) (*RedisBackend, error) {
	if client == nil {
		return nil, errors.New("[NewRedisBackend] redis client is required")
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisBackend{redis: client, prefix: prefix}, nil
}

func (b *RedisBackend) key(id string) string {
	return b.prefix + id
}

func (b *RedisBackend) Get(ctx context.Context, id string) (*token.Pair, error) {
	data, err := b.redis.Get(ctx, b.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var pair token.Pair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &pair, nil
}

func (b *RedisBackend) Put(ctx context.Context, id string, pair token.Pair, ttl time.Duration) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := b.redis.Set(ctx, b.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	if err := b.redis.Del(ctx, b.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
