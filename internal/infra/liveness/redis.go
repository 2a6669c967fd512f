package liveness

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"solsign/internal/domain"
)

// RedisStore shares liveness results between instances. A TTL of zero keeps
// results until they are cleared.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, ttl: ttl}, nil
}

func key(identity string) string {
	return "solsign:liveness:" + identity
}

func (s *RedisStore) Get(ctx context.Context, identity string) (*domain.LivenessResult, error) {
	raw, err := s.client.Get(ctx, key(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var res domain.LivenessResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *RedisStore) Put(ctx context.Context, identity string, res domain.LivenessResult) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(identity), raw, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, identity string) error {
	return s.client.Del(ctx, key(identity)).Err()
}
