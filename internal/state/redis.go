package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orrery/internal/publish"
	"orrery/pkg/platform/sentinel"
)

const keyPrefix = "orrery:body:"

// RedisStore mirrors latest positions into Redis so external consumers can
// poll without a Kafka consumer. Values are the same JSON payload that goes
// on the wire.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetLatest(ctx context.Context, u publish.PositionUpdate) error {
	payload, err := u.Encode()
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+u.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", u.ID, err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, id string) (publish.PositionUpdate, error) {
	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return publish.PositionUpdate{}, fmt.Errorf("body %q: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return publish.PositionUpdate{}, fmt.Errorf("redis get %s: %w", id, err)
	}

	var u publish.PositionUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return publish.PositionUpdate{}, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return u, nil
}

func (s *RedisStore) List(ctx context.Context) ([]publish.PositionUpdate, error) {
	var out []publish.PositionUpdate

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s: %w", iter.Val(), err)
		}
		var u publish.PositionUpdate
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", iter.Val(), err)
		}
		out = append(out, u)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return out, nil
}
