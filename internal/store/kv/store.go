// Package kv wraps the Redis-backed key-value store with the namespaced
// key scheme and operation set the gateway's Auth and Cost layers rely on:
// session tokens, SMS challenges, phone/uid bindings, credit balances and
// check-in counters.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voxov/voxov/internal/voerr"
)

// Store is a namespaced view over a Redis client.
type Store struct {
	rdb *redis.Client
}

// New wraps an already-connected Redis client.
func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Set stores value at key with no expiry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return voerr.WrapIO(fmt.Errorf("kv set %q: %w", key, err))
	}
	return nil
}

// SetEx stores value at key with the given expiry.
func (s *Store) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return voerr.WrapIO(fmt.Errorf("kv setex %q: %w", key, err))
	}
	return nil
}

// Get returns the value at key, or ("", false, nil) if absent.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, voerr.WrapIO(fmt.Errorf("kv get %q: %w", key, err))
	}
	return val, true, nil
}

// GetEx returns the value at key and resets its TTL to ttl in the same
// round trip, used to extend a session's lifetime on every touch.
func (s *Store) GetEx(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	val, err := s.rdb.GetEx(ctx, key, ttl).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, voerr.WrapIO(fmt.Errorf("kv getex %q: %w", key, err))
	}
	return val, true, nil
}

// Expire sets key's TTL unconditionally.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return voerr.WrapIO(fmt.Errorf("kv expire %q: %w", key, err))
	}
	return nil
}

// ExpireXX sets key's TTL only if it already has one, replacing the
// existing TTL. Used by the check-in counter to renew its cooldown on
// every repeat check-in; the counter's first TTL is set with Expire.
func (s *Store) ExpireXX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.ExpireXX(ctx, key, ttl).Result()
	if err != nil {
		return false, voerr.WrapIO(fmt.Errorf("kv expire_xx %q: %w", key, err))
	}
	return ok, nil
}

// Incr increments key by 1 and returns the new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	v, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, voerr.WrapIO(fmt.Errorf("kv incr %q: %w", key, err))
	}
	return v, nil
}

// IncrBy increments key by delta and returns the new value. delta must be
// non-negative; callers wanting a decrement use DecrBy.
func (s *Store) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := s.rdb.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, voerr.WrapIO(fmt.Errorf("kv incrby %q: %w", key, err))
	}
	return v, nil
}

// DecrBy decrements key by delta and returns the new value.
func (s *Store) DecrBy(ctx context.Context, key string, delta int64) (int64, error) {
	v, err := s.rdb.DecrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, voerr.WrapIO(fmt.Errorf("kv decrby %q: %w", key, err))
	}
	return v, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, voerr.WrapIO(fmt.Errorf("kv exists %q: %w", key, err))
	}
	return n > 0, nil
}

// Del removes key. Absence is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return voerr.WrapIO(fmt.Errorf("kv del %q: %w", key, err))
	}
	return nil
}
