// Package cache is the Redis-backed read cache for post views.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

type RedisCache struct {
	Cli *redis.Client
	TTL time.Duration
}

func New(addr string, db int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Cli: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		TTL: ttl,
	}
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.Cli.Ping(ctx).Err()
}

func (r *RedisCache) Close() error { return r.Cli.Close() }

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Cli.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *RedisCache) Set(ctx context.Context, key string, val string) error {
	return r.Cli.Set(ctx, key, val, r.TTL).Err()
}

func (r *RedisCache) Del(ctx context.Context, key string) error {
	return r.Cli.Del(ctx, key).Err()
}

// SetIfEqual writes key only while guardKey still holds guard. guardKey is
// watched, so a change between the check and the write drops the write.
func (r *RedisCache) SetIfEqual(ctx context.Context, key, val, guardKey, guard string) error {
	err := r.Cli.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, guardKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != guard {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, val, r.TTL)
			return nil
		})
		return err
	}, guardKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}
