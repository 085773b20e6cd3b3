package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Store is the byte-level cache surface the coordinator talks to. A miss is
// (nil, false, nil); transport and server errors are returned for the caller
// to absorb.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	// DelPattern removes every key matching a glob pattern.
	DelPattern(ctx context.Context, pattern string) error
}

// Redis backs Store with a single shared go-redis client. The client
// reconnects on its own; every call carries its own timeout.
type Redis struct {
	rdb     *goredis.Client
	timeout time.Duration
}

var _ Store = (*Redis)(nil)

const scanBatch = 100

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
}

// NewRedis connects and verifies the cache with a ping. Callers treat an
// error as "run without a cache", not as fatal.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return &Redis{rdb: rdb, timeout: cfg.Timeout}, nil
}

func (r *Redis) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	b, err := r.rdb.Get(timeoutCtx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.rdb.Set(timeoutCtx, key, value, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.rdb.Del(timeoutCtx, keys...).Err()
}

// DelPattern sweeps with SCAN rather than KEYS so the sweep never blocks the
// server, deleting in batches as the cursor advances.
func (r *Redis) DelPattern(ctx context.Context, pattern string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	iter := r.rdb.Scan(timeoutCtx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	for iter.Next(timeoutCtx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.rdb.Del(timeoutCtx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.rdb.Del(timeoutCtx, batch...).Err()
	}
	return nil
}

func (r *Redis) Close() error {
	err := r.rdb.Close()
	if err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
