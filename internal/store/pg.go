package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore/internal/logger"
)

// RetryPolicy bounds the startup connection loop. Tests inject a zero
// backoff to avoid sleeping.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

const pingTimeout = 2 * time.Second

// Connect opens a pgx pool and verifies it with a ping, retrying per the
// policy. The service must not accept requests until this succeeds.
func Connect(ctx context.Context, dsn string, maxConns int32, policy RetryPolicy) (*pgxpool.Pool, error) {
	log := logger.WithComponent("store")

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err = pool.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Infof("database connection OK (attempt %d/%d)", attempt, policy.Attempts)
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		log.Warnf("database unreachable (attempt %d/%d): %v", attempt, policy.Attempts, err)

		if attempt == policy.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(policy.Backoff):
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", policy.Attempts, lastErr)
}
