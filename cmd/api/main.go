package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"syscall"
	"time"

	"github.com/enrichman/httpgrace"

	"bookstore/internal/cache"
	"bookstore/internal/config"
	apphttp "bookstore/internal/http"
	"bookstore/internal/logger"
	"bookstore/internal/store"
)

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	log := logger.WithComponent("main")

	ctx := context.Background()

	// The store is the source of truth: refuse to start without it.
	pool, err := store.Connect(ctx, cfg.DB.DSN, cfg.DB.MaxConns, store.RetryPolicy{
		Attempts: cfg.DB.ConnectAttempts,
		Backoff:  cfg.DB.ConnectBackoff,
	})
	if err != nil {
		log.Fatalf("cannot connect to database: %v", err)
	}
	defer pool.Close()

	// The cache is best-effort: without it every lookup is a miss.
	var cacheStore cache.Store
	redisStore, err := cache.NewRedis(cache.RedisConfig{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Timeout:  cfg.Cache.Timeout,
	})
	if err != nil {
		log.Warnf("cache unavailable, running in degraded mode: %v", err)
	} else {
		cacheStore = redisStore
		defer redisStore.Close()
		log.Infof("cache connection OK (ttl %s)", cfg.Cache.TTL)
	}

	books := store.NewBookPG(pool, cfg.DB.QueryTimeout)
	coordinator := cache.NewCoordinator(books, cacheStore, cfg.Cache.TTL)

	startedAt := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(startedAt))
	mux.HandleFunc("GET /ready", readyHandler(pool))
	apphttp.NewBookHandler(coordinator).Register(mux)

	rateLimit := apphttp.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := apphttp.Chain(mux,
		apphttp.RequestIDMiddleware,
		apphttp.AccessLogMiddleware,
		apphttp.RecoveryMiddleware,
		rateLimit.Middleware,
		apphttp.CORSMiddleware(cfg.CORSAllowedOrigins),
	)

	srv := httpgrace.NewServer(handler,
		httpgrace.WithTimeout(10*time.Second),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithBeforeShutdown(func() {
			log.Info("shutting down, draining in-flight requests")
		}),
	)

	log.Infof("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func healthHandler(startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(startedAt).Round(time.Second).String(),
		})
	}
}

// pinger is the slice of *pgxpool.Pool the readiness probe needs.
type pinger interface {
	Ping(ctx context.Context) error
}

func readyHandler(db pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			apphttp.JSONError(w, http.StatusServiceUnavailable, "NOT_READY", "database not ready", nil)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}
}
