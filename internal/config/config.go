package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	LogLevel           string
	DB                 DBConfig
	Cache              CacheConfig
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxConns        int32
	QueryTimeout    time.Duration
	ConnectAttempts int
	ConnectBackoff  time.Duration
}

type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Timeout  time.Duration
}

// Load reads configuration from the environment. .env files never override
// variables provided by the runtime (e.g. a container orchestrator).
func Load() Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return Config{
		Addr:     getEnv("APP_ADDR", ":8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DB: DBConfig{
			DSN:             databaseDSN(),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
			QueryTimeout:    getEnvDuration("DB_QUERY_TIMEOUT", 5*time.Second),
			ConnectAttempts: getEnvInt("DB_CONNECT_ATTEMPTS", 5),
			ConnectBackoff:  getEnvDuration("DB_CONNECT_BACKOFF", 3*time.Second),
		},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("CACHE_TTL", time.Minute),
			Timeout:  getEnvDuration("CACHE_TIMEOUT", 500*time.Millisecond),
		},
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// databaseDSN prefers a full DB_DSN and otherwise composes one from the
// individual connection parameters.
func databaseDSN() string {
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "bookstore"),
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
