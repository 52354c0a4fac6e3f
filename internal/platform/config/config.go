package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Stores and external clients are optional: when their sections
// are empty the server falls back to in-memory implementations.
type Config struct {
	Server   Server
	Redis    RedisConfig
	Postgres PostgresConfig
	Currency CurrencyConfig
	Ingest   IngestConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// RedisConfig configures the optional Redis-backed caches.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the optional PostgreSQL-backed stores.
type PostgresConfig struct {
	URL string
}

// CurrencyConfig configures the exchange-rate client.
type CurrencyConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// IngestConfig bounds file ingestion.
type IngestConfig struct {
	MaxFileBytes int64
	FileCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envOr("COMPASS_ADDR", ":8080"),
			ShutdownTimeout: envDuration("COMPASS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("COMPASS_REDIS_URL"),
			PoolSize:     envInt("COMPASS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("COMPASS_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("COMPASS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("COMPASS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("COMPASS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("COMPASS_POSTGRES_URL"),
		},
		Currency: CurrencyConfig{
			APIBaseURL: envOr("COMPASS_RATES_URL", "https://api.exchangerate-api.com/v4/latest"),
			Timeout:    envDuration("COMPASS_RATES_TIMEOUT", 5*time.Second),
			CacheTTL:   envDuration("COMPASS_RATES_CACHE_TTL", time.Hour),
		},
		Ingest: IngestConfig{
			MaxFileBytes: envInt64("COMPASS_MAX_FILE_BYTES", 50*1024*1024),
			FileCacheTTL: envDuration("COMPASS_FILE_CACHE_TTL", 30*time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
