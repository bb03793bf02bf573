package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures service level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr string

	// PostgresDSN selects the SQL-backed stores when set; empty falls back to
	// the in-memory stores (development and tests).
	PostgresDSN string

	Redis RedisConfig
	Kafka KafkaConfig
	JWT   JWTConfig

	// IndexCacheTTL bounds staleness of the cached public index listing.
	IndexCacheTTL time.Duration
}

// RedisConfig holds Redis connection settings. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds audit pipeline settings. Empty brokers disable Kafka and
// the audit trail falls back to the in-process channel worker.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

func FromEnv() Config {
	cfg := Config{
		Addr:        envOr("JUSTICE_ADDR", ":8080"),
		PostgresDSN: os.Getenv("JUSTICE_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("JUSTICE_REDIS_URL"),
			PoolSize:     envInt("JUSTICE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("JUSTICE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("JUSTICE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("JUSTICE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("JUSTICE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			AuditTopic: envOr("JUSTICE_KAFKA_AUDIT_TOPIC", "justice.audit"),
		},
		JWT: JWTConfig{
			SigningKey: os.Getenv("JUSTICE_JWT_SIGNING_KEY"),
			Issuer:     envOr("JUSTICE_JWT_ISSUER", "justice-rollon"),
			Audience:   envOr("JUSTICE_JWT_AUDIENCE", "justice-rollon-api"),
			AccessTTL:  envDuration("JUSTICE_JWT_ACCESS_TTL", time.Hour),
		},
		IndexCacheTTL: envDuration("JUSTICE_INDEX_CACHE_TTL", time.Minute),
	}

	if brokers := os.Getenv("JUSTICE_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = splitComma(brokers)
	}
	if cfg.JWT.SigningKey == "" {
		// Development default - must be overridden in production.
		cfg.JWT.SigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
