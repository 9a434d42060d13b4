// Package config builds runtime configuration from the environment so main
// stays lean. Every knob has a development-friendly default; production
// deployments override through the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr       string
	SchemaPath string

	// Store selects session persistence: "memory", "postgres", or "redis".
	Store string

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Gemini   GeminiConfig

	ShutdownTimeout time.Duration
}

// PostgresConfig carries the database connection settings.
type PostgresConfig struct {
	DSN string
}

// RedisConfig carries Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SessionTTL   time.Duration
}

// KafkaConfig carries audit feed settings. Empty brokers disable the feed.
type KafkaConfig struct {
	Brokers       []string
	AuditTopic    string
	RelayInterval time.Duration
	RelayBatch    int
}

// GeminiConfig carries model extractor settings. An empty API key disables
// the model extractor; deterministic capture still runs.
type GeminiConfig struct {
	APIKey string
	Model  string
	Agent  string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:       envOr("INTAKE_ADDR", ":8080"),
		SchemaPath: envOr("INTAKE_SCHEMA_PATH", "schemas/buyer_intake.yaml"),
		Store:      envOr("INTAKE_STORE", "memory"),
		Postgres: PostgresConfig{
			DSN: os.Getenv("INTAKE_POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("INTAKE_REDIS_URL"),
			PoolSize:     envInt("INTAKE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("INTAKE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("INTAKE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("INTAKE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("INTAKE_REDIS_WRITE_TIMEOUT", 3*time.Second),
			SessionTTL:   envDuration("INTAKE_SESSION_TTL", 30*24*time.Hour),
		},
		Kafka: KafkaConfig{
			Brokers:       envList("INTAKE_KAFKA_BROKERS"),
			AuditTopic:    envOr("INTAKE_AUDIT_TOPIC", "intake.audit"),
			RelayInterval: envDuration("INTAKE_AUDIT_RELAY_INTERVAL", time.Second),
			RelayBatch:    envInt("INTAKE_AUDIT_RELAY_BATCH", 100),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("INTAKE_GEMINI_API_KEY"),
			Model:  envOr("INTAKE_GEMINI_MODEL", "gemini-2.0-flash"),
			Agent:  envOr("INTAKE_GEMINI_AGENT", "gemini-extractor"),
		},
		ShutdownTimeout: envDuration("INTAKE_SHUTDOWN_TIMEOUT", 10*time.Second),
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
