// Package config loads process configuration from the environment, with a
// .env file honored in dev.
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
	Env      string
	LogLevel string

	HTTPAddr        string
	CORSOrigins     []string
	ShutdownTimeout time.Duration

	// Storage selects the persistence profile: "memory" or "mongo".
	Storage  string
	MongoURI string
	MongoDB  string

	// Idempotency selects the dedup store: "memory" or "redis".
	Idempotency string
	RedisAddr   string
	RedisDB     int

	KafkaEnabled  bool
	KafkaBrokers  []string
	TopicPrefix   string
	RelayInterval time.Duration
}

// Load reads the environment. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:             getEnv("APP_ENV", "dev"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:     splitEnv("CORS_ORIGINS", "*"),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		Storage:         getEnv("STORAGE", "memory"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "staybook"),
		Idempotency:     getEnv("IDEMPOTENCY_STORE", "memory"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         intEnv("REDIS_DB", 0),
		KafkaEnabled:    boolEnv("KAFKA_ENABLED", false),
		KafkaBrokers:    splitEnv("KAFKA_BROKERS", "localhost:9092"),
		TopicPrefix:     getEnv("TOPIC_PREFIX", "staybook"),
		RelayInterval:   durationEnv("RELAY_INTERVAL", 2*time.Second),
	}

	switch cfg.Storage {
	case "memory", "mongo":
	default:
		return Config{}, fmt.Errorf("config: unknown STORAGE %q", cfg.Storage)
	}
	switch cfg.Idempotency {
	case "memory", "redis":
	default:
		return Config{}, fmt.Errorf("config: unknown IDEMPOTENCY_STORE %q", cfg.Idempotency)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitEnv(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
