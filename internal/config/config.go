// Package config provides environment-based configuration.
//
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env struct tags.
// Validates required fields before the engine starts.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"5000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	JWTSecret   string        `env:"JWT_SECRET"`
	AuthTimeout time.Duration `env:"AUTH_TIMEOUT" default:"5s"`

	MongoURL      string `env:"MONGODB_URL"`
	MongoDatabase string `env:"MONGODB_DATABASE" default:"sri_express"`

	// Optional: when empty the Redis ingest bridge is disabled and
	// notifications come only from in-process producers.
	RedisURL string `env:"REDIS_URL"`

	HeartbeatInterval   time.Duration `env:"HEARTBEAT_INTERVAL" default:"30s"`
	SnapshotLimit       int           `env:"SNAPSHOT_LIMIT" default:"10"`
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY" default:"64"`

	MaxConnections      int64   `env:"MAX_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP int     `env:"MAX_CONNECTIONS_PER_IP" default:"50"`
	ConnectRate         float64 `env:"CONNECT_RATE" default:"10"`
	ConnectBurst        int     `env:"CONNECT_BURST" default:"20"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"JWT_SECRET":  cfg.JWTSecret,
		"MONGODB_URL": cfg.MongoURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	if cfg.SnapshotLimit <= 0 {
		return fmt.Errorf("SNAPSHOT_LIMIT must be positive, got %d", cfg.SnapshotLimit)
	}
	if cfg.DispatchConcurrency <= 0 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be positive, got %d", cfg.DispatchConcurrency)
	}
	if cfg.HeartbeatInterval < time.Second {
		return fmt.Errorf("HEARTBEAT_INTERVAL must be at least 1s, got %v", cfg.HeartbeatInterval)
	}

	return nil
}
