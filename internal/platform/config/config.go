// Package config loads application configuration from the environment.
package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type AssetStoreConfig struct {
	BaseURL string
	APIKey  string
}

type AppConfig struct {
	ServiceName string
	Env         string // "production" enforces real backends
	LogLevel    string
	HTTP        HTTPConfig

	DatabaseURL string
	RedisURL    string
	NATSURL     string

	JWTSecret string

	AssetStore AssetStoreConfig

	ReconcileInterval time.Duration
}

// Load reads configuration from env vars, applying defaults for everything
// that is safe to default. SERVICE_NAME and JWT_SECRET are required.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: getenv("SERVICE_NAME"),
		Env:         getenv("APP_ENV"),
		LogLevel:    getenv("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Addr: getenv("HTTP_ADDR"),
		},
		DatabaseURL: getenv("DATABASE_URL"),
		RedisURL:    getenv("REDIS_URL"),
		NATSURL:     getenv("NATS_URL"),
		JWTSecret:   getenv("JWT_SECRET"),
		AssetStore: AssetStoreConfig{
			BaseURL: getenv("ASSET_STORE_URL"),
			APIKey:  getenv("ASSET_STORE_KEY"),
		},
		ReconcileInterval: envDuration("RECONCILE_INTERVAL", 5*time.Minute),
	}

	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if cfg.JWTSecret == "" {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// IsProduction reports whether the app must fail fast instead of degrading
// to in-memory backends.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
