// Package config reads the server settings from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort         = 3001
	defaultJWTSecret    = "default-dev-secret-change-me"
	defaultTokenTTL     = 24 * time.Hour
	defaultImagesDir    = "images"
	defaultFeedNATSPort = 4233
)

// Config holds everything main needs to wire the server
type Config struct {
	Port         int
	Env          string
	DatabaseURL  string // empty means in-memory SQLite
	JWTSecret    string
	TokenTTL     time.Duration
	ImagesDir    string
	SeedDemoData bool
	FeedNATSPort int // 0 disables the poll feed
}

// Production reports whether ENV=production
func (c Config) Production() bool {
	return c.Env == "production"
}

// UsesDefaultSecret reports whether tokens are signed with the built-in dev key
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

// Load reads the configuration from environment variables
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:         defaultPort,
		Env:          getenv("ENV"),
		DatabaseURL:  getenv("DATABASE_URL"),
		JWTSecret:    getenv("JWT_SECRET"),
		TokenTTL:     defaultTokenTTL,
		ImagesDir:    getenv("IMAGES_DIR"),
		FeedNATSPort: defaultFeedNATSPort,
	}

	if cfg.Env == "" {
		cfg.Env = "development"
	}

	if portStr := getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return Config{}, errors.New("invalid PORT env variable")
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return Config{}, errors.New("JWT_SECRET required in production")
		}
		cfg.JWTSecret = defaultJWTSecret
	}

	if ttl := getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", ttl)
		}
		cfg.TokenTTL = d
	}

	if cfg.ImagesDir == "" {
		cfg.ImagesDir = defaultImagesDir
	}

	// Demo rows only make sense by default when nothing persists them
	cfg.SeedDemoData = cfg.DatabaseURL == ""
	if seed := getenv("SEED_DEMO_DATA"); seed != "" {
		v, err := strconv.ParseBool(seed)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SEED_DEMO_DATA %q", seed)
		}
		cfg.SeedDemoData = v
	}

	if natsPort := strings.TrimSpace(getenv("FEED_NATS_PORT")); natsPort != "" {
		port, err := strconv.Atoi(natsPort)
		if err != nil || port < 0 {
			return Config{}, fmt.Errorf("invalid FEED_NATS_PORT %q", natsPort)
		}
		cfg.FeedNATSPort = port
	}

	return cfg, nil
}
