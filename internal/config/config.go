// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the server binary needs to start.
type Config struct {
	ListenAddr  string
	DatabaseDSN string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	MaxLoginAttempts int
	LockoutWindow    time.Duration
	LockoutDuration  time.Duration
	SweepInterval    time.Duration
}

// Load reads the configuration from environment variables. JWT_SECRET
// and DATABASE_DSN are mandatory; everything else has a default.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is required")
	}

	cfg := &Config{
		ListenAddr:  envOrDefault("LISTEN_ADDR", ":8080"),
		DatabaseDSN: dsn,
		JWTSecret:   secret,
	}

	var err error
	if cfg.AccessTTL, err = envDurationOrDefault("ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTTL, err = envDurationOrDefault("REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MaxLoginAttempts, err = envIntOrDefault("MAX_LOGIN_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.LockoutWindow, err = envDurationOrDefault("LOCKOUT_WINDOW", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LockoutDuration, err = envDurationOrDefault("LOCKOUT_DURATION", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = envDurationOrDefault("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return n, nil
}

func envDurationOrDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
