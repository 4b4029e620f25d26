package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type CacheConfig struct {
	// DefaultTTL applies to memory-cache entries stored without an explicit TTL.
	DefaultTTL time.Duration
	// PrefsPath is the durable preference store file. Empty disables persistence.
	PrefsPath string
	// PrefsTTL bounds how long persisted preferences are considered fresh.
	PrefsTTL time.Duration
}

type AuthConfig struct {
	JWTSecret []byte
	// AdminUser/AdminPasswordHash gate token issuance for the admin surface.
	// AdminPasswordHash is a bcrypt hash; empty disables the login endpoint.
	AdminUser         string
	AdminPasswordHash string
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	OwnerID     string
	HTTP        HTTPConfig
	Cache       CacheConfig
	Auth        AuthConfig
	NATSURL     string
	// TrendWorkers selects the trend engine: 0 = synchronous, >0 = pooled.
	TrendWorkers int
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		OwnerID:     strings.TrimSpace(os.Getenv("OWNER_ID")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		Cache: CacheConfig{
			DefaultTTL: envDuration("CACHE_TTL", 5*time.Minute),
			PrefsPath:  strings.TrimSpace(os.Getenv("PREFS_PATH")),
			PrefsTTL:   envDuration("PREFS_TTL", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:         []byte(strings.TrimSpace(os.Getenv("JWT_SECRET"))),
			AdminUser:         strings.TrimSpace(os.Getenv("ADMIN_USER")),
			AdminPasswordHash: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),
		},
		NATSURL:      strings.TrimSpace(os.Getenv("NATS_URL")),
		TrendWorkers: envInt("TREND_WORKERS", 0),
	}
	if cfg.ServiceName == "" {
		return AppConfig{}, errors.New("SERVICE_NAME is required")
	}
	if len(cfg.Auth.JWTSecret) == 0 {
		return AppConfig{}, errors.New("JWT_SECRET is required")
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OwnerID == "" {
		// Playlists are shared across all signed-in users of an instance.
		cfg.OwnerID = "shared_user"
	}
	return cfg, nil
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
