// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Remote complaint service. RemoteURL wins; otherwise the service is
	// addressed on the page's own host at RemotePort.
	RemoteURL     string
	RemotePort    int
	RemoteTimeout time.Duration

	// Reverse geocoding
	GeocoderURL       string
	GeocoderUserAgent string

	// Sessions
	SessionSecret string
	SessionCookie string
	SessionTTL    time.Duration

	// Security
	AllowedOrigins   []string
	RateLimitRPM     int
	RateLimitBackend string // "memory" | "redis"
	RedisURL         string

	// Uploads held in memory while parsing the composer's file form
	MaxUploadBytes int64

	HealthProbeInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 5173),
		Environment: getEnv("ENVIRONMENT", "development"),

		RemoteURL:     getEnv("REMOTE_URL", ""),
		RemotePort:    getEnvInt("REMOTE_PORT", 8080),
		RemoteTimeout: getEnvDuration("REMOTE_TIMEOUT", 15*time.Second),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "citizen-complaint-portal/1.0"),

		SessionSecret: getEnv("SESSION_SECRET", devSessionSecret),
		SessionCookie: getEnv("SESSION_COOKIE", "portal_session"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),

		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", 120),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379"),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 32)) << 20,

		HealthProbeInterval: getEnvDuration("HEALTH_PROBE_INTERVAL", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no safe fallback.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	if c.RemoteURL == "" && (c.RemotePort <= 0 || c.RemotePort > 65535) {
		return fmt.Errorf("REMOTE_PORT %d is out of range", c.RemotePort)
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", c.RateLimitBackend)
	}

	// Validate required fields in production
	if c.Environment == "production" && c.SessionSecret == devSessionSecret {
		return fmt.Errorf("SESSION_SECRET must be set in production")
	}
	return nil
}

// IsDevelopment reports whether the portal runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
