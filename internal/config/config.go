// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinSecretLength mirrors the shortest HS256 secret the token issuer accepts.
const MinSecretLength = 32

// Config contains runtime configuration values.
type Config struct {
	HTTPAddr       string
	DatabaseURL    string
	RedisURL       string
	AuthSecret     []byte
	AuthIssuer     string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	BcryptCost     int
	RateBurst      int
	RatePerSec     float64
	LogLevel       string
	AdminEmail     string
	AdminPassword  string
	SweepSchedule  string
	MaxBodyBytes   int64
	CORSOrigins    []string
	TrustedProxies []string
	Version        string
	Commit         string
}

// Load reads configuration from environment variables with sane defaults. A
// .env file in the working directory is honoured when present. The signing
// secret is mandatory.
func Load() (Config, error) {
	_ = godotenv.Load()

	secret := strings.TrimSpace(os.Getenv("ORGDESK_AUTH_SECRET"))
	if secret == "" {
		return Config{}, fmt.Errorf("ORGDESK_AUTH_SECRET is required")
	}
	if len(secret) < MinSecretLength {
		return Config{}, fmt.Errorf("ORGDESK_AUTH_SECRET must be at least %d bytes", MinSecretLength)
	}

	cfg := Config{
		HTTPAddr:       getEnv("ORGDESK_HTTP_ADDR", ":8080"),
		DatabaseURL:    strings.TrimSpace(os.Getenv("ORGDESK_PG_DSN")),
		RedisURL:       strings.TrimSpace(os.Getenv("ORGDESK_REDIS_URL")),
		AuthSecret:     []byte(secret),
		AuthIssuer:     getEnv("ORGDESK_AUTH_ISSUER", "orgdesk"),
		AccessTTL:      getDuration("ORGDESK_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:     getDuration("ORGDESK_REFRESH_TTL", 14*24*time.Hour),
		BcryptCost:     clampCost(getInt("ORGDESK_BCRYPT_COST", bcrypt.DefaultCost)),
		RateBurst:      getInt("ORGDESK_RATE_BURST", 20),
		RatePerSec:     getFloat("ORGDESK_RATE_PER_SEC", 10),
		LogLevel:       getEnv("ORGDESK_LOG_LEVEL", "info"),
		AdminEmail:     strings.TrimSpace(os.Getenv("ORGDESK_ADMIN_EMAIL")),
		AdminPassword:  os.Getenv("ORGDESK_ADMIN_PASSWORD"),
		SweepSchedule:  getEnv("ORGDESK_SWEEP_SCHEDULE", "@every 5m"),
		MaxBodyBytes:   int64(getInt("ORGDESK_MAX_BODY_BYTES", 1<<20)),
		CORSOrigins:    getList("ORGDESK_CORS_ORIGINS", []string{"*"}),
		TrustedProxies: getList("ORGDESK_TRUSTED_PROXIES", nil),
		Version:        getEnv("ORGDESK_VERSION", "dev"),
		Commit:         getEnv("ORGDESK_COMMIT", "unknown"),
	}

	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return Config{}, fmt.Errorf("token TTLs must be positive")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return Config{}, fmt.Errorf("ORGDESK_REFRESH_TTL must not be shorter than ORGDESK_ACCESS_TTL")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, fmt.Errorf("ORGDESK_ADMIN_EMAIL and ORGDESK_ADMIN_PASSWORD must be set together")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg, nil
}

func clampCost(cost int) int {
	switch {
	case cost < bcrypt.MinCost:
		return bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		return bcrypt.MaxCost
	}
	return cost
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
