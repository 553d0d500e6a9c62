package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"sc3/internal/domain"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AdminAPIKey string
	PolicyPath  string

	CVESourceURL     string
	CVESourceTimeout time.Duration

	CollateralEndpoint string
	CollateralTimeout  time.Duration

	RateLimitRequests      int
	RateLimitWindowSeconds int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogSigningSeedHex string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		AdminAPIKey:            os.Getenv("ADMIN_API_KEY"),
		PolicyPath:             os.Getenv("SC3_POLICY_PATH"),
		CVESourceURL:           os.Getenv("SC3_CVE_SOURCE_URL"),
		CVESourceTimeout:       envDurationDefault("SC3_CVE_SOURCE_TIMEOUT_SECONDS", 10*time.Second),
		CollateralEndpoint:     os.Getenv("SC3_COLLATERAL_ENDPOINT"),
		CollateralTimeout:      envDurationDefault("SC3_COLLATERAL_TIMEOUT_SECONDS", 10*time.Second),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		LogSigningSeedHex:      os.Getenv("SC3_LOG_SIGNING_SEED_HEX"),
	}
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// LoadPolicy reads a YAML policy file. A missing path yields the default
// policy rather than an error so the service can start unconfigured.
func LoadPolicy(path string) (domain.Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Policy{}, fmt.Errorf("read policy file: %w", err)
	}
	policy := DefaultPolicy()
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return domain.Policy{}, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return policy, nil
}

// DefaultPolicy is the baseline: SLSA level 2, high-severity CVE gate,
// signed dependencies required.
func DefaultPolicy() domain.Policy {
	return domain.Policy{
		SeverityThreshold: domain.SeverityHigh,
		MinLevel:          2,
		RequireSignedDeps: true,
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	seconds := envIntDefault(key, 0)
	if seconds <= 0 {
		return def
	}
	return time.Duration(seconds) * time.Second
}
