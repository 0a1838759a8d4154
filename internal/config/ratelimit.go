package config

import (
	"os"
	"time"
)

// RateLimitConfig drives the Redis token bucket in front of the credential
// endpoints.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        parseBoolEnv("RATE_LIMIT_ENABLED", "true"),
		Capacity:       parseIntEnv("RATE_LIMIT_CAPACITY", 10),
		RefillTokens:   parseIntEnv("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durationOr("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
		TTL:            durationOr("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getEnv("RATE_LIMIT_PREFIX", "storefront:rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func durationOr(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}
