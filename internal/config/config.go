package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string
	Env         string

	VaultAddr  string
	VaultToken string

	KeyRSABits        int
	KeyValidityMonths int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VerifyCacheTTLSeconds int

	PolicyBundlePath string

	RateLimitRequests      int
	RateLimitWindowSeconds int

	RetryAttempts  int
	RetryBaseMs    int
	AuditClientIPs bool
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
		Env:                    envDefault("DOCSEAL_ENV", "dev"),
		VaultAddr:              os.Getenv("VAULT_ADDR"),
		VaultToken:             os.Getenv("VAULT_TOKEN"),
		KeyRSABits:             envIntDefault("KEY_RSA_BITS", 2048),
		KeyValidityMonths:      envIntDefault("KEY_VALIDITY_MONTHS", 12),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
		VerifyCacheTTLSeconds:  envIntDefault("VERIFY_CACHE_TTL_SECONDS", 30),
		PolicyBundlePath:       os.Getenv("POLICY_BUNDLE_PATH"),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RetryAttempts:          envIntDefault("RETRY_ATTEMPTS", 3),
		RetryBaseMs:            envIntDefault("RETRY_BASE_MS", 100),
		AuditClientIPs:         envBoolDefault("AUDIT_CLIENT_IPS", true),
	}
}

func (c Config) KeyValidity() time.Duration {
	months := c.KeyValidityMonths
	if months <= 0 {
		months = 12
	}
	return time.Duration(months) * 30 * 24 * time.Hour
}

func (c Config) VerifyCacheTTL() time.Duration {
	if c.VerifyCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.VerifyCacheTTLSeconds) * time.Second
}

func (c Config) RetryBase() time.Duration {
	if c.RetryBaseMs <= 0 {
		return 0
	}
	return time.Duration(c.RetryBaseMs) * time.Millisecond
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
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

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
