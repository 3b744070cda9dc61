// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	sessiondomain "hirewire/backend/internal/session/domain"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address (host:port). Required when SESSION_STORE=redis.
	RedisAddr string `mapstructure:"REDIS_ADDR"`
	// SessionStore selects the session backend: "postgres" or "redis".
	SessionStore string `mapstructure:"SESSION_STORE"`
	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// EmailHashKey is the secret key for the email lookup hash. Required.
	EmailHashKey string `mapstructure:"EMAIL_HASH_KEY"`
	// EncryptionKeys lists the master keys as "version:base64,version:base64"
	// (e.g. "1:abc...,2:def..."). Each key must decode to 32 bytes. Required.
	EncryptionKeys string `mapstructure:"ENCRYPTION_KEYS"`
	// EncryptionCurrentKeyVersion is the key version new envelopes are written
	// under. Must be present in ENCRYPTION_KEYS. Rotation is a config change
	// plus redeploy; old versions stay listed for decryption.
	EncryptionCurrentKeyVersion int `mapstructure:"ENCRYPTION_CURRENT_KEY_VERSION"`
	// AssertionPrivateKey is the PEM-encoded signing key (RSA or ECDSA) or a
	// path to one. Required.
	AssertionPrivateKey string `mapstructure:"ASSERTION_PRIVATE_KEY"`
	// AssertionPublicKey is the PEM-encoded verification key or a path to one. Required.
	AssertionPublicKey string `mapstructure:"ASSERTION_PUBLIC_KEY"`

	// Session lifetime knobs. Zero values fall back to defaults at Load.
	SessionStandardDurationHours  int `mapstructure:"SESSION_STANDARD_DURATION_HOURS"`
	SessionExtendedDurationDays   int `mapstructure:"SESSION_EXTENDED_DURATION_DAYS"`
	SessionAbsoluteLimitDays      int `mapstructure:"SESSION_ABSOLUTE_LIMIT_DAYS"`
	SessionStandardExtensionHours int `mapstructure:"SESSION_STANDARD_EXTENSION_HOURS"`
	SessionExtendedExtensionHours int `mapstructure:"SESSION_EXTENDED_EXTENSION_HOURS"`
	SessionRefreshTriggerPercent  int `mapstructure:"SESSION_REFRESH_TRIGGER_PERCENT"`

	// AuthRateLimitRPS and AuthRateLimitBurst throttle login/register per IP.
	AuthRateLimitRPS   float64 `mapstructure:"AUTH_RATE_LIMIT_RPS"`
	AuthRateLimitBurst int     `mapstructure:"AUTH_RATE_LIMIT_BURST"`

	// OTLPEndpoint is the OTLP collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("SESSION_STORE", "postgres")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("EMAIL_HASH_KEY", "")
	v.SetDefault("ENCRYPTION_KEYS", "")
	v.SetDefault("ENCRYPTION_CURRENT_KEY_VERSION", 0)
	v.SetDefault("ASSERTION_PRIVATE_KEY", "")
	v.SetDefault("ASSERTION_PUBLIC_KEY", "")
	v.SetDefault("SESSION_STANDARD_DURATION_HOURS", 2)
	v.SetDefault("SESSION_EXTENDED_DURATION_DAYS", 30)
	v.SetDefault("SESSION_ABSOLUTE_LIMIT_DAYS", 90)
	v.SetDefault("SESSION_STANDARD_EXTENSION_HOURS", 2)
	v.SetDefault("SESSION_EXTENDED_EXTENSION_HOURS", 24)
	v.SetDefault("SESSION_REFRESH_TRIGGER_PERCENT", 25)
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 5.0)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 10)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.SessionStore {
	case "postgres":
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, errors.New("config: REDIS_ADDR must be set when SESSION_STORE=redis")
		}
	default:
		return nil, fmt.Errorf("config: SESSION_STORE must be postgres or redis, got %q", cfg.SessionStore)
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.EmailHashKey == "" {
		return nil, errors.New("config: EMAIL_HASH_KEY must be set")
	}
	if _, err := cfg.EncryptionKeyMap(); err != nil {
		return nil, err
	}
	if cfg.EncryptionCurrentKeyVersion < 1 || cfg.EncryptionCurrentKeyVersion > 255 {
		return nil, errors.New("config: ENCRYPTION_CURRENT_KEY_VERSION must be 1-255")
	}
	if cfg.AssertionPrivateKey == "" || cfg.AssertionPublicKey == "" {
		return nil, errors.New("config: ASSERTION_PRIVATE_KEY and ASSERTION_PUBLIC_KEY must be set")
	}
	if err := cfg.SessionPolicy().Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

// EncryptionKeyMap parses ENCRYPTION_KEYS into version -> base64 key material.
// Key material itself is validated by the key ring, not here.
func (c *Config) EncryptionKeyMap() (map[byte]string, error) {
	if strings.TrimSpace(c.EncryptionKeys) == "" {
		return nil, errors.New("config: ENCRYPTION_KEYS must be set")
	}
	out := map[byte]string{}
	for _, entry := range strings.Split(c.EncryptionKeys, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		version, material, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("config: ENCRYPTION_KEYS entry %q is not version:key", entry)
		}
		n, err := strconv.Atoi(strings.TrimSpace(version))
		if err != nil || n < 1 || n > 255 {
			return nil, fmt.Errorf("config: ENCRYPTION_KEYS version %q must be 1-255", version)
		}
		if _, dup := out[byte(n)]; dup {
			return nil, fmt.Errorf("config: ENCRYPTION_KEYS version %d listed twice", n)
		}
		out[byte(n)] = strings.TrimSpace(material)
	}
	if len(out) == 0 {
		return nil, errors.New("config: ENCRYPTION_KEYS must list at least one key")
	}
	return out, nil
}

// SessionPolicy builds the session lifetime policy from the config.
func (c *Config) SessionPolicy() sessiondomain.LifetimePolicy {
	return sessiondomain.LifetimePolicy{
		StandardDuration:      time.Duration(c.SessionStandardDurationHours) * time.Hour,
		ExtendedDuration:      time.Duration(c.SessionExtendedDurationDays) * 24 * time.Hour,
		AbsoluteLimit:         time.Duration(c.SessionAbsoluteLimitDays) * 24 * time.Hour,
		StandardExtension:     time.Duration(c.SessionStandardExtensionHours) * time.Hour,
		ExtendedExtension:     time.Duration(c.SessionExtendedExtensionHours) * time.Hour,
		RefreshTriggerPercent: c.SessionRefreshTriggerPercent,
	}
}
