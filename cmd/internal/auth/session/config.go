package session

import (
	"os"
	"strconv"
	"time"
)

// Config defines all runtime configuration for the session subsystem.
//
// It controls the cookie idle window, the activity write-coalescing interval,
// the bearer token lifetime, and token entropy sizes.
//
// This struct is intentionally explicit and environment-driven so that
// production deployments can tune security parameters without code changes.
type Config struct {
	// IdleTimeout is the sliding idle window for cookie sessions. A cookie
	// session expires when no activity has been recorded for this long.
	IdleTimeout time.Duration

	// TouchInterval coalesces activity writes: last activity is persisted
	// only when at least this much time has passed since the stored value.
	// With the defaults the observable idle expiry lands anywhere in
	// [IdleTimeout, IdleTimeout+TouchInterval).
	TouchInterval time.Duration

	// BearerTTL is the fixed lifetime of bearer sessions.
	BearerTTL time.Duration

	// CookieTokenBytes and BearerTokenBytes define the number of random
	// bytes used to generate opaque session tokens per kind.
	CookieTokenBytes int
	BearerTokenBytes int
}

// DefaultConfig returns a secure default configuration suitable for development.
//
// Production environments should override values via environment variables.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:      5 * time.Minute,
		TouchInterval:    60 * time.Second,
		BearerTTL:        60 * time.Minute,
		CookieTokenBytes: 16,
		BearerTokenBytes: 32,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (durations must be valid Go duration strings):
//   - MINDER_SESSION_IDLE_TIMEOUT
//   - MINDER_SESSION_TOUCH_INTERVAL
//   - MINDER_BEARER_TTL
//   - MINDER_SESSION_COOKIE_TOKEN_BYTES
//   - MINDER_BEARER_TOKEN_BYTES
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("MINDER_SESSION_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.IdleTimeout = d
	}

	if v := os.Getenv("MINDER_SESSION_TOUCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, ErrConfig
		}
		cfg.TouchInterval = d
	}

	if v := os.Getenv("MINDER_BEARER_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.BearerTTL = d
	}

	if v := os.Getenv("MINDER_SESSION_COOKIE_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 16 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.CookieTokenBytes = n
	}

	if v := os.Getenv("MINDER_BEARER_TOKEN_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.BearerTokenBytes = n
	}

	// Invariant: the coalescing interval must stay shorter than the idle
	// window, otherwise active sessions could expire between touches.
	if cfg.TouchInterval >= cfg.IdleTimeout {
		return Config{}, ErrConfig
	}

	return cfg, nil
}
