package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls auth API behavior and security defaults.
type Config struct {
	// CookieName is the web session cookie (default "minder.sid").
	CookieName string

	CookiePath   string
	CookieDomain string
	CookieSecure bool

	// CookieClientTTL is the client-visible cookie expiry. It is independent
	// of the server-side idle window; the server remains authoritative.
	CookieClientTTL time.Duration

	// LoginPath is where RequireUserRedirect sends anonymous browsers.
	LoginPath string

	MaxBodyBytes int64
}

// LoadConfigFromEnv loads auth API config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		CookieName:      envString("MINDER_AUTH_COOKIE_NAME", "minder.sid"),
		CookiePath:      envString("MINDER_AUTH_COOKIE_PATH", "/"),
		CookieDomain:    envString("MINDER_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:    envBool("MINDER_AUTH_COOKIE_SECURE", true),
		CookieClientTTL: envDuration("MINDER_AUTH_COOKIE_CLIENT_TTL", 10*time.Minute),
		LoginPath:       envString("MINDER_AUTH_LOGIN_PATH", "/account/login"),
		MaxBodyBytes:    envInt64("MINDER_AUTH_MAX_BODY_BYTES", 1<<20), // 1 MiB
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "minder.sid"
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.CookieClientTTL <= 0 {
		cfg.CookieClientTTL = 10 * time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	return cfg
}

func (c Config) cookieSameSite() http.SameSite {
	return http.SameSiteLaxMode
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
