package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBSchema    string
	DBMaxConns  int32
	DBMinConns  int32

	// If true, /readyz returns 503 unless the database is configured and
	// reachable.
	ReadinessRequireDB bool

	// If true, MINDER_TOKEN_HMAC_KEY must be set (>= 32 bytes) and session
	// token hashing must be HMAC-based.
	RequireTokenHMAC bool
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("MINDER_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("MINDER_LOG_LEVEL", "info"),
		LogFormat: EnvString("MINDER_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("MINDER_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("MINDER_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("MINDER_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("MINDER_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("MINDER_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL: EnvString("MINDER_DATABASE_URL", ""),
		DBSchema:    EnvString("MINDER_DB_SCHEMA", "minder"),
		DBMaxConns:  EnvInt32("MINDER_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("MINDER_DB_MIN_CONNS", 0),

		ReadinessRequireDB: EnvBool("MINDER_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("MINDER_REQUIRE_TOKEN_HMAC", false),
	}
}

// EnvString reads a string env var with a default.
func EnvString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// EnvBool reads a bool env var with a default.
func EnvBool(key string, def bool) bool {
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

// EnvInt reads a positive int env var with a default.
func EnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// EnvInt32 reads a non-negative int32 env var with a default.
func EnvInt32(key string, def int32) int32 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil || n < 0 {
		return def
	}
	return int32(n)
}

// EnvDuration reads a positive duration env var with a default.
func EnvDuration(key string, def time.Duration) time.Duration {
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
