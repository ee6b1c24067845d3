package app

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"MINDER_HTTP_ADDR", "MINDER_LOG_LEVEL", "MINDER_LOG_FORMAT",
		"MINDER_DATABASE_URL", "MINDER_DB_SCHEMA", "MINDER_DB_MAX_CONNS",
		"MINDER_READINESS_REQUIRE_DB", "MINDER_REQUIRE_TOKEN_HMAC",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.HTTPAddr != "0.0.0.0:8080" || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.DBSchema != "minder" || cfg.DBMaxConns != 10 || cfg.DBMinConns != 0 {
		t.Fatalf("db config = %+v", cfg)
	}
	if cfg.ReadinessRequireDB || cfg.RequireTokenHMAC {
		t.Fatalf("policy flags must default off")
	}
	if cfg.ReadHeaderTimeout != 5*time.Second || cfg.IdleTimeout != 60*time.Second {
		t.Fatalf("timeouts = %+v", cfg)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MINDER_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("MINDER_LOG_FORMAT", "pretty")
	t.Setenv("MINDER_DB_MAX_CONNS", "25")
	t.Setenv("MINDER_HTTP_READ_TIMEOUT", "30s")
	t.Setenv("MINDER_READINESS_REQUIRE_DB", "true")

	cfg := LoadConfig()

	if cfg.HTTPAddr != "127.0.0.1:9999" || cfg.LogFormat != "pretty" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.DBMaxConns != 25 || cfg.ReadTimeout != 30*time.Second || !cfg.ReadinessRequireDB {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestEnvHelpers_RejectGarbage(t *testing.T) {
	t.Setenv("MINDER_TEST_INT", "-3")
	t.Setenv("MINDER_TEST_DUR", "soon")
	t.Setenv("MINDER_TEST_BOOL", "yep")

	if got := EnvInt("MINDER_TEST_INT", 7); got != 7 {
		t.Fatalf("EnvInt = %d", got)
	}
	if got := EnvDuration("MINDER_TEST_DUR", time.Second); got != time.Second {
		t.Fatalf("EnvDuration = %v", got)
	}
	if got := EnvBool("MINDER_TEST_BOOL", true); !got {
		t.Fatalf("EnvBool fell through")
	}
	if got := EnvInt32("MINDER_TEST_INT", 4); got != 4 {
		t.Fatalf("EnvInt32 = %d", got)
	}
}
