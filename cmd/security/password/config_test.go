package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	// Ensure env is clean for this test.
	clearEnv := []string{
		"MINDER_PASSWORD_MIN_LEN",
		"MINDER_PASSWORD_MAX_LEN",
		"MINDER_PASSWORD_REJECT_VERY_WEAK",
		"MINDER_PBKDF2_ITERATIONS",
		"MINDER_PBKDF2_SALT_LEN",
		"MINDER_PBKDF2_KEY_LEN",
	}
	for _, k := range clearEnv {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Policy.MinLength != def.Policy.MinLength {
		t.Fatalf("min length mismatch")
	}
	if cfg.Params.Iterations != def.Params.Iterations {
		t.Fatalf("iterations mismatch")
	}
	if cfg.Params.SaltLength != 16 || cfg.Params.KeyLength != 32 {
		t.Fatalf("salt/key length defaults changed: %+v", cfg.Params)
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("MINDER_PASSWORD_MIN_LEN", "10")
	t.Setenv("MINDER_PASSWORD_MAX_LEN", "200")
	t.Setenv("MINDER_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("MINDER_PBKDF2_ITERATIONS", "120000")
	t.Setenv("MINDER_PBKDF2_SALT_LEN", "24")
	t.Setenv("MINDER_PBKDF2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Params.Iterations != 120000 {
		t.Fatalf("iterations override failed: %+v", cfg.Params)
	}
	if cfg.Params.SaltLength != 24 || cfg.Params.KeyLength != 32 {
		t.Fatalf("len override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("MINDER_PASSWORD_MIN_LEN", "20")
	t.Setenv("MINDER_PASSWORD_MAX_LEN", "10")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromEnv_IterationsOutOfRange(t *testing.T) {
	t.Setenv("MINDER_PBKDF2_ITERATIONS", "1")

	_, err := FromEnv()
	if err == nil {
		t.Fatalf("expected error for absurdly low iteration count")
	}
}
