// Package identity password hashing (PBKDF2-SHA256).
//
// This file preserves identity's public API:
//
//   - HashPassword
//   - VerifyPassword
//
// while using cmd/security/password as the single source of truth for:
//   - PBKDF2 parameters (defaults + env overrides)
//   - password policy (defaults + env overrides)
//   - strict hash decoding + anti-DoS bounds during Verify
//
// identity MUST NOT silently drift from security/password configuration.
package identity

import (
	"errors"

	"minder/cmd/security/password"
)

// HashPassword returns an encoded PBKDF2-SHA256 hash string
// (<iterations>.<salt_b64url>.<key_b64url>).
//
// Security contract:
// - Enforces a baseline min length of 8; env policy may tighten it further.
func HashPassword(passwordPlain string) (string, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		// Treat invalid env as an operational error, not a weak fallback.
		return "", err
	}

	// identity baseline is min 8 chars; env may be stricter. Take the stricter one.
	if cfg.Policy.MinLength < 8 {
		cfg.Policy.MinLength = 8
	}
	if cfg.Policy.MaxLength <= 0 {
		cfg.Policy.MaxLength = 256
	}

	enc, err := cfg.Hash(passwordPlain)
	if err != nil {
		// Use errors.Is (not equality) to remain correct if security/password wraps errors.
		switch {
		case errors.Is(err, password.ErrPasswordTooShort):
			return "", errors.New("password too short")
		case errors.Is(err, password.ErrPasswordTooLong):
			return "", errors.New("password too long")
		case errors.Is(err, password.ErrWeakPassword):
			return "", errors.New("weak password")
		default:
			return "", err
		}
	}

	return enc, nil
}

// VerifyPassword checks a password against a stored encoded hash.
//
// Security contract:
// - Strict parsing; malformed records fail closed (false) rather than verifying.
// - Constant-time key comparison (delegated to security/password).
// - Verification honors the stored iteration count, not the current default.
func VerifyPassword(passwordPlain string, encoded string) (bool, error) {
	cfg, err := password.FromEnv()
	if err != nil {
		return false, err
	}

	ok, err := cfg.Verify(encoded, passwordPlain)
	if err != nil {
		if errors.Is(err, password.ErrInvalidHash) {
			// Corrupt stored material: treated as a mismatch by callers.
			return false, password.ErrInvalidHash
		}
		return false, err
	}
	return ok, nil
}
