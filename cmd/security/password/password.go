package password

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Hash hashes a password using PBKDF2-SHA256 and returns an encoded hash string.
// Format:
// <iterations>.<salt_b64url>.<key_b64url>
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := pbkdf2.Key(
		[]byte(password),
		salt,
		int(c.Params.Iterations),
		int(c.Params.KeyLength),
		sha256.New,
	)

	b64 := base64.RawURLEncoding
	enc := fmt.Sprintf(
		"%d.%s.%s",
		c.Params.Iterations,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	)

	return enc, nil
}

// Verify checks whether password matches the given encoded hash.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
//
// Verification always recomputes the key with the *stored* iteration count,
// so hashes written under an older default keep verifying.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	iterations, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	// Anti-DoS boundary: refuse to verify attacker-controlled hash strings
	// that would cause pathological resource usage. The cap is absolute, not
	// relative to the configured default, so lowering the default never
	// strands previously written hashes.
	if !withinReasonableBounds(iterations, salt, expected) {
		return false, ErrInvalidHash
	}

	key := pbkdf2.Key(
		[]byte(password),
		salt,
		int(iterations),
		len(expected),
		sha256.New,
	)

	// Constant-time compare.
	if subtle.ConstantTimeCompare(key, expected) == 1 {
		return true, nil
	}
	return false, nil
}

// Validate applies the password policy without hashing.
func (c Config) Validate(password string) error {
	if len(password) < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if c.Policy.MaxLength > 0 && len(password) > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}
	if c.Policy.RejectVeryWeak && isVeryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

// decode parses the <iterations>.<salt>.<key> format strictly.
// Any malformed input yields ErrInvalidHash; verification then fails closed.
func decode(encodedHash string) (iterations uint32, salt, key []byte, err error) {
	parts := strings.Split(encodedHash, ".")
	if len(parts) != 3 {
		return 0, nil, nil, ErrInvalidHash
	}

	u64, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil || u64 == 0 {
		return 0, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawURLEncoding
	salt, err = b64.DecodeString(parts[1])
	if err != nil {
		return 0, nil, nil, ErrInvalidHash
	}
	key, err = b64.DecodeString(parts[2])
	if err != nil {
		return 0, nil, nil, ErrInvalidHash
	}

	return uint32(u64), salt, key, nil
}

// maxVerifyIterations matches the configuration ceiling: any stored count a
// past configuration could legitimately have written still verifies.
const maxVerifyIterations = 10_000_000

func withinReasonableBounds(iterations uint32, salt, key []byte) bool {
	if iterations > maxVerifyIterations {
		return false
	}
	if len(salt) < 8 || len(salt) > 64 {
		return false
	}
	if len(key) < 16 || len(key) > 64 {
		return false
	}
	return true
}

func isVeryWeak(password string) bool {
	lower := strings.ToLower(password)
	switch lower {
	case "password", "12345678", "123456789", "qwertyui":
		return true
	}
	// All-identical characters.
	same := true
	for i := 1; i < len(password); i++ {
		if password[i] != password[0] {
			same = false
			break
		}
	}
	return same && len(password) > 0
}
