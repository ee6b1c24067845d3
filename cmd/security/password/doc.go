// Package password provides password hashing and verification utilities for Minder.
//
// It implements PBKDF2-SHA256 hashing using a compact encoded string format and includes:
// - Configurable iteration count and salt/key sizes (via environment variables)
// - Password policy validation
// - Strict hash decoding and verification with anti-DoS bounds
//
// Encoded format:
//
//	<iterations>.<salt_b64url>.<key_b64url>
//
// The iteration count is stored with every hash, so records written under an
// older default keep verifying after the default is raised.
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Verification refuses hashes with parameters that exceed reasonable bounds.
// - Comparison of derived keys is constant-time.
package password
