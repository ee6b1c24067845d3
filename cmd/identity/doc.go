// Package identity implements Minder's principal (user) foundation.
//
// It contains the user + credential data model, registration and lookup over
// PostgreSQL, and thin wrappers around the security primitives (ULID,
// password hashing) used by the HTTP layers.
//
// This package is intentionally dependency-light and security-first.
package identity
