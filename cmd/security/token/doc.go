// Package token generates opaque session tokens and computes their storable digests.
//
// Raw tokens are high-entropy random strings, base64url-encoded without
// padding so they travel safely in cookies and Authorization headers. The
// server never persists a raw token: only a SHA-256 (or HMAC-SHA256) hex
// digest is stored, so a storage leak does not yield usable credentials.
package token
