package session

import (
	"context"
	"time"
)

// Kind distinguishes the two session families and their expiry policies.
type Kind string

const (
	// KindCookie is a browser session with a sliding idle window.
	KindCookie Kind = "cookie"
	// KindBearer is an API session with a fixed absolute expiry.
	KindBearer Kind = "bearer"
)

// Row mirrors the minder.sessions row used by the session subsystem.
type Row struct {
	ID        string
	UserID    string
	Kind      Kind
	TokenHash string

	CreatedAt      time.Time
	LastActivityAt time.Time

	// ExpiresAt is set for bearer sessions only; cookie sessions expire
	// from LastActivityAt plus IdleTimeoutSeconds.
	ExpiresAt          *time.Time
	IdleTimeoutSeconds int

	RevokedAt *time.Time
}

// Store abstracts persistence for session state.
//
// Revocation must be idempotent: revoking an already-revoked or unknown
// session is not an error, and the original revocation instant is preserved.
type Store interface {
	// Create inserts a new session row.
	Create(ctx context.Context, row Row) error

	// GetByTokenHash loads a session row by token digest.
	GetByTokenHash(ctx context.Context, tokenHash string) (Row, error)

	// Touch persists last activity for a session. Expired or revoked rows
	// may still be touched; callers decide when a touch is warranted.
	Touch(ctx context.Context, now time.Time, sessionID string) error

	// RevokeByTokenHash revokes the session matching the digest, if any.
	RevokeByTokenHash(ctx context.Context, now time.Time, tokenHash string) error

	// RevokeAllForUser revokes every session of a user except the one
	// identified by exceptSessionID (pass "" to revoke all).
	RevokeAllForUser(ctx context.Context, now time.Time, userID, exceptSessionID string) error
}
