package session

import (
	"context"
	"strings"
	"time"

	"minder/cmd/identity/ids"
	"minder/cmd/security/token"
)

// Service implements the high-level session operations for Minder.
//
// It issues cookie and bearer sessions, validates tokens against the
// server-authoritative store, coalesces activity writes, and supports
// per-session and per-user revocation.
type Service struct {
	cfg   Config
	store Store
}

// Issued is the result of issuing a session.
//
// Token is the opaque plaintext handed to the client; it is never persisted.
type Issued struct {
	SessionID string
	Token     string
	Kind      Kind

	// ExpiresAt is set for bearer sessions only.
	ExpiresAt *time.Time
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// IssueCookie creates a sliding-window cookie session and returns the token.
func (s *Service) IssueCookie(ctx context.Context, now time.Time, userID string) (Issued, error) {
	plain, hash, err := newOpaqueToken(s.cfg.CookieTokenBytes)
	if err != nil {
		return Issued{}, err
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Issued{}, err
	}

	row := Row{
		ID:                 id,
		UserID:             userID,
		Kind:               KindCookie,
		TokenHash:          hash,
		CreatedAt:          now,
		LastActivityAt:     now,
		IdleTimeoutSeconds: int(s.cfg.IdleTimeout / time.Second),
	}
	if err := s.store.Create(ctx, row); err != nil {
		return Issued{}, err
	}

	return Issued{SessionID: id, Token: plain, Kind: KindCookie}, nil
}

// IssueBearer creates a fixed-expiry bearer session and returns the token.
func (s *Service) IssueBearer(ctx context.Context, now time.Time, userID string) (Issued, error) {
	plain, hash, err := newOpaqueToken(s.cfg.BearerTokenBytes)
	if err != nil {
		return Issued{}, err
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Issued{}, err
	}

	exp := now.Add(s.cfg.BearerTTL)
	row := Row{
		ID:             id,
		UserID:         userID,
		Kind:           KindBearer,
		TokenHash:      hash,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      &exp,
	}
	if err := s.store.Create(ctx, row); err != nil {
		return Issued{}, err
	}

	return Issued{SessionID: id, Token: plain, Kind: KindBearer, ExpiresAt: &exp}, nil
}

// Validate resolves a plaintext token to an active session.
//
// Expiry is evaluated per kind and never mutates the row; an expired session
// simply stops validating. For cookie sessions, activity is persisted only
// when the stored last activity is at least TouchInterval old, so the
// observable idle expiry lands in [IdleTimeout, IdleTimeout+TouchInterval).
func (s *Service) Validate(ctx context.Context, now time.Time, plainToken string) (Row, error) {
	plainToken = strings.TrimSpace(plainToken)
	// Basic sanity bounds to avoid pathological inputs.
	if plainToken == "" || len(plainToken) > 4096 {
		return Row{}, ErrSessionNotFound
	}

	row, err := s.store.GetByTokenHash(ctx, token.HashSessionTokenHex(plainToken))
	if err != nil {
		return Row{}, err
	}

	if row.RevokedAt != nil {
		return Row{}, ErrSessionRevoked
	}

	switch row.Kind {
	case KindBearer:
		if row.ExpiresAt == nil || !row.ExpiresAt.After(now) {
			return Row{}, ErrSessionExpired
		}
	case KindCookie:
		idle := time.Duration(row.IdleTimeoutSeconds) * time.Second
		if idle <= 0 {
			idle = s.cfg.IdleTimeout
		}
		if !row.LastActivityAt.Add(idle).After(now) {
			return Row{}, ErrSessionExpired
		}
		if now.Sub(row.LastActivityAt) >= s.cfg.TouchInterval {
			// Lost updates under concurrent requests are benign: some
			// other request persisted a comparable activity instant.
			if err := s.store.Touch(ctx, now, row.ID); err != nil {
				return Row{}, err
			}
			row.LastActivityAt = now
		}
	default:
		return Row{}, ErrSessionNotFound
	}

	return row, nil
}

// Revoke revokes the session matching the plaintext token.
//
// Revocation is idempotent: unknown and already-revoked tokens succeed, and
// the original revocation instant is preserved.
func (s *Service) Revoke(ctx context.Context, now time.Time, plainToken string) error {
	plainToken = strings.TrimSpace(plainToken)
	if plainToken == "" || len(plainToken) > 4096 {
		return nil
	}
	return s.store.RevokeByTokenHash(ctx, now, token.HashSessionTokenHex(plainToken))
}

// RevokeOthers revokes every session of a user except the current one
// (e.g., after a password change).
func (s *Service) RevokeOthers(ctx context.Context, now time.Time, userID, currentSessionID string) error {
	return s.store.RevokeAllForUser(ctx, now, userID, currentSessionID)
}

// RevokeAll revokes all sessions for a user (e.g., logout everywhere).
func (s *Service) RevokeAll(ctx context.Context, now time.Time, userID string) error {
	return s.store.RevokeAllForUser(ctx, now, userID, "")
}

// newOpaqueToken generates an opaque random token and its storage digest.
// The plaintext goes to the client; only the digest is persisted.
func newOpaqueToken(nBytes int) (plain, hash string, err error) {
	plain, err = token.New(nBytes)
	if err != nil {
		return "", "", err
	}
	return plain, token.HashSessionTokenHex(plain), nil
}
