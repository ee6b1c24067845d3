package authapi

import (
	"context"
	"time"

	"minder/cmd/identity"
	"minder/cmd/internal/auth/session"
)

// IdentityStore is the slice of identity persistence the auth API needs.
// *identity.PostgresStore satisfies it; tests substitute fakes.
type IdentityStore interface {
	CreateUser(ctx context.Context, in identity.CreateUserInput) (identity.User, error)
	GetUserByID(ctx context.Context, userID string) (identity.User, error)
	GetLoginByUsername(ctx context.Context, username string) (identity.LoginRecord, error)
	UpdatePassword(ctx context.Context, userID, newHash string, now time.Time) error
}

// SessionService is the slice of session operations the auth API needs.
// *session.Service satisfies it.
type SessionService interface {
	IssueCookie(ctx context.Context, now time.Time, userID string) (session.Issued, error)
	IssueBearer(ctx context.Context, now time.Time, userID string) (session.Issued, error)
	Validate(ctx context.Context, now time.Time, plainToken string) (session.Row, error)
	Revoke(ctx context.Context, now time.Time, plainToken string) error
	RevokeOthers(ctx context.Context, now time.Time, userID, currentSessionID string) error
}
