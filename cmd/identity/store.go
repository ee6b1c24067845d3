package identity

import (
	"context"
	"time"
)

// User is Minder's canonical security principal.
// Identity fields are immutable after creation; credential material changes
// only through UpdatePassword.
type User struct {
	ID           string
	Username     string
	UsernameNorm string
	Email        *string
	EmailNorm    *string

	DisplayName *string

	CreatedAt time.Time
}

// LoginRecord pairs a user with its stored credential material for
// login-time verification. The hash never leaves the auth layer.
type LoginRecord struct {
	User         User
	PasswordHash string
}

// CreateUserInput describes a user registration request.
// Username and Password are required; Email is optional (API variant).
type CreateUserInput struct {
	Username    string
	Email       *string
	DisplayName *string
	Password    string
	Now         time.Time
}

// Store is the principal persistence boundary.
type Store interface {
	// CreateUser creates a user and its credential row transactionally.
	// Duplicate usernames/emails surface as ConflictError.
	CreateUser(ctx context.Context, in CreateUserInput) (User, error)

	// GetUserByID loads a user by ULID.
	GetUserByID(ctx context.Context, userID string) (User, error)

	// GetLoginByUsername loads a user plus stored password hash for login.
	GetLoginByUsername(ctx context.Context, username string) (LoginRecord, error)

	// UpdatePassword replaces the stored credential material.
	// The new hash is produced by the caller (HashPassword); identity fields
	// are untouched.
	UpdatePassword(ctx context.Context, userID, newHash string, now time.Time) error

	// UserIDsByUsernames resolves usernames to stable IDs.
	// Unknown usernames are silently skipped; order is not guaranteed.
	UserIDsByUsernames(ctx context.Context, usernames []string) ([]string, error)
}
