package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (minder.sessions).
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var sessIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the session store (default "minder").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !sessIdentRe.MatchString(schema) {
			return fmt.Errorf("session: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore creates a Postgres-backed session store.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "minder"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("session: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) sessions() string {
	return pgx.Identifier{s.schema, "sessions"}.Sanitize()
}

// Create inserts a new session row.
func (s *PostgresStore) Create(ctx context.Context, row Row) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.sessions()+` (
			id, user_id, kind, token_hash,
			created_at, last_activity_at, expires_at,
			idle_timeout_seconds, revoked_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, NULL
		)
	`, row.ID, row.UserID, string(row.Kind), row.TokenHash,
		row.CreatedAt, row.LastActivityAt, row.ExpiresAt,
		row.IdleTimeoutSeconds)
	return err
}

// GetByTokenHash loads a session row by token digest.
func (s *PostgresStore) GetByTokenHash(ctx context.Context, tokenHash string) (Row, error) {
	var row Row
	var kind string

	err := s.pool.QueryRow(ctx, `
		SELECT
			id, user_id, kind, token_hash,
			created_at, last_activity_at, expires_at,
			idle_timeout_seconds, revoked_at
		FROM `+s.sessions()+`
		WHERE token_hash = $1
	`, tokenHash).Scan(
		&row.ID,
		&row.UserID,
		&kind,
		&row.TokenHash,
		&row.CreatedAt,
		&row.LastActivityAt,
		&row.ExpiresAt,
		&row.IdleTimeoutSeconds,
		&row.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Row{}, ErrSessionNotFound
	}
	if err != nil {
		return Row{}, err
	}

	row.Kind = Kind(kind)
	return row, nil
}

// Touch persists last activity for a session.
func (s *PostgresStore) Touch(ctx context.Context, now time.Time, sessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+s.sessions()+`
		SET last_activity_at = $2
		WHERE id = $1
	`, sessionID, now)
	return err
}

// RevokeByTokenHash revokes the matching session (idempotent).
func (s *PostgresStore) RevokeByTokenHash(ctx context.Context, now time.Time, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+s.sessions()+`
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE token_hash = $1
	`, tokenHash, now)
	return err
}

// RevokeAllForUser revokes all sessions for a user, optionally sparing one (idempotent).
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, now time.Time, userID, exceptSessionID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE `+s.sessions()+`
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE user_id = $1
		  AND ($3 = '' OR id <> $3)
	`, userID, now, exceptSessionID)
	return err
}
