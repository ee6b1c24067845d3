package resource

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// PostgresStore implements Store and GrantStore over PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var resIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the resource store (default "minder").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !resIdentRe.MatchString(schema) {
			return fmt.Errorf("resource: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore creates a Postgres-backed resource store.
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
		return nil, fmt.Errorf("resource: nil pool")
	}
	return st, nil
}

func (s *PostgresStore) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

// ---- notes ----

func (s *PostgresStore) CreateNote(ctx context.Context, n Note) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table("notes")+` (id, owner_user_id, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.OwnerUserID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	return err
}

func (s *PostgresStore) GetNote(ctx context.Context, id string) (Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_user_id, title, content, created_at, updated_at
		FROM `+s.table("notes")+`
		WHERE id = $1
	`, id).Scan(&n.ID, &n.OwnerUserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}
	return n, nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, n Note) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table("notes")+`
		SET title = $2, content = $3, updated_at = $4
		WHERE id = $1
	`, n.ID, n.Title, n.Content, n.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, id string) error {
	return s.deleteWithGrants(ctx, TypeNote, "notes", id)
}

func (s *PostgresStore) ListNotesForUser(ctx context.Context, userID string, grantedIDs []string) ([]Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_user_id, title, content, created_at, updated_at
		FROM `+s.table("notes")+`
		WHERE owner_user_id = $1 OR id = ANY($2)
		ORDER BY created_at DESC
	`, userID, emptyIfNil(grantedIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OwnerUserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ---- events ----

func (s *PostgresStore) CreateEvent(ctx context.Context, e Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table("events")+` (id, owner_user_id, title, location, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.OwnerUserID, e.Title, e.Location, e.StartsAt, e.EndsAt, e.CreatedAt, e.UpdatedAt)
	return err
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (Event, error) {
	var e Event
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_user_id, title, location, starts_at, ends_at, created_at, updated_at
		FROM `+s.table("events")+`
		WHERE id = $1
	`, id).Scan(&e.ID, &e.OwnerUserID, &e.Title, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

func (s *PostgresStore) UpdateEvent(ctx context.Context, e Event) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table("events")+`
		SET title = $2, location = $3, starts_at = $4, ends_at = $5, updated_at = $6
		WHERE id = $1
	`, e.ID, e.Title, e.Location, e.StartsAt, e.EndsAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	return s.deleteWithGrants(ctx, TypeEvent, "events", id)
}

func (s *PostgresStore) ListEventsForUser(ctx context.Context, userID string, grantedIDs []string) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_user_id, title, location, starts_at, ends_at, created_at, updated_at
		FROM `+s.table("events")+`
		WHERE owner_user_id = $1 OR id = ANY($2)
		ORDER BY starts_at ASC
	`, userID, emptyIfNil(grantedIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.OwnerUserID, &e.Title, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- reminders ----

func (s *PostgresStore) CreateReminder(ctx context.Context, rm Reminder) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table("reminders")+` (id, owner_user_id, title, due_at, done, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rm.ID, rm.OwnerUserID, rm.Title, rm.DueAt, rm.Done, rm.CreatedAt, rm.UpdatedAt)
	return err
}

func (s *PostgresStore) GetReminder(ctx context.Context, id string) (Reminder, error) {
	var rm Reminder
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner_user_id, title, due_at, done, created_at, updated_at
		FROM `+s.table("reminders")+`
		WHERE id = $1
	`, id).Scan(&rm.ID, &rm.OwnerUserID, &rm.Title, &rm.DueAt, &rm.Done, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reminder{}, ErrNotFound
	}
	if err != nil {
		return Reminder{}, err
	}
	return rm, nil
}

func (s *PostgresStore) UpdateReminder(ctx context.Context, rm Reminder) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE `+s.table("reminders")+`
		SET title = $2, due_at = $3, done = $4, updated_at = $5
		WHERE id = $1
	`, rm.ID, rm.Title, rm.DueAt, rm.Done, rm.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteReminder(ctx context.Context, id string) error {
	return s.deleteWithGrants(ctx, TypeReminder, "reminders", id)
}

func (s *PostgresStore) ListRemindersForUser(ctx context.Context, userID string, grantedIDs []string) ([]Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_user_id, title, due_at, done, created_at, updated_at
		FROM `+s.table("reminders")+`
		WHERE owner_user_id = $1 OR id = ANY($2)
		ORDER BY due_at ASC
	`, userID, emptyIfNil(grantedIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var rm Reminder
		if err := rows.Scan(&rm.ID, &rm.OwnerUserID, &rm.Title, &rm.DueAt, &rm.Done, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// ---- grants ----

func (s *PostgresStore) HasGrant(ctx context.Context, typ Type, resourceID, granteeID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM `+s.table("shared_access")+`
		WHERE resource_type = $1 AND resource_id = $2 AND grantee_user_id = $3
	`, string(typ), resourceID, granteeID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Grant inserts a grant row; the unique triple index absorbs duplicates.
func (s *PostgresStore) Grant(ctx context.Context, typ Type, resourceID, granteeID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO `+s.table("shared_access")+` (id, resource_type, resource_id, grantee_user_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (resource_type, resource_id, grantee_user_id) DO NOTHING
	`, newGrantID(), string(typ), resourceID, granteeID)
	return err
}

func (s *PostgresStore) RevokeGrant(ctx context.Context, typ Type, resourceID, granteeID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM `+s.table("shared_access")+`
		WHERE resource_type = $1 AND resource_id = $2 AND grantee_user_id = $3
	`, string(typ), resourceID, granteeID)
	return err
}

func (s *PostgresStore) GrantedResourceIDs(ctx context.Context, typ Type, granteeID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT resource_id FROM `+s.table("shared_access")+`
		WHERE resource_type = $1 AND grantee_user_id = $2
	`, string(typ), granteeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// deleteWithGrants removes the resource row and its grants in one transaction.
func (s *PostgresStore) deleteWithGrants(ctx context.Context, typ Type, table, id string) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		DELETE FROM `+s.table("shared_access")+`
		WHERE resource_type = $1 AND resource_id = $2
	`, string(typ), id)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM `+s.table(table)+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

func newGrantID() string {
	return ulid.Make().String()
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
