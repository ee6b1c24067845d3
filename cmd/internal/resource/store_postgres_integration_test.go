package resource

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are opt-in and require MINDER_DATABASE_URL.

func TestPostgresStore_NoteRoundTripAndListUnion(t *testing.T) {
	t.Parallel()

	pool := resMustOpenTestPool(t)
	defer pool.Close()

	schema := resMustCreateTestSchema(t, pool)
	t.Cleanup(func() { resMustDropSchema(t, pool, schema) })
	resMustApplySchema(t, pool, schema)

	st := resMustNewStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	owner := ulid.Make().String()
	grantee := ulid.Make().String()

	owned := Note{ID: ulid.Make().String(), OwnerUserID: grantee, Title: "mine", CreatedAt: now, UpdatedAt: now}
	shared := Note{ID: ulid.Make().String(), OwnerUserID: owner, Title: "shared", CreatedAt: now, UpdatedAt: now}
	private := Note{ID: ulid.Make().String(), OwnerUserID: owner, Title: "private", CreatedAt: now, UpdatedAt: now}
	for _, n := range []Note{owned, shared, private} {
		if err := st.CreateNote(ctx, n); err != nil {
			t.Fatalf("create note: %v", err)
		}
	}

	if err := st.Grant(ctx, TypeNote, shared.ID, grantee); err != nil {
		t.Fatalf("grant: %v", err)
	}

	granted, err := st.GrantedResourceIDs(ctx, TypeNote, grantee)
	if err != nil {
		t.Fatalf("granted ids: %v", err)
	}
	notes, err := st.ListNotesForUser(ctx, grantee, granted)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("list len = %d, want owned + granted", len(notes))
	}

	got, err := st.GetNote(ctx, shared.ID)
	if err != nil || got.Title != "shared" {
		t.Fatalf("get: %+v err=%v", got, err)
	}

	_, err = st.GetNote(ctx, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestPostgresStore_GrantIdempotentAndRevoke(t *testing.T) {
	t.Parallel()

	pool := resMustOpenTestPool(t)
	defer pool.Close()

	schema := resMustCreateTestSchema(t, pool)
	t.Cleanup(func() { resMustDropSchema(t, pool, schema) })
	resMustApplySchema(t, pool, schema)

	st := resMustNewStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resID := ulid.Make().String()
	grantee := ulid.Make().String()

	// Double grant hits the unique triple; both calls succeed.
	if err := st.Grant(ctx, TypeEvent, resID, grantee); err != nil {
		t.Fatalf("grant 1: %v", err)
	}
	if err := st.Grant(ctx, TypeEvent, resID, grantee); err != nil {
		t.Fatalf("grant 2: %v", err)
	}

	ok, err := st.HasGrant(ctx, TypeEvent, resID, grantee)
	if err != nil || !ok {
		t.Fatalf("has grant: ok=%v err=%v", ok, err)
	}
	// Type is part of the key.
	ok, _ = st.HasGrant(ctx, TypeNote, resID, grantee)
	if ok {
		t.Fatalf("grant leaked across types")
	}

	if err := st.RevokeGrant(ctx, TypeEvent, resID, grantee); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = st.HasGrant(ctx, TypeEvent, resID, grantee)
	if ok {
		t.Fatalf("grant survives revoke")
	}
	// Revoking a missing grant is a no-op.
	if err := st.RevokeGrant(ctx, TypeEvent, resID, grantee); err != nil {
		t.Fatalf("repeat revoke: %v", err)
	}
}

func TestPostgresStore_DeleteRemovesGrantsAtomically(t *testing.T) {
	t.Parallel()

	pool := resMustOpenTestPool(t)
	defer pool.Close()

	schema := resMustCreateTestSchema(t, pool)
	t.Cleanup(func() { resMustDropSchema(t, pool, schema) })
	resMustApplySchema(t, pool, schema)

	st := resMustNewStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Microsecond)
	owner := ulid.Make().String()
	grantee := ulid.Make().String()

	rm := Reminder{ID: ulid.Make().String(), OwnerUserID: owner, Title: "pay rent", DueAt: now.Add(24 * time.Hour), CreatedAt: now, UpdatedAt: now}
	if err := st.CreateReminder(ctx, rm); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Grant(ctx, TypeReminder, rm.ID, grantee); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := st.DeleteReminder(ctx, rm.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := st.GetReminder(ctx, rm.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	ok, _ := st.HasGrant(ctx, TypeReminder, rm.ID, grantee)
	if ok {
		t.Fatalf("grant survives resource delete")
	}

	// Deleting again reports not found.
	if err := st.DeleteReminder(ctx, rm.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("repeat delete: %v", err)
	}
}

// ---- helpers ----

func resMustNewStore(t *testing.T, pool *pgxpool.Pool, schema string) *PostgresStore {
	t.Helper()
	st, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return st
}

func resMustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("MINDER_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: MINDER_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse MINDER_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if resShouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (MINDER_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func resMustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "minder_it_" + strings.ToLower(ulid.Make().String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func resMustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

func resMustApplySchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	q := func(name string) string { return pgx.Identifier{schema, name}.Sanitize() }

	schemaSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  starts_at TIMESTAMPTZ NOT NULL,
  ends_at TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  due_at TIMESTAMPTZ NOT NULL,
  done BOOLEAN NOT NULL DEFAULT FALSE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  resource_type TEXT NOT NULL,
  resource_id TEXT NOT NULL,
  grantee_user_id TEXT NOT NULL,

  CONSTRAINT uq_shared_access_triple UNIQUE (resource_type, resource_id, grantee_user_id)
);
`, q("notes"), q("events"), q("reminders"), q("shared_access"))

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
}

func resShouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host") {
		return true
	}
	return false
}
