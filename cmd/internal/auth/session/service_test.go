package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"minder/cmd/security/token"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	byHash map[string]*Row
	byID   map[string]*Row

	touches int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byHash: map[string]*Row{},
		byID:   map[string]*Row{},
	}
}

func (f *fakeStore) Create(_ context.Context, row Row) error {
	r := row
	f.byHash[r.TokenHash] = &r
	f.byID[r.ID] = &r
	return nil
}

func (f *fakeStore) GetByTokenHash(_ context.Context, tokenHash string) (Row, error) {
	r, ok := f.byHash[tokenHash]
	if !ok {
		return Row{}, ErrSessionNotFound
	}
	return *r, nil
}

func (f *fakeStore) Touch(_ context.Context, now time.Time, sessionID string) error {
	if r, ok := f.byID[sessionID]; ok {
		r.LastActivityAt = now
		f.touches++
	}
	return nil
}

func (f *fakeStore) RevokeByTokenHash(_ context.Context, now time.Time, tokenHash string) error {
	if r, ok := f.byHash[tokenHash]; ok && r.RevokedAt == nil {
		t := now
		r.RevokedAt = &t
	}
	return nil
}

func (f *fakeStore) RevokeAllForUser(_ context.Context, now time.Time, userID, exceptSessionID string) error {
	for _, r := range f.byID {
		if r.UserID != userID || r.ID == exceptSessionID {
			continue
		}
		if r.RevokedAt == nil {
			t := now
			r.RevokedAt = &t
		}
	}
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	// Pin digest mode to plain SHA-256 for deterministic fakes.
	t.Setenv(token.HMACEnvKey, "")

	st := newFakeStore()
	return NewService(DefaultConfig(), st), st
}

func TestIssueCookie_ValidWithinIdleWindow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueCookie(ctx, t0, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if iss.Kind != KindCookie || iss.ExpiresAt != nil {
		t.Fatalf("cookie sessions must have no absolute expiry")
	}

	row, err := svc.Validate(ctx, t0.Add(4*time.Minute), iss.Token)
	if err != nil {
		t.Fatalf("validate at 4m: %v", err)
	}
	if row.UserID != "user-1" {
		t.Fatalf("user mismatch")
	}
}

func TestValidateCookie_ExpiresAfterIdleWindow(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueCookie(ctx, t0, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Validate(ctx, t0.Add(5*time.Minute), iss.Token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want expired at exactly 5m idle, got %v", err)
	}

	// Expiry is a read-side decision; the row is neither deleted nor revoked.
	row, ok := st.byHash[token.HashSessionTokenHex(iss.Token)]
	if !ok || row.RevokedAt != nil {
		t.Fatalf("expired session must remain untouched in the store")
	}
}

func TestValidateCookie_TouchCoalescing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueCookie(ctx, t0, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Under a minute since the stored activity: no write.
	if _, err := svc.Validate(ctx, t0.Add(30*time.Second), iss.Token); err != nil {
		t.Fatalf("validate at 30s: %v", err)
	}
	if st.touches != 0 {
		t.Fatalf("expected no touch within the coalescing interval, got %d", st.touches)
	}

	// At the interval boundary the write happens.
	if _, err := svc.Validate(ctx, t0.Add(61*time.Second), iss.Token); err != nil {
		t.Fatalf("validate at 61s: %v", err)
	}
	if st.touches != 1 {
		t.Fatalf("expected one touch past the coalescing interval, got %d", st.touches)
	}

	// The session now slides from the touched instant.
	if _, err := svc.Validate(ctx, t0.Add(61*time.Second).Add(4*time.Minute), iss.Token); err != nil {
		t.Fatalf("validate after slide: %v", err)
	}
}

func TestValidateCookie_CoalescedActivityCanShortenObservedWindow(t *testing.T) {
	// A request 59s after the stored activity does not persist, so the idle
	// clock keeps running from the stored instant. The session can therefore
	// expire up to a minute earlier than the last real request suggests.
	svc, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueCookie(ctx, t0, "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Validate(ctx, t0.Add(59*time.Second), iss.Token); err != nil {
		t.Fatalf("validate at 59s: %v", err)
	}

	_, err = svc.Validate(ctx, t0.Add(5*time.Minute), iss.Token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want expired (stored activity is still t0), got %v", err)
	}
}

func TestIssueBearer_FixedExpiry(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueBearer(ctx, t0, "user-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if iss.Kind != KindBearer || iss.ExpiresAt == nil {
		t.Fatalf("bearer sessions must carry an absolute expiry")
	}
	if !iss.ExpiresAt.Equal(t0.Add(60 * time.Minute)) {
		t.Fatalf("bearer expiry = %v, want t0+60m", iss.ExpiresAt)
	}

	if _, err := svc.Validate(ctx, t0.Add(59*time.Minute), iss.Token); err != nil {
		t.Fatalf("validate at 59m: %v", err)
	}

	// Activity never extends a bearer session.
	_, err = svc.Validate(ctx, t0.Add(60*time.Minute), iss.Token)
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("want expired at 60m, got %v", err)
	}
}

func TestValidate_RevokedAndUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueBearer(ctx, t0, "user-3")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(ctx, t0.Add(time.Minute), iss.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	_, err = svc.Validate(ctx, t0.Add(2*time.Minute), iss.Token)
	if !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("want revoked, got %v", err)
	}

	_, err = svc.Validate(ctx, t0, "no-such-token")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestRevoke_IdempotentAndUnknownTokenSucceeds(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	iss, err := svc.IssueCookie(ctx, t0, "user-4")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := svc.Revoke(ctx, t0.Add(time.Minute), iss.Token); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := svc.Revoke(ctx, t0.Add(2*time.Minute), iss.Token); err != nil {
		t.Fatalf("second revoke: %v", err)
	}

	row := st.byHash[token.HashSessionTokenHex(iss.Token)]
	if row.RevokedAt == nil || !row.RevokedAt.Equal(t0.Add(time.Minute)) {
		t.Fatalf("original revocation instant must be preserved, got %v", row.RevokedAt)
	}

	// Unknown token is a no-op success.
	if err := svc.Revoke(ctx, t0, "ghost-token"); err != nil {
		t.Fatalf("revoke unknown: %v", err)
	}
}

func TestRevokeOthers_SparesCurrentSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	current, err := svc.IssueCookie(ctx, t0, "user-5")
	if err != nil {
		t.Fatalf("issue current: %v", err)
	}
	other, err := svc.IssueBearer(ctx, t0, "user-5")
	if err != nil {
		t.Fatalf("issue other: %v", err)
	}
	foreign, err := svc.IssueCookie(ctx, t0, "user-6")
	if err != nil {
		t.Fatalf("issue foreign: %v", err)
	}

	if err := svc.RevokeOthers(ctx, t0.Add(time.Minute), "user-5", current.SessionID); err != nil {
		t.Fatalf("revoke others: %v", err)
	}

	if _, err := svc.Validate(ctx, t0.Add(2*time.Minute), current.Token); err != nil {
		t.Fatalf("current session must survive: %v", err)
	}
	if _, err := svc.Validate(ctx, t0.Add(2*time.Minute), other.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("other session must be revoked, got %v", err)
	}
	if _, err := svc.Validate(ctx, t0.Add(2*time.Minute), foreign.Token); err != nil {
		t.Fatalf("other users are unaffected: %v", err)
	}
}
