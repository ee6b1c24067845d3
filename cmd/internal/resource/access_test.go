package resource

import (
	"context"
	"testing"
)

func TestAccessControl_OwnerAlwaysPasses(t *testing.T) {
	st := newMemStore()
	ac := NewAccessControl(st)

	ok, err := ac.CanAccess(context.Background(), "u-owner", "u-owner", TypeNote, "n1")
	if err != nil || !ok {
		t.Fatalf("owner access: ok=%v err=%v", ok, err)
	}
}

func TestAccessControl_GrantRequiredForOthers(t *testing.T) {
	st := newMemStore()
	ac := NewAccessControl(st)
	ctx := context.Background()

	ok, err := ac.CanAccess(ctx, "u-bob", "u-owner", TypeNote, "n1")
	if err != nil || ok {
		t.Fatalf("ungranted access: ok=%v err=%v", ok, err)
	}

	if err := st.Grant(ctx, TypeNote, "n1", "u-bob"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	ok, err = ac.CanAccess(ctx, "u-bob", "u-owner", TypeNote, "n1")
	if err != nil || !ok {
		t.Fatalf("granted access: ok=%v err=%v", ok, err)
	}

	// A grant on one resource does not leak to another.
	ok, _ = ac.CanAccess(ctx, "u-bob", "u-owner", TypeNote, "n2")
	if ok {
		t.Fatalf("grant must be per resource")
	}
	// Nor across types with the same resource ID.
	ok, _ = ac.CanAccess(ctx, "u-bob", "u-owner", TypeEvent, "n1")
	if ok {
		t.Fatalf("grant must be per type")
	}
}

func TestAccessControl_IsOwner(t *testing.T) {
	ac := NewAccessControl(newMemStore())

	if !ac.IsOwner("u1", "u1") {
		t.Fatalf("owner check failed")
	}
	if ac.IsOwner("u2", "u1") || ac.IsOwner("", "") {
		t.Fatalf("non-owner or empty must not pass")
	}
}
