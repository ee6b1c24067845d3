package resource

import (
	"context"
	"strings"
)

// GrantStore persists shared-access grants, one row per
// (resource_type, resource_id, grantee_user_id) triple.
type GrantStore interface {
	// HasGrant reports whether granteeID holds a grant on the resource.
	HasGrant(ctx context.Context, typ Type, resourceID, granteeID string) (bool, error)

	// Grant records a grant. Granting twice is a no-op.
	Grant(ctx context.Context, typ Type, resourceID, granteeID string) error

	// RevokeGrant removes a grant. Revoking a missing grant is a no-op.
	RevokeGrant(ctx context.Context, typ Type, resourceID, granteeID string) error

	// GrantedResourceIDs lists resource IDs of the given type shared with granteeID.
	GrantedResourceIDs(ctx context.Context, typ Type, granteeID string) ([]string, error)
}

// AccessControl evaluates who may do what to a resource.
//
// The owner always passes. Any grant confers full read/write. Owner-only
// operations (delete, share, unshare) never consult grants.
type AccessControl struct {
	grants GrantStore
}

// NewAccessControl constructs an AccessControl over the given grant store.
func NewAccessControl(grants GrantStore) *AccessControl {
	return &AccessControl{grants: grants}
}

// CanAccess reports whether userID may read or write the resource.
func (a *AccessControl) CanAccess(ctx context.Context, userID, ownerID string, typ Type, resourceID string) (bool, error) {
	if a == nil || a.grants == nil {
		return false, ErrInvalidInput
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}
	if userID == ownerID {
		return true, nil
	}
	return a.grants.HasGrant(ctx, typ, resourceID, userID)
}

// IsOwner reports whether userID owns the resource. Owner-only operations
// use this check alone; a grant never suffices.
func (a *AccessControl) IsOwner(userID, ownerID string) bool {
	return userID != "" && userID == ownerID
}
