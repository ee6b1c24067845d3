package resource

import "errors"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden is returned when the caller is neither the owner nor a
	// grantee (or, for owner-only operations, not the owner).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned for malformed resource data.
	ErrInvalidInput = errors.New("invalid input")
)
