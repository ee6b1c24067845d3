package token

import "errors"

var (
	// ErrHMACKeyMissing indicates enforced-HMAC mode without a configured key.
	ErrHMACKeyMissing = errors.New("token hmac key missing")

	// ErrHMACKeyTooShort indicates a configured key below the minimum length.
	ErrHMACKeyTooShort = errors.New("token hmac key too short")
)
