// Package common defines shared constants and sentinel errors used across
// the vault engine, storage backends and the CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Domain errors: expected outcomes, reported to the caller for retry.
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountNotEmpty    = errors.New("account still has stored records")

	// Consistency errors: should not surface for a well-behaved caller
	// holding a valid session, but must be handled.
	ErrAccountNotFound = errors.New("account not found")
	ErrRecordNotFound  = errors.New("record not found")

	// Engine state errors.
	ErrNotLoggedIn = errors.New("not logged in")

	// Exceptional errors: abort any in-progress multi-step operation
	// without committing partial state.
	ErrDecryption       = errors.New("decryption failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)
