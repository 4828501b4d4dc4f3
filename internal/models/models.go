// Package models defines the persisted data model shared by the vault
// engine and the storage backends.
package models

import "time"

// Account represents one vault owner.
type Account struct {
	// ID is an opaque unique identifier assigned by the store at
	// creation time. Immutable.
	ID string

	// Username is unique across all accounts (case-sensitive).
	Username string

	// Verifier is a salted one-way hash of the master password, used
	// only for login authentication. Never the password itself and
	// never the derived symmetric key.
	Verifier []byte

	CreatedAt time.Time
}

// SecretRecord is one stored site credential. The username and password
// fields hold opaque ciphertext blobs (see cryptox.Encrypt); they are
// decryptable only with the owning account's current session key.
type SecretRecord struct {
	// ID is assigned by the store, immutable, unique within the
	// owning account.
	ID string `json:"id"`

	Website           string `json:"website"`
	EncryptedUsername string `json:"encryptedUsername"`
	EncryptedPassword string `json:"encryptedPassword"`
	Notes             string `json:"notes"`

	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is bumped by the store on every mutation.
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecordFields carries the caller-supplied fields of a new record.
// ID and timestamps are assigned by the store.
type RecordFields struct {
	Website           string
	EncryptedUsername string
	EncryptedPassword string
	Notes             string
}

// RecordUpdate describes a partial update. Nil fields are left unchanged.
type RecordUpdate struct {
	Website           *string
	EncryptedUsername *string
	EncryptedPassword *string
	Notes             *string
}
