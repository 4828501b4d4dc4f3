// Package store defines the persistence contract consumed by the vault
// engine. Concrete backends (in-memory, SQLite file, PostgreSQL, S3
// object storage) live in subpackages and must honor the contract
// identically.
package store

import (
	"context"

	"github.com/mkaminskis/passvault/internal/models"
)

// CredentialStore abstracts persistence of accounts and their secret
// records. All operations are atomic with respect to a single account's
// record collection: a reader never observes a half-written record.
// Cross-account transactions are not required.
//
// Backend I/O failures are wrapped as common.ErrStoreUnavailable so
// callers can tell retryable infrastructure errors from domain errors.
type CredentialStore interface {
	// CreateAccount persists a new empty account and returns its id.
	// Fails with common.ErrDuplicateUsername if the username is taken.
	CreateAccount(ctx context.Context, username string, verifier []byte) (string, error)

	// FindAccountByUsername fails with common.ErrAccountNotFound when absent.
	FindAccountByUsername(ctx context.Context, username string) (*models.Account, error)

	// FindAccountByID fails with common.ErrAccountNotFound when absent.
	FindAccountByID(ctx context.Context, id string) (*models.Account, error)

	// AddRecord persists a new record under the account; the store
	// assigns the id and timestamps.
	AddRecord(ctx context.Context, accountID string, fields models.RecordFields) (*models.SecretRecord, error)

	// ListRecords returns the account's records. Order is not significant.
	ListRecords(ctx context.Context, accountID string) ([]models.SecretRecord, error)

	// GetRecord fails with common.ErrRecordNotFound when absent.
	GetRecord(ctx context.Context, accountID, recordID string) (*models.SecretRecord, error)

	// UpdateRecord applies the non-nil fields of upd and bumps
	// UpdatedAt. Fails with common.ErrRecordNotFound when absent.
	UpdateRecord(ctx context.Context, accountID, recordID string, upd models.RecordUpdate) error

	// DeleteRecord removes a record. Idempotent: deleting an absent
	// record is a no-op.
	DeleteRecord(ctx context.Context, accountID, recordID string) error

	// DeleteAccount removes the account and cascades to all owned records.
	DeleteAccount(ctx context.Context, accountID string) error

	// ReplaceAccount atomically swaps the account's verifier and its
	// entire record set. This is the commit step of master-password
	// rotation: either the account ends up fully re-encrypted under
	// the new key, or it is left untouched.
	ReplaceAccount(ctx context.Context, accountID string, verifier []byte, records []models.SecretRecord) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
