// Package engine implements the credential vault core: account
// authentication, transparent encryption and decryption of stored
// records, and the master-password rotation protocol. The engine holds
// at most one authenticated session per instance; the session key lives
// only in memory and is wiped on logout.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/cryptox"
	"github.com/mkaminskis/passvault/internal/logging"
	"github.com/mkaminskis/passvault/internal/models"
	"github.com/mkaminskis/passvault/internal/store"
)

// session is the LoggedIn state: the authenticated account and the
// symmetric key derived from the master password at login.
type session struct {
	accountID string
	username  string
	key       []byte
}

// Engine orchestrates the vault over an abstract CredentialStore.
// Operations are sequential; the engine is not meant to be shared
// across goroutines.
type Engine struct {
	store  store.CredentialStore
	logger logging.Logger
	sess   *session
}

// New builds an Engine over an already-constructed store.
func New(s store.CredentialStore, logger logging.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// IsLoggedIn reports whether an authenticated session is active.
func (e *Engine) IsLoggedIn() bool {
	return e.sess != nil
}

// CurrentUsername returns the logged-in username, or "" when logged out.
func (e *Engine) CurrentUsername() string {
	if e.sess == nil {
		return ""
	}
	return e.sess.username
}

func (e *Engine) requireSession() (*session, error) {
	if e.sess == nil {
		return nil, common.ErrNotLoggedIn
	}
	return e.sess, nil
}

// Register persists a new empty account. The master password itself is
// never stored: only its verifier hash. Registration does not log the
// user in. Fails with common.ErrDuplicateUsername if the name is taken.
func (e *Engine) Register(ctx context.Context, username, masterPassword string) error {
	verifier, err := cryptox.HashForVerification(masterPassword)
	if err != nil {
		return err
	}

	id, err := e.store.CreateAccount(ctx, username, verifier)
	if err != nil {
		return err
	}

	e.logger.Info(ctx, "account registered", "username", username, "account_id", id)
	return nil
}

// Login authenticates and derives the session key. Unknown usernames
// and wrong passwords both fail with common.ErrInvalidCredentials, so
// the error reveals nothing about which usernames exist. Store outages
// surface as common.ErrStoreUnavailable.
func (e *Engine) Login(ctx context.Context, username, masterPassword string) error {
	account, err := e.store.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrAccountNotFound) {
			return common.ErrInvalidCredentials
		}
		return err
	}

	if !cryptox.VerifyMasterPassword(masterPassword, account.Verifier) {
		return common.ErrInvalidCredentials
	}

	e.sess = &session{
		accountID: account.ID,
		username:  account.Username,
		key:       cryptox.DeriveKey(masterPassword),
	}
	e.logger.Info(ctx, "login", "username", username)
	return nil
}

// Logout wipes the session key from memory and returns to LoggedOut.
// Safe to call when already logged out.
func (e *Engine) Logout() {
	if e.sess == nil {
		return
	}
	common.WipeByteArray(e.sess.key)
	e.sess = nil
}

// AddRecord encrypts the site username and password under the session
// key and persists a new record. Website is required; notes optional.
func (e *Engine) AddRecord(ctx context.Context, website, username, password, notes string) (*models.SecretRecord, error) {
	sess, err := e.requireSession()
	if err != nil {
		return nil, err
	}

	encUsername, err := cryptox.Encrypt(username, sess.key)
	if err != nil {
		return nil, fmt.Errorf("encrypting username: %w", err)
	}
	encPassword, err := cryptox.Encrypt(password, sess.key)
	if err != nil {
		return nil, fmt.Errorf("encrypting password: %w", err)
	}

	return e.store.AddRecord(ctx, sess.accountID, models.RecordFields{
		Website:           website,
		EncryptedUsername: encUsername,
		EncryptedPassword: encPassword,
		Notes:             notes,
	})
}

// ListRecords returns the session's records with ciphertext fields.
// Nothing is decrypted here: plaintext is produced only on demand via
// DecryptField.
func (e *Engine) ListRecords(ctx context.Context) ([]models.SecretRecord, error) {
	sess, err := e.requireSession()
	if err != nil {
		return nil, err
	}
	return e.store.ListRecords(ctx, sess.accountID)
}

// GetRecord returns one record with ciphertext fields.
func (e *Engine) GetRecord(ctx context.Context, recordID string) (*models.SecretRecord, error) {
	sess, err := e.requireSession()
	if err != nil {
		return nil, err
	}
	return e.store.GetRecord(ctx, sess.accountID, recordID)
}

// DecryptField decrypts a single ciphertext blob with the session key.
// For records owned by the active session a failure should not happen,
// but a mismatched or corrupted blob surfaces common.ErrDecryption.
func (e *Engine) DecryptField(blob string) (string, error) {
	sess, err := e.requireSession()
	if err != nil {
		return "", err
	}
	return cryptox.Decrypt(blob, sess.key)
}

// RecordChanges describes a partial record update in plaintext terms.
// Nil fields are left unchanged; Username and Password are re-encrypted
// under the session key before they reach the store.
type RecordChanges struct {
	Website  *string
	Username *string
	Password *string
	Notes    *string
}

// UpdateRecord applies changes to a record, re-encrypting only the
// secret fields that actually changed. The store bumps UpdatedAt.
func (e *Engine) UpdateRecord(ctx context.Context, recordID string, changes RecordChanges) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}

	upd := models.RecordUpdate{
		Website: changes.Website,
		Notes:   changes.Notes,
	}
	if changes.Username != nil {
		enc, err := cryptox.Encrypt(*changes.Username, sess.key)
		if err != nil {
			return fmt.Errorf("encrypting username: %w", err)
		}
		upd.EncryptedUsername = &enc
	}
	if changes.Password != nil {
		enc, err := cryptox.Encrypt(*changes.Password, sess.key)
		if err != nil {
			return fmt.Errorf("encrypting password: %w", err)
		}
		upd.EncryptedPassword = &enc
	}

	return e.store.UpdateRecord(ctx, sess.accountID, recordID, upd)
}

// DeleteRecord removes a record; deleting an absent record is a no-op.
func (e *Engine) DeleteRecord(ctx context.Context, recordID string) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}
	return e.store.DeleteRecord(ctx, sess.accountID, recordID)
}

// DeleteAccount removes the account and logs out. It refuses with
// common.ErrAccountNotEmpty while records remain: the caller must
// delete them one by one first, which prevents accidental bulk loss.
// The guard lives here, independent of store cascade behavior.
func (e *Engine) DeleteAccount(ctx context.Context) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}

	records, err := e.store.ListRecords(ctx, sess.accountID)
	if err != nil {
		return err
	}
	if len(records) > 0 {
		return common.ErrAccountNotEmpty
	}

	if err := e.store.DeleteAccount(ctx, sess.accountID); err != nil {
		return err
	}

	e.logger.Info(ctx, "account deleted", "username", sess.username)
	e.Logout()
	return nil
}

// RotateMasterPassword re-encrypts every stored secret under a key
// derived from newMasterPassword and swaps the login verifier, as one
// all-or-nothing operation:
//
//  1. Derive the new verifier and the new session key.
//  2. Decrypt and re-encrypt every record in memory. A failure on any
//     record aborts here, with the store untouched.
//  3. Commit verifier and records through a single atomic
//     store.ReplaceAccount.
//
// On success the session ends: the user logs back in with the new
// master password. On any failure the old password and all original
// records remain intact.
func (e *Engine) RotateMasterPassword(ctx context.Context, newMasterPassword string) error {
	sess, err := e.requireSession()
	if err != nil {
		return err
	}

	newVerifier, err := cryptox.HashForVerification(newMasterPassword)
	if err != nil {
		return err
	}
	newKey := cryptox.DeriveKey(newMasterPassword)
	defer common.WipeByteArray(newKey)

	records, err := e.store.ListRecords(ctx, sess.accountID)
	if err != nil {
		return err
	}

	rotated := make([]models.SecretRecord, 0, len(records))
	now := time.Now().UTC()
	for _, rec := range records {
		username, err := cryptox.Decrypt(rec.EncryptedUsername, sess.key)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		password, err := cryptox.Decrypt(rec.EncryptedPassword, sess.key)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}

		rec.EncryptedUsername, err = cryptox.Encrypt(username, newKey)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.EncryptedPassword, err = cryptox.Encrypt(password, newKey)
		if err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		rec.UpdatedAt = now
		rotated = append(rotated, rec)
	}

	if err := e.store.ReplaceAccount(ctx, sess.accountID, newVerifier, rotated); err != nil {
		return err
	}

	e.logger.Info(ctx, "master password rotated", "username", sess.username, "records", len(rotated))
	e.Logout()
	return nil
}
