// Package sqlite implements store.CredentialStore over a single SQLite
// database file (pure-Go driver, no cgo). This is the embedded-file
// backend: the whole vault lives in one file on disk.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/dbx"
	"github.com/mkaminskis/passvault/internal/models"
	"github.com/mkaminskis/passvault/internal/store/sqlite/migrations"
)

// Store is a SQLite-backed CredentialStore.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and applies schema
// migrations. Use ":memory:" for a throwaway in-process database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	// A single connection keeps per-account operations serialized and
	// avoids SQLITE_BUSY on concurrent writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// wrap converts driver-level failures into ErrStoreUnavailable so the
// engine can tell infrastructure errors from domain errors.
func wrap(err error) error {
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) CreateAccount(ctx context.Context, username string, verifier []byte) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO accounts (id, username, verifier, created_at) VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, id, username, verifier, time.Now().UTC().UnixNano()); err != nil {
		if isUniqueViolation(err) {
			return "", common.ErrDuplicateUsername
		}
		return "", wrap(err)
	}
	return id, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	var createdAt int64
	if err := row.Scan(&a.ID, &a.Username, &a.Verifier, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, wrap(err)
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	return &a, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT id, username, verifier, created_at FROM accounts WHERE username = ?`
	return scanAccount(s.db.QueryRowContext(ctx, query, username))
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, username, verifier, created_at FROM accounts WHERE id = ?`
	return scanAccount(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) accountExists(ctx context.Context, q dbx.DBTX, accountID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = ?`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrAccountNotFound
	}
	if err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) AddRecord(ctx context.Context, accountID string, fields models.RecordFields) (*models.SecretRecord, error) {
	if err := s.accountExists(ctx, s.db, accountID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := models.SecretRecord{
		ID:                uuid.NewString(),
		Website:           fields.Website,
		EncryptedUsername: fields.EncryptedUsername,
		EncryptedPassword: fields.EncryptedPassword,
		Notes:             fields.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	query := `INSERT INTO records (id, account_id, website, encrypted_username, encrypted_password, notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, accountID, rec.Website, rec.EncryptedUsername, rec.EncryptedPassword, rec.Notes,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return nil, wrap(err)
	}
	return &rec, nil
}

func (s *Store) ListRecords(ctx context.Context, accountID string) ([]models.SecretRecord, error) {
	if err := s.accountExists(ctx, s.db, accountID); err != nil {
		return nil, err
	}

	query := `SELECT id, website, encrypted_username, encrypted_password, notes, created_at, updated_at
	          FROM records WHERE account_id = ?`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var result []models.SecretRecord
	for rows.Next() {
		var rec models.SecretRecord
		var createdAt, updatedAt int64
		if err := rows.Scan(&rec.ID, &rec.Website, &rec.EncryptedUsername, &rec.EncryptedPassword,
			&rec.Notes, &createdAt, &updatedAt); err != nil {
			return nil, wrap(err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return result, nil
}

func (s *Store) GetRecord(ctx context.Context, accountID, recordID string) (*models.SecretRecord, error) {
	query := `SELECT id, website, encrypted_username, encrypted_password, notes, created_at, updated_at
	          FROM records WHERE account_id = ? AND id = ?`
	row := s.db.QueryRowContext(ctx, query, accountID, recordID)

	var rec models.SecretRecord
	var createdAt, updatedAt int64
	if err := row.Scan(&rec.ID, &rec.Website, &rec.EncryptedUsername, &rec.EncryptedPassword,
		&rec.Notes, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, wrap(err)
	}
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, accountID, recordID string, upd models.RecordUpdate) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		current, err := s.getRecordTx(ctx, tx, accountID, recordID)
		if err != nil {
			return err
		}

		if upd.Website != nil {
			current.Website = *upd.Website
		}
		if upd.EncryptedUsername != nil {
			current.EncryptedUsername = *upd.EncryptedUsername
		}
		if upd.EncryptedPassword != nil {
			current.EncryptedPassword = *upd.EncryptedPassword
		}
		if upd.Notes != nil {
			current.Notes = *upd.Notes
		}

		query := `UPDATE records SET website = ?, encrypted_username = ?, encrypted_password = ?, notes = ?, updated_at = ?
		          WHERE account_id = ? AND id = ?`
		_, err = tx.ExecContext(ctx, query,
			current.Website, current.EncryptedUsername, current.EncryptedPassword, current.Notes,
			time.Now().UTC().UnixNano(), accountID, recordID)
		if err != nil {
			return wrap(err)
		}
		return nil
	})
}

func (s *Store) getRecordTx(ctx context.Context, tx dbx.DBTX, accountID, recordID string) (*models.SecretRecord, error) {
	query := `SELECT website, encrypted_username, encrypted_password, notes
	          FROM records WHERE account_id = ? AND id = ?`
	var rec models.SecretRecord
	err := tx.QueryRowContext(ctx, query, accountID, recordID).
		Scan(&rec.Website, &rec.EncryptedUsername, &rec.EncryptedPassword, &rec.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrRecordNotFound
	}
	if err != nil {
		return nil, wrap(err)
	}
	return &rec, nil
}

func (s *Store) DeleteRecord(ctx context.Context, accountID, recordID string) error {
	if err := s.accountExists(ctx, s.db, accountID); err != nil {
		return err
	}
	// Deleting an absent record is a no-op.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE account_id = ? AND id = ?`, accountID, recordID); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.accountExists(ctx, tx, accountID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE account_id = ?`, accountID); err != nil {
			return wrap(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID); err != nil {
			return wrap(err)
		}
		return nil
	})
}

func (s *Store) ReplaceAccount(ctx context.Context, accountID string, verifier []byte, records []models.SecretRecord) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET verifier = ? WHERE id = ?`, verifier, accountID)
		if err != nil {
			return wrap(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return wrap(err)
		}
		if n == 0 {
			return common.ErrAccountNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE account_id = ?`, accountID); err != nil {
			return wrap(err)
		}

		query := `INSERT INTO records (id, account_id, website, encrypted_username, encrypted_password, notes, created_at, updated_at)
		          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query,
				rec.ID, accountID, rec.Website, rec.EncryptedUsername, rec.EncryptedPassword, rec.Notes,
				rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano()); err != nil {
				return wrap(err)
			}
		}
		return nil
	})
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
