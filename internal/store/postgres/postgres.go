// Package postgres implements store.CredentialStore over PostgreSQL
// (pgx stdlib driver). This is the document-database backend, intended
// for vaults shared across machines through a central database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/dbx"
	"github.com/mkaminskis/passvault/internal/models"
	"github.com/mkaminskis/passvault/internal/retryx"
	"github.com/mkaminskis/passvault/internal/store/postgres/migrations"
)

const uniqueViolation = "23505"

// Store is a PostgreSQL-backed CredentialStore.
type Store struct {
	db *sql.DB
}

// Open connects to the database at dsn, probes it (retrying transient
// failures with backoff) and applies schema migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	err = retryx.Do(ctx, 3, 500*time.Millisecond, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retryx.Transient(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func wrap(err error) error {
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) CreateAccount(ctx context.Context, username string, verifier []byte) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO accounts (id, username, verifier, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, id, username, verifier, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return "", common.ErrDuplicateUsername
		}
		return "", wrap(err)
	}
	return id, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Username, &a.Verifier, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrAccountNotFound
		}
		return nil, wrap(err)
	}
	return &a, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT id, username, verifier, created_at FROM accounts WHERE username = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, username))
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, username, verifier, created_at FROM accounts WHERE id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, id))
}

func (s *Store) accountExists(ctx context.Context, q dbx.DBTX, accountID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id = $1`, accountID).Scan(&one)
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
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, accountID, rec.Website, rec.EncryptedUsername, rec.EncryptedPassword, rec.Notes,
		rec.CreatedAt, rec.UpdatedAt)
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
	          FROM records WHERE account_id = $1`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, wrap(err)
	}
	defer rows.Close()

	var result []models.SecretRecord
	for rows.Next() {
		var rec models.SecretRecord
		if err := rows.Scan(&rec.ID, &rec.Website, &rec.EncryptedUsername, &rec.EncryptedPassword,
			&rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, wrap(err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(err)
	}
	return result, nil
}

func (s *Store) GetRecord(ctx context.Context, accountID, recordID string) (*models.SecretRecord, error) {
	query := `SELECT id, website, encrypted_username, encrypted_password, notes, created_at, updated_at
	          FROM records WHERE account_id = $1 AND id = $2`
	row := s.db.QueryRowContext(ctx, query, accountID, recordID)

	var rec models.SecretRecord
	if err := row.Scan(&rec.ID, &rec.Website, &rec.EncryptedUsername, &rec.EncryptedPassword,
		&rec.Notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrRecordNotFound
		}
		return nil, wrap(err)
	}
	return &rec, nil
}

func (s *Store) UpdateRecord(ctx context.Context, accountID, recordID string, upd models.RecordUpdate) error {
	query := `UPDATE records SET
	            website            = COALESCE($1, website),
	            encrypted_username = COALESCE($2, encrypted_username),
	            encrypted_password = COALESCE($3, encrypted_password),
	            notes              = COALESCE($4, notes),
	            updated_at         = $5
	          WHERE account_id = $6 AND id = $7`

	res, err := s.db.ExecContext(ctx, query,
		upd.Website, upd.EncryptedUsername, upd.EncryptedPassword, upd.Notes,
		time.Now().UTC(), accountID, recordID)
	if err != nil {
		return wrap(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(err)
	}
	if n == 0 {
		return common.ErrRecordNotFound
	}
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, accountID, recordID string) error {
	if err := s.accountExists(ctx, s.db, accountID); err != nil {
		return err
	}
	// Deleting an absent record is a no-op.
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE account_id = $1 AND id = $2`, accountID, recordID); err != nil {
		return wrap(err)
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	// records cascade via the FK
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
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
	return nil
}

func (s *Store) ReplaceAccount(ctx context.Context, accountID string, verifier []byte, records []models.SecretRecord) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `UPDATE accounts SET verifier = $1 WHERE id = $2`, verifier, accountID)
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

		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE account_id = $1`, accountID); err != nil {
			return wrap(err)
		}

		query := `INSERT INTO records (id, account_id, website, encrypted_username, encrypted_password, notes, created_at, updated_at)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, query,
				rec.ID, accountID, rec.Website, rec.EncryptedUsername, rec.EncryptedPassword, rec.Notes,
				rec.CreatedAt, rec.UpdatedAt); err != nil {
				return wrap(err)
			}
		}
		return nil
	})
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Close()
}
