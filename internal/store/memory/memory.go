// Package memory provides the in-process reference implementation of
// store.CredentialStore. It keeps everything in mutex-guarded maps and
// copies data on the way in and out, so callers can never mutate stored
// state behind the store's back. Used by the engine's own tests and as
// a throwaway backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/models"
)

type account struct {
	meta    models.Account
	records map[string]models.SecretRecord
}

// Store is an in-memory CredentialStore. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*account
	byUsername map[string]string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		accounts:   make(map[string]*account),
		byUsername: make(map[string]string),
	}
}

func (s *Store) CreateAccount(ctx context.Context, username string, verifier []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return "", common.ErrDuplicateUsername
	}

	id := uuid.NewString()
	s.accounts[id] = &account{
		meta: models.Account{
			ID:        id,
			Username:  username,
			Verifier:  append([]byte(nil), verifier...),
			CreatedAt: time.Now().UTC(),
		},
		records: make(map[string]models.SecretRecord),
	}
	s.byUsername[username] = id
	return id, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	meta := s.accounts[id].meta
	meta.Verifier = append([]byte(nil), meta.Verifier...)
	return &meta, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	meta := a.meta
	meta.Verifier = append([]byte(nil), meta.Verifier...)
	return &meta, nil
}

func (s *Store) AddRecord(ctx context.Context, accountID string, fields models.RecordFields) (*models.SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, common.ErrAccountNotFound
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
	a.records[rec.ID] = rec
	out := rec
	return &out, nil
}

func (s *Store) ListRecords(ctx context.Context, accountID string) ([]models.SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}

	result := make([]models.SecretRecord, 0, len(a.records))
	for _, rec := range a.records {
		result = append(result, rec)
	}
	return result, nil
}

func (s *Store) GetRecord(ctx context.Context, accountID, recordID string) (*models.SecretRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return nil, common.ErrAccountNotFound
	}
	rec, ok := a.records[recordID]
	if !ok {
		return nil, common.ErrRecordNotFound
	}
	out := rec
	return &out, nil
}

func (s *Store) UpdateRecord(ctx context.Context, accountID, recordID string, upd models.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return common.ErrAccountNotFound
	}
	rec, ok := a.records[recordID]
	if !ok {
		return common.ErrRecordNotFound
	}

	if upd.Website != nil {
		rec.Website = *upd.Website
	}
	if upd.EncryptedUsername != nil {
		rec.EncryptedUsername = *upd.EncryptedUsername
	}
	if upd.EncryptedPassword != nil {
		rec.EncryptedPassword = *upd.EncryptedPassword
	}
	if upd.Notes != nil {
		rec.Notes = *upd.Notes
	}
	rec.UpdatedAt = time.Now().UTC()
	a.records[recordID] = rec
	return nil
}

func (s *Store) DeleteRecord(ctx context.Context, accountID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return common.ErrAccountNotFound
	}
	delete(a.records, recordID)
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return common.ErrAccountNotFound
	}
	delete(s.byUsername, a.meta.Username)
	delete(s.accounts, accountID)
	return nil
}

func (s *Store) ReplaceAccount(ctx context.Context, accountID string, verifier []byte, records []models.SecretRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[accountID]
	if !ok {
		return common.ErrAccountNotFound
	}

	// Build the replacement set fully before swapping anything, so a
	// reader never sees a mix of old and new state.
	newRecords := make(map[string]models.SecretRecord, len(records))
	for _, rec := range records {
		newRecords[rec.ID] = rec
	}
	a.meta.Verifier = append([]byte(nil), verifier...)
	a.records = newRecords
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
