// Package s3 implements store.CredentialStore over S3-compatible object
// storage (AWS S3, MinIO). The whole vault is one JSON document in the
// bucket; every operation is a read-modify-write of that document, so
// per-account atomicity is a single PutObject. Writes are last-writer-
// wins across processes, which matches the single-active-session model.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/models"
	"github.com/mkaminskis/passvault/internal/retryx"
)

// Options configure the object-storage backend.
type Options struct {
	Endpoint  string // base endpoint override, e.g. a local MinIO; empty for AWS
	Region    string
	Bucket    string
	Key       string // object key of the vault document, e.g. "vault.json"
	AccessKey string
	SecretKey string
}

// objectAPI is the slice of the S3 client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// accountDoc is the persisted shape of one account inside the vault
// document (see the backend contract: id -> {username, verifier, records}).
type accountDoc struct {
	ID        string                `json:"id"`
	Username  string                `json:"username"`
	Verifier  []byte                `json:"masterPasswordVerifier"`
	CreatedAt time.Time             `json:"createdAt"`
	Records   []models.SecretRecord `json:"records"`
}

type vaultDoc struct {
	Accounts []accountDoc `json:"accounts"`
}

// Store is an object-storage-backed CredentialStore.
type Store struct {
	api    objectAPI
	bucket string
	key    string

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// Open builds the S3 client from opts and makes sure the vault document
// exists, creating an empty one on first use.
func Open(ctx context.Context, opts Options) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey, opts.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	s := &Store{api: client, bucket: opts.Bucket, key: opts.Key}
	if err := s.ensureDocument(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureDocument(ctx context.Context) error {
	_, err := s.load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errDocumentMissing) {
		return err
	}
	return s.save(ctx, &vaultDoc{Accounts: []accountDoc{}})
}

var errDocumentMissing = errors.New("vault document missing")

// retry policy for object-storage round trips; vars for tests
var (
	retryAttempts uint64 = 3
	retryBase            = 500 * time.Millisecond
)

func (s *Store) load(ctx context.Context) (*vaultDoc, error) {
	var body []byte

	err := retryx.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				return errDocumentMissing
			}
			return retryx.Transient(err)
		}
		defer out.Body.Close()

		body, err = io.ReadAll(out.Body)
		if err != nil {
			return retryx.Transient(err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errDocumentMissing) {
			return nil, errDocumentMissing
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	doc := &vaultDoc{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt vault document: %v", common.ErrStoreUnavailable, err)
	}
	return doc, nil
}

func (s *Store) save(ctx context.Context, doc *vaultDoc) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}

	err = retryx.Do(ctx, retryAttempts, retryBase, func(ctx context.Context) error {
		_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return retryx.Transient(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
	}
	return nil
}

func (d *vaultDoc) findAccount(id string) *accountDoc {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return &d.Accounts[i]
		}
	}
	return nil
}

func (a *accountDoc) toModel() *models.Account {
	return &models.Account{
		ID:        a.ID,
		Username:  a.Username,
		Verifier:  append([]byte(nil), a.Verifier...),
		CreatedAt: a.CreatedAt,
	}
}

func (s *Store) CreateAccount(ctx context.Context, username string, verifier []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	for _, a := range doc.Accounts {
		if a.Username == username {
			return "", common.ErrDuplicateUsername
		}
	}

	id := uuid.NewString()
	doc.Accounts = append(doc.Accounts, accountDoc{
		ID:        id,
		Username:  username,
		Verifier:  append([]byte(nil), verifier...),
		CreatedAt: time.Now().UTC(),
		Records:   []models.SecretRecord{},
	})
	if err := s.save(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Accounts {
		if doc.Accounts[i].Username == username {
			return doc.Accounts[i].toModel(), nil
		}
	}
	return nil, common.ErrAccountNotFound
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if a := doc.findAccount(id); a != nil {
		return a.toModel(), nil
	}
	return nil, common.ErrAccountNotFound
}

func (s *Store) AddRecord(ctx context.Context, accountID string, fields models.RecordFields) (*models.SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	a := doc.findAccount(accountID)
	if a == nil {
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
	a.Records = append(a.Records, rec)

	if err := s.save(ctx, doc); err != nil {
		return nil, err
	}
	out := rec
	return &out, nil
}

func (s *Store) ListRecords(ctx context.Context, accountID string) ([]models.SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	a := doc.findAccount(accountID)
	if a == nil {
		return nil, common.ErrAccountNotFound
	}
	return append([]models.SecretRecord(nil), a.Records...), nil
}

func (s *Store) GetRecord(ctx context.Context, accountID, recordID string) (*models.SecretRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	a := doc.findAccount(accountID)
	if a == nil {
		return nil, common.ErrAccountNotFound
	}
	for _, rec := range a.Records {
		if rec.ID == recordID {
			out := rec
			return &out, nil
		}
	}
	return nil, common.ErrRecordNotFound
}

func (s *Store) UpdateRecord(ctx context.Context, accountID, recordID string, upd models.RecordUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	a := doc.findAccount(accountID)
	if a == nil {
		return common.ErrAccountNotFound
	}

	for i := range a.Records {
		if a.Records[i].ID != recordID {
			continue
		}
		rec := &a.Records[i]
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
		return s.save(ctx, doc)
	}
	return common.ErrRecordNotFound
}

func (s *Store) DeleteRecord(ctx context.Context, accountID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	a := doc.findAccount(accountID)
	if a == nil {
		return common.ErrAccountNotFound
	}

	kept := a.Records[:0]
	for _, rec := range a.Records {
		if rec.ID != recordID {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(a.Records) {
		// absent record: idempotent no-op, skip the write
		return nil
	}
	a.Records = kept
	return s.save(ctx, doc)
}

func (s *Store) DeleteAccount(ctx context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := doc.Accounts[:0]
	for _, a := range doc.Accounts {
		if a.ID != accountID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(doc.Accounts) {
		return common.ErrAccountNotFound
	}
	doc.Accounts = kept
	return s.save(ctx, doc)
}

func (s *Store) ReplaceAccount(ctx context.Context, accountID string, verifier []byte, records []models.SecretRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}
	a := doc.findAccount(accountID)
	if a == nil {
		return common.ErrAccountNotFound
	}

	a.Verifier = append([]byte(nil), verifier...)
	a.Records = append([]models.SecretRecord(nil), records...)
	return s.save(ctx, doc)
}

func (s *Store) Close(ctx context.Context) error {
	return nil
}
