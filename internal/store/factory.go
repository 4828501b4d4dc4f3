package store

import (
	"context"
	"fmt"

	"github.com/mkaminskis/passvault/internal/config"
	"github.com/mkaminskis/passvault/internal/store/memory"
	"github.com/mkaminskis/passvault/internal/store/postgres"
	s3store "github.com/mkaminskis/passvault/internal/store/s3"
	"github.com/mkaminskis/passvault/internal/store/sqlite"
)

// NewFromConfig constructs the configured backend. The returned store
// is ready to use; the caller owns Close.
func NewFromConfig(ctx context.Context, cfg *config.Config) (CredentialStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(), nil
	case config.BackendSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.DatabaseDSN)
	case config.BackendS3:
		return s3store.Open(ctx, s3store.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Key:       cfg.S3ObjectKey,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
