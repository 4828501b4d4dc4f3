package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/models"
)

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateAccount(ctx, "alice", []byte("v1"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	_, err = s.CreateAccount(ctx, "alice", []byte("v2"))
	assert.True(t, errors.Is(err, common.ErrDuplicateUsername))

	// usernames are case-sensitive
	_, err = s.CreateAccount(ctx, "Alice", []byte("v3"))
	assert.NoError(t, err)
}

func TestFindAccount_ByUsernameAndID(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateAccount(ctx, "bob", []byte("verifier"))
	require.NoError(t, err)

	byName, err := s.FindAccountByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.Equal(t, []byte("verifier"), byName.Verifier)

	byID, err := s.FindAccountByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bob", byID.Username)

	_, err = s.FindAccountByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, common.ErrAccountNotFound))
	_, err = s.FindAccountByID(ctx, "no-such-id")
	assert.True(t, errors.Is(err, common.ErrAccountNotFound))
}

func TestFindAccount_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.CreateAccount(ctx, "carol", []byte("verifier"))
	require.NoError(t, err)

	a, err := s.FindAccountByID(ctx, id)
	require.NoError(t, err)
	a.Verifier[0] = 'X'

	again, err := s.FindAccountByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("verifier"), again.Verifier)
}

func seedAccount(t *testing.T, s *Store) string {
	t.Helper()
	id, err := s.CreateAccount(context.Background(), "owner", []byte("v"))
	require.NoError(t, err)
	return id
}

func TestRecordCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()
	acc := seedAccount(t, s)

	rec, err := s.AddRecord(ctx, acc, models.RecordFields{
		Website:           "example.com",
		EncryptedUsername: "blob-u",
		EncryptedPassword: "blob-p",
		Notes:             "note",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	got, err := s.GetRecord(ctx, acc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Website)

	list, err := s.ListRecords(ctx, acc)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	website := "other.com"
	err = s.UpdateRecord(ctx, acc, rec.ID, models.RecordUpdate{Website: &website})
	require.NoError(t, err)

	got, err = s.GetRecord(ctx, acc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "other.com", got.Website)
	assert.Equal(t, "blob-u", got.EncryptedUsername) // untouched
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))

	err = s.UpdateRecord(ctx, acc, "no-such-record", models.RecordUpdate{Website: &website})
	assert.True(t, errors.Is(err, common.ErrRecordNotFound))

	require.NoError(t, s.DeleteRecord(ctx, acc, rec.ID))
	// idempotent
	require.NoError(t, s.DeleteRecord(ctx, acc, rec.ID))

	_, err = s.GetRecord(ctx, acc, rec.ID)
	assert.True(t, errors.Is(err, common.ErrRecordNotFound))
}

func TestDeleteAccount_Cascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	acc := seedAccount(t, s)

	_, err := s.AddRecord(ctx, acc, models.RecordFields{Website: "a.com"})
	require.NoError(t, err)

	require.NoError(t, s.DeleteAccount(ctx, acc))

	_, err = s.FindAccountByID(ctx, acc)
	assert.True(t, errors.Is(err, common.ErrAccountNotFound))

	// username is free again
	_, err = s.CreateAccount(ctx, "owner", []byte("v"))
	assert.NoError(t, err)
}

func TestReplaceAccount_SwapsVerifierAndRecords(t *testing.T) {
	s := New()
	ctx := context.Background()
	acc := seedAccount(t, s)

	r1, err := s.AddRecord(ctx, acc, models.RecordFields{Website: "a.com", EncryptedUsername: "old-u", EncryptedPassword: "old-p"})
	require.NoError(t, err)
	_, err = s.AddRecord(ctx, acc, models.RecordFields{Website: "b.com"})
	require.NoError(t, err)

	rotated := *r1
	rotated.EncryptedUsername = "new-u"
	rotated.EncryptedPassword = "new-p"

	err = s.ReplaceAccount(ctx, acc, []byte("new-verifier"), []models.SecretRecord{rotated})
	require.NoError(t, err)

	a, err := s.FindAccountByID(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, []byte("new-verifier"), a.Verifier)

	list, err := s.ListRecords(ctx, acc)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new-u", list[0].EncryptedUsername)
	assert.Equal(t, r1.ID, list[0].ID)

	err = s.ReplaceAccount(ctx, "no-such-id", []byte("v"), nil)
	assert.True(t, errors.Is(err, common.ErrAccountNotFound))
}
