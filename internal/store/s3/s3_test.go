package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/models"
)

// fakeObjectAPI keeps objects in memory and can simulate outages.
type fakeObjectAPI struct {
	objects  map[string][]byte
	getFails int // fail this many GetObject calls with a transient error
	putFails int
	puts     int
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string][]byte)}
}

func (f *fakeObjectAPI) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getFails > 0 {
		f.getFails--
		return nil, errors.New("connection reset by peer")
	}
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putFails > 0 {
		f.putFails--
		return nil, errors.New("service unavailable")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = body
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func newTestStore(t *testing.T, api *fakeObjectAPI) *Store {
	t.Helper()
	prevBase := retryBase
	retryBase = 1 // keep retries fast in tests
	t.Cleanup(func() { retryBase = prevBase })

	s := &Store{api: api, bucket: "vault", key: "vault.json"}
	require.NoError(t, s.ensureDocument(context.Background()))
	return s
}

func TestOpen_CreatesEmptyDocument(t *testing.T) {
	api := newFakeObjectAPI()
	newTestStore(t, api)
	assert.Contains(t, string(api.objects["vault.json"]), `"accounts"`)
}

func TestAccountAndRecordLifecycle(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStore(t, api)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, "alice", []byte("verifier"))
	require.NoError(t, err)

	_, err = s.CreateAccount(ctx, "alice", []byte("other"))
	assert.True(t, errors.Is(err, common.ErrDuplicateUsername))

	a, err := s.FindAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, acc, a.ID)

	rec, err := s.AddRecord(ctx, acc, models.RecordFields{Website: "example.com", EncryptedUsername: "u", EncryptedPassword: "p"})
	require.NoError(t, err)

	got, err := s.GetRecord(ctx, acc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Website)

	notes := "n"
	require.NoError(t, s.UpdateRecord(ctx, acc, rec.ID, models.RecordUpdate{Notes: &notes}))
	got, err = s.GetRecord(ctx, acc, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", got.Notes)
	assert.Equal(t, "u", got.EncryptedUsername)

	list, err := s.ListRecords(ctx, acc)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteRecord(ctx, acc, rec.ID))
	putsAfterDelete := api.puts
	// idempotent: no extra write for a record that is already gone
	require.NoError(t, s.DeleteRecord(ctx, acc, rec.ID))
	assert.Equal(t, putsAfterDelete, api.puts)

	require.NoError(t, s.DeleteAccount(ctx, acc))
	_, err = s.FindAccountByID(ctx, acc)
	assert.True(t, errors.Is(err, common.ErrAccountNotFound))
}

func TestStateSurvivesReopen(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStore(t, api)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, "bob", []byte("v"))
	require.NoError(t, err)

	// a second store over the same bucket sees the same document
	s2 := newTestStore(t, api)
	a, err := s2.FindAccountByID(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, "bob", a.Username)
}

func TestReplaceAccount_SingleWrite(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStore(t, api)
	ctx := context.Background()

	acc, err := s.CreateAccount(ctx, "carol", []byte("old-v"))
	require.NoError(t, err)
	r, err := s.AddRecord(ctx, acc, models.RecordFields{Website: "a.com", EncryptedUsername: "old-u", EncryptedPassword: "old-p"})
	require.NoError(t, err)

	rotated := *r
	rotated.EncryptedUsername = "new-u"
	rotated.EncryptedPassword = "new-p"

	before := api.puts
	require.NoError(t, s.ReplaceAccount(ctx, acc, []byte("new-v"), []models.SecretRecord{rotated}))
	assert.Equal(t, before+1, api.puts) // the rotation commit is one PutObject

	a, err := s.FindAccountByID(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, []byte("new-v"), a.Verifier)

	list, err := s.ListRecords(ctx, acc)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new-u", list[0].EncryptedUsername)
}

func TestTransientFailuresAreRetried(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStore(t, api)
	ctx := context.Background()

	api.getFails = 2 // fewer than the retry budget
	_, err := s.CreateAccount(ctx, "dave", []byte("v"))
	require.NoError(t, err)
}

func TestOutageSurfacesStoreUnavailable(t *testing.T) {
	api := newFakeObjectAPI()
	s := newTestStore(t, api)
	ctx := context.Background()

	api.getFails = 10 // beyond the retry budget
	_, err := s.CreateAccount(ctx, "erin", []byte("v"))
	assert.True(t, errors.Is(err, common.ErrStoreUnavailable))
}
