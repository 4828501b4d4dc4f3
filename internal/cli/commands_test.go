package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/engine"
	"github.com/mkaminskis/passvault/internal/logging"
	"github.com/mkaminskis/passvault/internal/store/memory"
)

// script feeds canned answers to the input seams, in the order the
// handlers ask for them.
type script struct {
	texts     []string
	passwords []string
	confirms  []bool
}

func (s *script) nextText() string {
	v := s.texts[0]
	s.texts = s.texts[1:]
	return v
}

func (s *script) nextPassword() string {
	v := s.passwords[0]
	s.passwords = s.passwords[1:]
	return v
}

func (s *script) nextConfirm() bool {
	v := s.confirms[0]
	s.confirms = s.confirms[1:]
	return v
}

func stubInputs(t *testing.T, s *script) {
	t.Helper()
	origST, origGP, origGC := getSimpleText, getPassword, getConfirmation
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		return s.nextText(), nil
	}
	getPassword = func(_ *bufio.Reader, _ string, _ io.Writer) ([]byte, error) {
		return []byte(s.nextPassword()), nil
	}
	getConfirmation = func(_ *bufio.Reader, _ string, _ io.Writer) (bool, error) {
		return s.nextConfirm(), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
		getConfirmation = origGC
	})
}

func newTestApp() *App {
	log := logging.NewJSONLogger(io.Discard, slog.LevelError)
	e := engine.New(memory.New(), log)
	return NewApp(e, log)
}

func registerBob(t *testing.T, a *App) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, a.engine.Register(ctx, "bob", "Secret1!"))
	require.NoError(t, a.engine.Login(ctx, "bob", "Secret1!"))
}

func TestRegister_Success(t *testing.T) {
	a := newTestApp()
	stubInputs(t, &script{
		texts:     []string{"bob"},
		passwords: []string{"Secret1!", "Secret1!"},
	})

	require.NoError(t, a.Register(context.Background()))
	assert.True(t, a.engine.IsLoggedIn(), "register should log the user in")
	assert.Equal(t, "bob", a.engine.CurrentUsername())
}

func TestRegister_PasswordMismatch(t *testing.T) {
	a := newTestApp()
	stubInputs(t, &script{
		texts:     []string{"bob"},
		passwords: []string{"Secret1!", "Other2@x"},
	})

	err := a.Register(context.Background())
	require.EqualError(t, err, "passwords do not match")
	assert.False(t, a.engine.IsLoggedIn())

	// nothing was persisted: the name is still free
	assert.ErrorIs(t,
		a.engine.Login(context.Background(), "bob", "Secret1!"),
		common.ErrInvalidCredentials)
}

func TestRegister_InvalidUsername(t *testing.T) {
	a := newTestApp()
	stubInputs(t, &script{texts: []string{"b!"}})

	err := a.Register(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username")
}

func TestRegister_WeakPassword(t *testing.T) {
	a := newTestApp()
	stubInputs(t, &script{
		texts:     []string{"bob"},
		passwords: []string{"weak"},
	})

	err := a.Register(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password")
}

func TestLoginLogout(t *testing.T) {
	a := newTestApp()
	ctx := context.Background()
	require.NoError(t, a.engine.Register(ctx, "bob", "Secret1!"))

	stubInputs(t, &script{
		texts:     []string{"bob"},
		passwords: []string{"Secret1!"},
	})

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.engine.IsLoggedIn())

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.engine.IsLoggedIn())
}

func TestAddAndStatus(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	stubInputs(t, &script{
		texts:     []string{"example.com", "alice", "work login"},
		passwords: []string{"hunter2!"},
	})

	require.NoError(t, a.Add(ctx))

	records, err := a.engine.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "example.com", records[0].Website)
	assert.Equal(t, "(bob)", a.status())
}

func TestUpdate_EmptyAnswersKeepFields(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	rec, err := a.engine.AddRecord(ctx, "example.com", "alice", "hunter2!", "note")
	require.NoError(t, err)

	// id prompt, then website/username/notes empty, new password only
	stubInputs(t, &script{
		texts:     []string{rec.ID, "", "", ""},
		passwords: []string{"newpass9#"},
	})

	require.NoError(t, a.Update(ctx))

	got, err := a.engine.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "example.com", got.Website)
	assert.Equal(t, "note", got.Notes)
	assert.Equal(t, rec.EncryptedUsername, got.EncryptedUsername)

	password, err := a.engine.DecryptField(got.EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "newpass9#", password)
}

func TestDelete_Declined(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	rec, err := a.engine.AddRecord(ctx, "example.com", "alice", "hunter2!", "")
	require.NoError(t, err)

	stubInputs(t, &script{
		texts:    []string{rec.ID},
		confirms: []bool{false},
	})

	require.NoError(t, a.Delete(ctx))

	records, err := a.engine.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "declined delete must keep the record")
}

func TestDelete_Confirmed(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	rec, err := a.engine.AddRecord(ctx, "example.com", "alice", "hunter2!", "")
	require.NoError(t, err)

	stubInputs(t, &script{
		texts:    []string{rec.ID},
		confirms: []bool{true},
	})

	require.NoError(t, a.Delete(ctx))

	records, err := a.engine.ListRecords(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRotate(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	_, err := a.engine.AddRecord(ctx, "example.com", "alice", "hunter2!", "")
	require.NoError(t, err)

	stubInputs(t, &script{
		passwords: []string{"Newpass2@", "Newpass2@"},
	})

	require.NoError(t, a.Rotate(ctx))
	assert.False(t, a.engine.IsLoggedIn(), "rotation logs the user out")

	require.NoError(t, a.engine.Login(ctx, "bob", "Newpass2@"))
	records, err := a.engine.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	password, err := a.engine.DecryptField(records[0].EncryptedPassword)
	require.NoError(t, err)
	assert.Equal(t, "hunter2!", password)
}

func TestDeleteAccount_RefusedWhileRecordsRemain(t *testing.T) {
	a := newTestApp()
	registerBob(t, a)
	ctx := context.Background()

	_, err := a.engine.AddRecord(ctx, "example.com", "alice", "hunter2!", "")
	require.NoError(t, err)

	stubInputs(t, &script{confirms: []bool{true}})

	assert.ErrorIs(t, a.DeleteAccount(ctx), common.ErrAccountNotEmpty)
	assert.True(t, a.engine.IsLoggedIn())
}
