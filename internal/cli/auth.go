package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mkaminskis/passvault/internal/common"
	"github.com/mkaminskis/passvault/internal/validate"
)

// getSimpleText, getPassword and getConfirmation are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword
var getConfirmation = GetConfirmation

// promptNewMasterPassword reads and validates a master password, then asks
// for it a second time to catch typos. The caller owns wiping the result.
func (a *App) promptNewMasterPassword(prompt string) ([]byte, error) {
	password, err := getPassword(a.reader, prompt, os.Stdout)
	if err != nil {
		return nil, err
	}
	if err := validate.MasterPassword(string(password)); err != nil {
		common.WipeByteArray(password)
		return nil, err
	}

	confirm, err := getPassword(a.reader, "Confirm your password", os.Stdout)
	if err != nil {
		common.WipeByteArray(password)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		common.WipeByteArray(password)
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

// Register prompts for a username and master password (entered twice) and
// creates a new account. On success it logs the user straight in, so the
// vault is immediately usable.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter a username (to be your master username)", os.Stdout)
	if err != nil {
		return err
	}
	if err := validate.Username(username); err != nil {
		return err
	}

	password, err := a.promptNewMasterPassword("Enter a password (to be your master password)")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.engine.Register(ctx, username, string(password)); err != nil {
		return err
	}

	fmt.Println("Account created!")
	return a.engine.Login(ctx, username, string(password))
}

// Login prompts for credentials and authenticates. Unknown usernames and
// wrong passwords produce the same error message.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter your master username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter your master password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.engine.Login(ctx, username, string(password)); err != nil {
		return err
	}

	fmt.Println("Welcome back,", username)
	return nil
}

// Logout ends the session and wipes the in-memory key.
func (a *App) Logout(ctx context.Context) error {
	a.engine.Logout()
	fmt.Println("Logged out")
	return nil
}
