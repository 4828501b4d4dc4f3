package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mkaminskis/passvault/internal/common"
)

// Rotate changes the master password. Every stored secret is decrypted
// with the current key and re-encrypted with the new one before anything
// is written, so a failure leaves the vault untouched. The user is logged
// out afterwards and logs back in with the new password.
func (a *App) Rotate(ctx context.Context) error {
	password, err := a.promptNewMasterPassword("Enter your new master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.engine.RotateMasterPassword(ctx, string(password)); err != nil {
		return err
	}

	fmt.Println("Master password changed. Please log in again.")
	return nil
}

// DeleteAccount removes the account after an explicit confirmation.
// The engine refuses while any credentials remain stored.
func (a *App) DeleteAccount(ctx context.Context) error {
	ok, err := getConfirmation(a.reader, "Are you sure you want to delete your account?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Canceled")
		return nil
	}

	if err := a.engine.DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Println("Account deleted")
	return nil
}
