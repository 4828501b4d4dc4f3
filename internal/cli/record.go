package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mkaminskis/passvault/internal/engine"
	"github.com/mkaminskis/passvault/internal/models"
)

// timeLayout is used for all timestamps shown to the user.
const timeLayout = "2006-01-02 15:04:05"

func (a *App) promptRecordID(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, os.Stdout)
}

func printRecordLine(rec models.SecretRecord) {
	notes := rec.Notes
	if notes == "" {
		notes = "-"
	}
	fmt.Printf("%s  %-30s  %s\n", rec.ID, rec.Website, notes)
}

// Add prompts for a new site credential and stores it encrypted.
func (a *App) Add(ctx context.Context) error {
	website, err := getSimpleText(a.reader, "Enter the website", os.Stdout)
	if err != nil {
		return err
	}
	if website == "" {
		return fmt.Errorf("website is required")
	}

	username, err := getSimpleText(a.reader, "Enter the username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, "Enter the password", os.Stdout)
	if err != nil {
		return err
	}

	notes, err := getSimpleText(a.reader, "Enter any notes (optional)", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.engine.AddRecord(ctx, website, username, string(password), notes)
	if err != nil {
		return err
	}

	fmt.Println("Saved with id", rec.ID)
	return nil
}

// List prints one line per stored credential: id, website and notes.
// Secrets stay encrypted; use "user" or "pass" to reveal them.
func (a *App) List(ctx context.Context) error {
	records, err := a.engine.ListRecords(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No credentials stored yet")
		return nil
	}
	for _, rec := range records {
		printRecordLine(rec)
	}
	return nil
}

// Show displays a single credential's details except the password.
func (a *App) Show(ctx context.Context) error {
	id, err := a.promptRecordID("Enter record id to show")
	if err != nil {
		return err
	}

	rec, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	username, err := a.engine.DecryptField(rec.EncryptedUsername)
	if err != nil {
		return err
	}

	fmt.Println("Website: ", rec.Website)
	fmt.Println("Username:", username)
	fmt.Println("Notes:   ", rec.Notes)
	fmt.Println("Created: ", rec.CreatedAt.Local().Format(timeLayout))
	fmt.Println("Updated: ", rec.UpdatedAt.Local().Format(timeLayout))
	return nil
}

// ShowUsername reveals the stored site username for a credential.
func (a *App) ShowUsername(ctx context.Context) error {
	id, err := a.promptRecordID("Enter record id")
	if err != nil {
		return err
	}

	rec, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	username, err := a.engine.DecryptField(rec.EncryptedUsername)
	if err != nil {
		return err
	}

	fmt.Println("Username for", rec.Website+":", username)
	return nil
}

// ShowPassword reveals the stored site password for a credential.
func (a *App) ShowPassword(ctx context.Context) error {
	id, err := a.promptRecordID("Enter record id")
	if err != nil {
		return err
	}

	rec, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	password, err := a.engine.DecryptField(rec.EncryptedPassword)
	if err != nil {
		return err
	}

	fmt.Println("Password for", rec.Website+":", password)
	return nil
}

// Search lists the credentials whose website contains the given
// substring (case-insensitive).
func (a *App) Search(ctx context.Context) error {
	term, err := getSimpleText(a.reader, "Enter the website to search for", os.Stdout)
	if err != nil {
		return err
	}

	records, err := a.engine.ListRecords(ctx)
	if err != nil {
		return err
	}

	matched := 0
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Website), strings.ToLower(term)) {
			printRecordLine(rec)
			matched++
		}
	}
	if matched == 0 {
		fmt.Println("No matches")
	}
	return nil
}

// Update changes a credential's fields. Every field is prompted for;
// an empty answer keeps the current value.
func (a *App) Update(ctx context.Context) error {
	id, err := a.promptRecordID("Enter record id to update")
	if err != nil {
		return err
	}

	// fetch first so a bad id fails before any prompting
	if _, err := a.engine.GetRecord(ctx, id); err != nil {
		return err
	}

	var changes engine.RecordChanges
	website, err := getSimpleText(a.reader, "Enter the website (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if website != "" {
		changes.Website = &website
	}

	username, err := getSimpleText(a.reader, "Enter the username (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if username != "" {
		changes.Username = &username
	}

	password, err := getPassword(a.reader, "Enter the password (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if len(password) > 0 {
		p := string(password)
		changes.Password = &p
	}

	notes, err := getSimpleText(a.reader, "Enter any notes (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	if notes != "" {
		changes.Notes = &notes
	}

	if err := a.engine.UpdateRecord(ctx, id, changes); err != nil {
		return err
	}
	fmt.Println("Updated")
	return nil
}

// Delete removes a credential after an explicit confirmation.
func (a *App) Delete(ctx context.Context) error {
	id, err := a.promptRecordID("Enter record id to delete")
	if err != nil {
		return err
	}

	rec, err := a.engine.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	ok, err := getConfirmation(a.reader, "Are you sure you want to delete the password for "+rec.Website+"?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Canceled")
		return nil
	}

	if err := a.engine.DeleteRecord(ctx, id); err != nil {
		return err
	}
	fmt.Println("Deleted")
	return nil
}
