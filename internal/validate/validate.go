// Package validate holds the input rules for account usernames and
// master passwords. Validation errors are plain errors whose messages
// are meant to be shown to the user verbatim.
package validate

import (
	"errors"
	"regexp"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 8
	maxPasswordLen = 20
)

// specialChars is the full set of allowed password special characters.
const specialChars = "!@#$%^&*()-_+="

var (
	usernameChars   = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	passwordLower   = regexp.MustCompile(`[a-z]`)
	passwordUpper   = regexp.MustCompile(`[A-Z]`)
	passwordDigit   = regexp.MustCompile(`[0-9]`)
	passwordSpecial = regexp.MustCompile(`[!@#$%^&*()\-_+=]`)
	passwordChars   = regexp.MustCompile(`^[a-zA-Z0-9!@#$%^&*()\-_+=]+$`)
)

// Username checks the account-name rules: 3 to 20 characters, letters,
// digits and underscores only.
func Username(username string) error {
	if len(username) < minUsernameLen {
		return errors.New("username must be at least 3 characters long")
	}
	if len(username) > maxUsernameLen {
		return errors.New("username must be at most 20 characters long")
	}
	if !usernameChars.MatchString(username) {
		return errors.New("username can only contain letters, numbers, and underscores")
	}
	return nil
}

// MasterPassword checks the master-password rules: 8 to 20 characters,
// at least one lowercase letter, one uppercase letter, one digit and
// one special character from !@#$%^&*()-_+=, with no characters outside
// that alphabet.
func MasterPassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > maxPasswordLen {
		return errors.New("password must be at most 20 characters long")
	}
	if !passwordLower.MatchString(password) {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !passwordUpper.MatchString(password) {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !passwordDigit.MatchString(password) {
		return errors.New("password must contain at least one number")
	}
	if !passwordSpecial.MatchString(password) {
		return errors.New("password must contain at least one special character among " + specialChars)
	}
	if !passwordChars.MatchString(password) {
		return errors.New("password can only contain letters, numbers, and special characters among " + specialChars)
	}
	return nil
}
