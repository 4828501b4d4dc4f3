package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  string
	}{
		{"ok simple", "bob", ""},
		{"ok with underscore and digits", "bob_42", ""},
		{"ok max length", "abcdefghij0123456789", ""},
		{"too short", "ab", "username must be at least 3 characters long"},
		{"too long", "abcdefghij0123456789x", "username must be at most 20 characters long"},
		{"space", "bob smith", "username can only contain letters, numbers, and underscores"},
		{"dash", "bob-smith", "username can only contain letters, numbers, and underscores"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.username)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestMasterPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"ok", "Secret1!", ""},
		{"ok all special chars", "aA1!@#$%^&*()-_+=", ""},
		{"too short", "Sec1!", "password must be at least 8 characters long"},
		{"too long", "Secret1!Secret1!Secre", "password must be at most 20 characters long"},
		{"no lowercase", "SECRET1!", "password must contain at least one lowercase letter"},
		{"no uppercase", "secret1!", "password must contain at least one uppercase letter"},
		{"no digit", "Secrets!", "password must contain at least one number"},
		{"no special", "Secrets1", "password must contain at least one special character among !@#$%^&*()-_+="},
		{"forbidden char", "Secret1! ", "password can only contain letters, numbers, and special characters among !@#$%^&*()-_+="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MasterPassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
