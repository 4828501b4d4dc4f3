// Package cryptox implements the vault's cryptographic primitives:
// master-key derivation, master-password verification and authenticated
// encryption of stored secrets.
//
// Key derivation and verification are deliberately distinct. DeriveKey is
// a fast, deterministic, unsalted hash, so a returning user can re-derive
// the symmetric key from the master password alone; the key is never
// stored. HashForVerification is a salted, slow hash stored as the login
// verifier; it is never used for decryption.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkaminskis/passvault/internal/common"
)

// KeySize is the symmetric key length in bytes (AES-256).
const KeySize = 32

// nonceSize is the AES-GCM nonce length. Every ciphertext blob starts
// with a nonce of exactly this size, which makes the encoding
// unambiguous without a delimiter.
const nonceSize = 12

// DeriveKey turns a master password into a fixed-length symmetric key.
// Deterministic: the same password always yields the same key. Any input
// is accepted, including the empty string; password strength is enforced
// upstream by the validator.
func DeriveKey(masterPassword string) []byte {
	sum := sha256.Sum256([]byte(masterPassword))
	return sum[:]
}

// HashForVerification produces a salted, deliberately expensive one-way
// hash of the master password for login authentication. Two accounts
// with the same password get different verifiers.
func HashForVerification(masterPassword string) ([]byte, error) {
	v, err := bcrypt.GenerateFromPassword([]byte(masterPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing master password: %w", err)
	}
	return v, nil
}

// VerifyMasterPassword reports whether masterPassword matches the stored
// verifier. The underlying comparison is timing-safe.
func VerifyMasterPassword(masterPassword string, verifier []byte) bool {
	return bcrypt.CompareHashAndPassword(verifier, []byte(masterPassword)) == nil
}

// Encrypt seals plaintext with AES-256-GCM under key and returns a
// self-describing blob: base64(nonce || ciphertext). A fresh random
// nonce is generated on every call, so encrypting the same plaintext
// twice yields different blobs.
func Encrypt(plaintext string, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return "", fmt.Errorf("new gcm: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. It fails with an error
// matching common.ErrDecryption when the blob is malformed or the GCM
// integrity check fails (wrong key or corrupted data). It never returns
// partially-decrypted output.
func Decrypt(blob string, key []byte) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: malformed blob encoding", common.ErrDecryption)
	}
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: blob too short", common.ErrDecryption)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: invalid key", common.ErrDecryption)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return "", fmt.Errorf("%w: invalid key", common.ErrDecryption)
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: integrity check failed", common.ErrDecryption)
	}
	return string(plaintext), nil
}
