package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the application key size, 256 bits for AES-256.
	KeySize = 32

	// saltInfo separates these derived keys from any other use of the app key.
	saltInfo = "repclub-mfa-secrets-v1"
)

// ValidateKey checks the application key length.
func ValidateKey(appKey []byte) error {
	if len(appKey) != KeySize {
		return ErrInvalidAppKey
	}
	return nil
}

// ParseKey decodes a base64 application key and validates its size.
func ParseKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Join(ErrInvalidAppKey, err)
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// EncodeKey returns the base64 form accepted by ParseKey.
func EncodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// deriveKey expands the application key into the studio's key.
// The caller must clearBytes the result when done.
func deriveKey(appKey []byte, studioID string) ([]byte, error) {
	if studioID == "" {
		return nil, ErrMissingStudioID
	}

	r := hkdf.New(sha256.New, appKey, []byte(saltInfo), []byte(studioID))

	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return derived, nil
}

// clearBytes zeroes key material once it is no longer needed.
func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateKey creates a new random 32-byte application key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
