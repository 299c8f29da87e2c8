package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// Sealer seals values under per-studio keys derived from one application key.
// It is safe for concurrent use.
type Sealer struct {
	appKey []byte
}

// NewSealer copies appKey and returns a Sealer bound to it.
func NewSealer(appKey []byte) (*Sealer, error) {
	if err := ValidateKey(appKey); err != nil {
		return nil, err
	}
	key := make([]byte, KeySize)
	copy(key, appKey)
	return &Sealer{appKey: key}, nil
}

// Seal encrypts data for studioID, authenticating aad alongside it.
// Output format: nonce || ciphertext || tag.
func (s *Sealer) Seal(studioID string, data, aad []byte) ([]byte, error) {
	gcm, err := s.aead(studioID, ErrEncryptionFailed)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errors.Join(ErrEncryptionFailed, err)
	}

	return gcm.Seal(nonce, nonce, data, aad), nil
}

// Open reverses Seal. A wrong studio, wrong aad or tampered input all surface
// as ErrDecryptionFailed.
func (s *Sealer) Open(studioID string, sealed, aad []byte) ([]byte, error) {
	gcm, err := s.aead(studioID, ErrDecryptionFailed)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize+gcm.Overhead() {
		return nil, ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// SealString seals plaintext and returns it base64-encoded.
func (s *Sealer) SealString(studioID, aad, plaintext string) (string, error) {
	sealed, err := s.Seal(studioID, []byte(plaintext), []byte(aad))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenString decodes and opens a value produced by SealString.
func (s *Sealer) OpenString(studioID, aad, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrInvalidCiphertext, err)
	}
	plaintext, err := s.Open(studioID, raw, []byte(aad))
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

func (s *Sealer) aead(studioID string, sentinel error) (cipher.AEAD, error) {
	key, err := deriveKey(s.appKey, studioID)
	if err != nil {
		return nil, err
	}
	defer clearBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(sentinel, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(sentinel, err)
	}
	return gcm, nil
}
