package secrets

import "errors"

var (
	ErrInvalidAppKey   = errors.New("invalid app key: must be 32 bytes")
	ErrMissingStudioID = errors.New("studio id is required for key derivation")

	ErrEncryptionFailed  = errors.New("encryption failed")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidCiphertext = errors.New("invalid ciphertext format")

	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
