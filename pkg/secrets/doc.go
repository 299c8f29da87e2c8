// Package secrets seals TOTP shared secrets and other small values at rest.
//
// A single 32-byte application key is expanded into one key per studio with
// HKDF-SHA-256, using the studio ID as HKDF info. The derived key drives
// AES-256-GCM. Callers pass additional authenticated data (the user ID for
// MFA secrets) so a sealed value copied onto another record fails to open.
//
// # Architecture
//
//  1. Key handling: the application key must be exactly 32 bytes. ParseKey
//     accepts the standard base64 form produced by EncodeKey and
//     cmd/mfa-keygen.
//  2. Key derivation: HKDF(SHA-256, appKey, salt = saltInfo, info = studio ID).
//     Errors wrap ErrKeyDerivationFailed.
//  3. Sealing: the random nonce is prepended to the GCM output, so a sealed
//     value is self-contained. SealString and OpenString add a base64 layer
//     for text columns.
//
// # Usage
//
//	import "github.com/repclub/mfakit/pkg/secrets"
//
//	key, _ := secrets.ParseKey(os.Getenv("MFA_ENCRYPTION_KEY"))
//	sealer, err := secrets.NewSealer(key)
//	if err != nil {
//	    // handle error
//	}
//
//	sealed, err := sealer.SealString(studioID, userID, "JBSWY3DPEHPK3PXP")
//	plain, err := sealer.OpenString(studioID, userID, sealed)
//
// # Error Handling
//
// Errors wrap a package sentinel such as ErrDecryptionFailed or
// ErrInvalidCiphertext. Use errors.Is to match them.
package secrets
