// Package totp implements the one-time-password primitives behind studio staff
// and member multi-factor authentication: Base32 secrets, RFC 4226 HOTP and
// RFC 6238 TOTP codes, otpauth:// provisioning URIs and single-use backup codes.
//
// The package is stateless. Every function computes from its inputs; persisting
// secrets (sealed) and backup-code hashes, and enforcing single use across
// concurrent requests, is left to the caller's storage layer.
//
// # Architecture
//
//   - base32   – Encode/Decode for secrets. Decode is lenient and drops
//     characters outside the alphabet; DecodeStrict rejects them.
//   - otp      – GenerateSecret, GenerateHOTP, GenerateTOTP/GenerateCode and
//     VerifyTOTP/VerifyCode with a configurable drift window.
//   - uri      – GenerateOTPAuthURI for QR-code enrollment.
//   - recovery – GenerateBackupCodes, HashBackupCode, VerifyBackupCode and
//     ConsumeBackupCode over a set of HashedBackupCode records.
//
// # Usage
//
//	secret, _ := totp.GenerateSecret(0)
//
//	uri, _ := totp.GenerateOTPAuthURI(secret, totp.URIOptions{
//	    Issuer:      "Rep Club",
//	    AccountName: "coach@repclub.fit",
//	})
//
//	res, err := totp.VerifyTOTP(userInput, secret, totp.Options{})
//	if err != nil {
//	    // misconfiguration, not a wrong code
//	}
//	if res.Valid {
//	    // res.Counter can be stored to reject replays of the same code
//	}
//
//	codes, _ := totp.GenerateBackupCodes(0, 0) // 10 x "XXXX-XXXX"
//	stored := totp.HashBackupCodes(codes)
//	if i, ok := totp.VerifyBackupCode(userInput, stored); ok {
//	    stored, _ = totp.ConsumeBackupCode(stored, i)
//	}
//
// # Error Handling
//
// A wrong code is never an error: verification reports it through Result.Valid
// or the boolean returned by VerifyBackupCode. Errors are reserved for invalid
// options, missing secrets and random-source failures, and wrap package
// sentinels such as ErrFailedToValidateTOTP or ErrUnsupportedAlgorithm via
// errors.Join.
//
// # See Also
//
//   - RFC 4226 – HMAC-Based One-Time Password (HOTP) Algorithm
//   - RFC 6238 – Time-Based One-Time Password (TOTP) Algorithm
//   - RFC 4648 – Base32 encoding
package totp
