// Package mfa implements TOTP two-factor authentication for studio users.
//
// Enrollment is two-phase. Begin generates a secret, an otpauth URI with its
// QR code and a set of backup codes, and parks them as a PendingEnrollment
// with a TTL. Confirm checks the first code from the authenticator and turns
// the pending state into an Enrollment. Only sealed secrets and hashed
// backup codes are ever stored.
//
// Verify accepts either a TOTP code or a backup code:
//
//	res, err := svc.Verify(ctx, studioID, userID, input)
//	switch {
//	case errors.Is(err, mfa.ErrTooManyAttempts):
//	    var lockout *mfa.LockoutError
//	    errors.As(err, &lockout) // lockout.RetryAfter
//	case errors.Is(err, mfa.ErrInvalidCode):
//	    // wrong, replayed or already used code
//	}
//
// A TOTP code is accepted at most once: the store only records a step that is
// strictly greater than the last accepted one. Failed attempts drain a token
// bucket per user; when it is empty the user is locked out until a token
// refills. A successful verification refills the bucket.
//
// Store and PendingStore have in-memory implementations in this package and
// PostgreSQL and Redis implementations in the pgstore and redisstore
// subpackages.
package mfa
