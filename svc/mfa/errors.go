package mfa

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotEnrolled         = errors.New("mfa: user is not enrolled")
	ErrNoPendingEnrollment = errors.New("mfa: no pending enrollment")
	ErrInvalidCode         = errors.New("mfa: invalid code")
	ErrTooManyAttempts     = errors.New("mfa: too many failed attempts")
	ErrCodeReplayed        = errors.New("mfa: code already used")
	ErrBackupCodeUsed      = errors.New("mfa: backup code already used")
	ErrMissingIdentity     = errors.New("mfa: studio and user ids are required")
	ErrInvalidAccountName  = errors.New("mfa: account name is required")
	ErrInvalidConfig       = errors.New("mfa: invalid config")
	ErrStorage             = errors.New("mfa: storage failure")
	ErrSecretUnavailable   = errors.New("mfa: secret could not be opened")
)

// LockoutError is returned while a user is locked out. It matches
// ErrTooManyAttempts with errors.Is.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrTooManyAttempts
}
