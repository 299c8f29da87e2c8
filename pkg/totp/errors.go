package totp

import "errors"

var (
	ErrFailedToGenerateSecretKey  = errors.New("failed to generate TOTP secret key")
	ErrFailedToGenerateTOTP       = errors.New("failed to generate TOTP")
	ErrFailedToValidateTOTP       = errors.New("failed to validate TOTP")
	ErrInvalidSecretFormat        = errors.New("invalid secret format, expected base32")
	ErrMissingSecret              = errors.New("missing secret")
	ErrMissingAccountName         = errors.New("missing account name")
	ErrMissingIssuer              = errors.New("missing issuer")
	ErrUnsupportedAlgorithm       = errors.New("unsupported HMAC algorithm")
	ErrInvalidDigits              = errors.New("invalid number of digits, must be between 6 and 8")
	ErrInvalidPeriod              = errors.New("invalid period, must be greater than 0")
	ErrInvalidWindow              = errors.New("invalid window, must not be negative")
	ErrInvalidBackupCodeCount     = errors.New("invalid backup code count, must be greater than 0")
	ErrInvalidBackupCodeLength    = errors.New("invalid backup code length, must be a positive multiple of 4")
	ErrFailedToGenerateBackupCode = errors.New("failed to generate backup code")
	ErrBackupCodeIndexOutOfRange  = errors.New("backup code index out of range")
	ErrBackupCodeAlreadyConsumed  = errors.New("backup code already consumed")
	ErrBackupCodeMismatch         = errors.New("backup code slot holds a different code")
)
