package mfa

import (
	"time"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/totp"
)

// Methods accepted as a second factor.
const (
	MethodTOTP       = "totp"
	MethodBackupCode = "backup_code"
)

// Enrollment is a confirmed MFA enrollment. The secret is only ever held
// sealed; backup codes only as hashes.
type Enrollment struct {
	ID          uuid.UUID
	StudioID    uuid.UUID
	UserID      uuid.UUID
	AccountName string
	Email       string

	SealedSecret string
	Algorithm    totp.Algorithm
	Digits       int
	Period       int
	BackupCodes  []totp.HashedBackupCode

	// LastUsedCounter is the highest TOTP step accepted so far. A code is
	// only accepted for a strictly greater step.
	LastUsedCounter uint64

	CreatedAt  time.Time
	EnabledAt  time.Time
	LastUsedAt *time.Time
}

// Enabled reports whether e represents an active enrollment.
func (e *Enrollment) Enabled() bool {
	return e != nil && e.ID != uuid.Nil
}

// PendingEnrollment is an enrollment awaiting its first code.
type PendingEnrollment struct {
	StudioID     uuid.UUID               `json:"studio_id"`
	UserID       uuid.UUID               `json:"user_id"`
	AccountName  string                  `json:"account_name"`
	Email        string                  `json:"email,omitempty"`
	SealedSecret string                  `json:"sealed_secret"`
	BackupCodes  []totp.HashedBackupCode `json:"backup_codes"`
	CreatedAt    time.Time               `json:"created_at"`
	ExpiresAt    time.Time               `json:"expires_at"`
}

// BeginParams starts an enrollment.
type BeginParams struct {
	StudioID    uuid.UUID
	UserID      uuid.UUID
	AccountName string // label shown in the authenticator app
	Email       string // optional, receives security notices
}

// Setup is everything the user needs to add the account to an authenticator.
// BackupCodes are shown once and never again.
type Setup struct {
	Secret      string    `json:"secret"`
	URI         string    `json:"uri"`
	QRCode      string    `json:"qr_code"` // PNG data URI
	Digits      int       `json:"digits"`
	BackupCodes []string  `json:"backup_codes,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyResult describes an accepted second factor.
type VerifyResult struct {
	Method               string `json:"method"`
	Drift                int    `json:"drift"`
	BackupCodesRemaining int    `json:"backup_codes_remaining"`
}

// Status summarises a user's MFA state.
type Status struct {
	Enabled              bool       `json:"enabled"`
	Pending              bool       `json:"pending"`
	Locked               bool       `json:"locked"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
	EnabledAt            *time.Time `json:"enabled_at,omitempty"`
	LastUsedAt           *time.Time `json:"last_used_at,omitempty"`
}
