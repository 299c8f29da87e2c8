package mfa

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/totp"
)

// Store persists confirmed enrollments. ConsumeBackupCode and MarkCodeUsed
// are compare-and-swap updates: of two concurrent calls for the same code or
// step only one succeeds.
type Store interface {
	// GetEnrollment returns ErrNotEnrolled when there is none.
	GetEnrollment(ctx context.Context, studioID, userID uuid.UUID) (Enrollment, error)
	// SaveEnrollment inserts e, replacing any previous enrollment of the user.
	SaveEnrollment(ctx context.Context, e Enrollment) error
	// DeleteEnrollment returns ErrNotEnrolled when there is none.
	DeleteEnrollment(ctx context.Context, studioID, userID uuid.UUID) error
	ReplaceBackupCodes(ctx context.Context, studioID, userID uuid.UUID, codes []totp.HashedBackupCode) error
	// ConsumeBackupCode tombstones the slot at index. It returns
	// ErrBackupCodeUsed unless the slot still holds hash and is unconsumed.
	ConsumeBackupCode(ctx context.Context, studioID, userID uuid.UUID, index int, hash string, at time.Time) error
	// MarkCodeUsed returns ErrCodeReplayed unless the stored enrollment is
	// still enrollmentID and counter is greater than the last accepted one.
	MarkCodeUsed(ctx context.Context, studioID, userID, enrollmentID uuid.UUID, counter uint64, at time.Time) error
}

// PendingStore keeps enrollments awaiting confirmation for a limited time.
type PendingStore interface {
	SavePending(ctx context.Context, p PendingEnrollment, ttl time.Duration) error
	// GetPending returns ErrNoPendingEnrollment when there is none or it expired.
	GetPending(ctx context.Context, studioID, userID uuid.UUID) (PendingEnrollment, error)
	DeletePending(ctx context.Context, studioID, userID uuid.UUID) error
}
