package mfa

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/totp"
)

type userKey struct {
	studio uuid.UUID
	user   uuid.UUID
}

// MemoryStore implements Store and PendingStore in process memory. It is
// meant for development and tests.
type MemoryStore struct {
	mu          sync.Mutex
	enrollments map[userKey]Enrollment
	pending     map[userKey]PendingEnrollment
	now         func() time.Time
}

// NewMemoryStore creates an empty store. now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		enrollments: make(map[userKey]Enrollment),
		pending:     make(map[userKey]PendingEnrollment),
		now:         now,
	}
}

func cloneEnrollment(e Enrollment) Enrollment {
	e.BackupCodes = slices.Clone(e.BackupCodes)
	if e.LastUsedAt != nil {
		t := *e.LastUsedAt
		e.LastUsedAt = &t
	}
	return e
}

func (s *MemoryStore) GetEnrollment(ctx context.Context, studioID, userID uuid.UUID) (Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return Enrollment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[userKey{studioID, userID}]
	if !ok {
		return Enrollment{}, ErrNotEnrolled
	}
	return cloneEnrollment(e), nil
}

func (s *MemoryStore) SaveEnrollment(ctx context.Context, e Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enrollments[userKey{e.StudioID, e.UserID}] = cloneEnrollment(e)
	return nil
}

func (s *MemoryStore) DeleteEnrollment(ctx context.Context, studioID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := userKey{studioID, userID}
	if _, ok := s.enrollments[k]; !ok {
		return ErrNotEnrolled
	}
	delete(s.enrollments, k)
	return nil
}

func (s *MemoryStore) ReplaceBackupCodes(ctx context.Context, studioID, userID uuid.UUID, codes []totp.HashedBackupCode) error {
	return s.update(ctx, studioID, userID, func(e *Enrollment) error {
		e.BackupCodes = slices.Clone(codes)
		return nil
	})
}

func (s *MemoryStore) ConsumeBackupCode(ctx context.Context, studioID, userID uuid.UUID, index int, hash string, at time.Time) error {
	return s.update(ctx, studioID, userID, func(e *Enrollment) error {
		codes, err := consumeBackupCode(e.BackupCodes, index, hash)
		if err != nil {
			return err
		}
		e.BackupCodes = codes
		e.LastUsedAt = &at
		return nil
	})
}

func (s *MemoryStore) MarkCodeUsed(ctx context.Context, studioID, userID, enrollmentID uuid.UUID, counter uint64, at time.Time) error {
	return s.update(ctx, studioID, userID, func(e *Enrollment) error {
		if e.ID != enrollmentID || counter <= e.LastUsedCounter {
			return ErrCodeReplayed
		}
		e.LastUsedCounter = counter
		e.LastUsedAt = &at
		return nil
	})
}

func (s *MemoryStore) update(ctx context.Context, studioID, userID uuid.UUID, fn func(*Enrollment) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := userKey{studioID, userID}
	e, ok := s.enrollments[k]
	if !ok {
		return ErrNotEnrolled
	}
	e = cloneEnrollment(e)
	if err := fn(&e); err != nil {
		return err
	}
	s.enrollments[k] = e
	return nil
}

func (s *MemoryStore) SavePending(ctx context.Context, p PendingEnrollment, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p.BackupCodes = slices.Clone(p.BackupCodes)
	if ttl > 0 {
		p.ExpiresAt = s.now().Add(ttl)
	}
	s.pending[userKey{p.StudioID, p.UserID}] = p
	return nil
}

func (s *MemoryStore) GetPending(ctx context.Context, studioID, userID uuid.UUID) (PendingEnrollment, error) {
	if err := ctx.Err(); err != nil {
		return PendingEnrollment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := userKey{studioID, userID}
	p, ok := s.pending[k]
	if !ok {
		return PendingEnrollment{}, ErrNoPendingEnrollment
	}
	if !p.ExpiresAt.IsZero() && !s.now().Before(p.ExpiresAt) {
		delete(s.pending, k)
		return PendingEnrollment{}, ErrNoPendingEnrollment
	}
	p.BackupCodes = slices.Clone(p.BackupCodes)
	return p, nil
}

func (s *MemoryStore) DeletePending(ctx context.Context, studioID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, userKey{studioID, userID})
	return nil
}

// consumeBackupCode maps every reason the slot cannot be spent to
// ErrBackupCodeUsed.
func consumeBackupCode(codes []totp.HashedBackupCode, index int, hash string) ([]totp.HashedBackupCode, error) {
	out, err := totp.ConsumeMatchingBackupCode(codes, index, hash)
	switch {
	case errors.Is(err, totp.ErrBackupCodeAlreadyConsumed),
		errors.Is(err, totp.ErrBackupCodeMismatch),
		errors.Is(err, totp.ErrBackupCodeIndexOutOfRange):
		return nil, errors.Join(ErrBackupCodeUsed, err)
	case err != nil:
		return nil, err
	}
	return out, nil
}
