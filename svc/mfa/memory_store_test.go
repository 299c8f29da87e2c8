package mfa_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repclub/mfakit/pkg/totp"
	"github.com/repclub/mfakit/svc/mfa"
)

func TestMemoryStore_Enrollment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := mfa.NewMemoryStore(nil)

	studioID, userID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	_, err := store.GetEnrollment(ctx, studioID, userID)
	require.ErrorIs(t, err, mfa.ErrNotEnrolled)

	e := mfa.Enrollment{
		ID:              uuid.New(),
		StudioID:        studioID,
		UserID:          userID,
		SealedSecret:    "sealed",
		BackupCodes:     totp.HashBackupCodes([]string{"AAAA-BBBB", "CCCC-DDDD"}),
		LastUsedCounter: 10,
		EnabledAt:       now,
	}
	require.NoError(t, store.SaveEnrollment(ctx, e))

	got, err := store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	// returned values are copies
	got.BackupCodes[0].Consumed = true
	again, err := store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.False(t, again.BackupCodes[0].Consumed)

	// other studio, same user
	_, err = store.GetEnrollment(ctx, uuid.New(), userID)
	assert.ErrorIs(t, err, mfa.ErrNotEnrolled)

	require.NoError(t, store.DeleteEnrollment(ctx, studioID, userID))
	assert.ErrorIs(t, store.DeleteEnrollment(ctx, studioID, userID), mfa.ErrNotEnrolled)
}

func TestMemoryStore_MarkCodeUsed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := mfa.NewMemoryStore(nil)

	studioID, userID, enrollmentID := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, store.SaveEnrollment(ctx, mfa.Enrollment{
		ID: enrollmentID, StudioID: studioID, UserID: userID, LastUsedCounter: 100,
	}))

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		name    string
		counter uint64
		wantErr error
	}{
		{name: "same step", counter: 100, wantErr: mfa.ErrCodeReplayed},
		{name: "older step", counter: 99, wantErr: mfa.ErrCodeReplayed},
		{name: "next step", counter: 101},
		{name: "next step again", counter: 101, wantErr: mfa.ErrCodeReplayed},
		{name: "skips ahead", counter: 110},
	}
	for _, tt := range tests {
		err := store.MarkCodeUsed(ctx, studioID, userID, enrollmentID, tt.counter, at)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, tt.name)
			continue
		}
		assert.NoError(t, err, tt.name)
	}

	e, err := store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, uint64(110), e.LastUsedCounter)
	require.NotNil(t, e.LastUsedAt)
	assert.Equal(t, at, *e.LastUsedAt)

	assert.ErrorIs(t, store.MarkCodeUsed(ctx, uuid.New(), userID, enrollmentID, 1, at), mfa.ErrNotEnrolled)

	// a code checked against a replaced enrollment is rejected
	require.NoError(t, store.SaveEnrollment(ctx, mfa.Enrollment{
		ID: uuid.New(), StudioID: studioID, UserID: userID, LastUsedCounter: 5,
	}))
	assert.ErrorIs(t, store.MarkCodeUsed(ctx, studioID, userID, enrollmentID, 200, at), mfa.ErrCodeReplayed)
	e, err = store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), e.LastUsedCounter)
}

func TestMemoryStore_BackupCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := mfa.NewMemoryStore(nil)

	studioID, userID := uuid.New(), uuid.New()
	require.NoError(t, store.SaveEnrollment(ctx, mfa.Enrollment{
		ID: uuid.New(), StudioID: studioID, UserID: userID,
		BackupCodes: totp.HashBackupCodes([]string{"AAAA-BBBB", "CCCC-DDDD"}),
	}))

	at := time.Now()
	cd := totp.HashBackupCode("CCCC-DDDD")
	require.NoError(t, store.ConsumeBackupCode(ctx, studioID, userID, 1, cd, at))
	assert.ErrorIs(t, store.ConsumeBackupCode(ctx, studioID, userID, 1, cd, at), mfa.ErrBackupCodeUsed)
	assert.ErrorIs(t, store.ConsumeBackupCode(ctx, studioID, userID, 5, cd, at), mfa.ErrBackupCodeUsed)
	assert.ErrorIs(t, store.ConsumeBackupCode(ctx, studioID, userID, 5, cd, at), totp.ErrBackupCodeIndexOutOfRange)

	e, err := store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, totp.RemainingBackupCodes(e.BackupCodes))

	fresh := totp.HashBackupCodes([]string{"EEEE-FFFF", "GGGG-HHHH", "JJJJ-KKKK"})
	require.NoError(t, store.ReplaceBackupCodes(ctx, studioID, userID, fresh))

	// slot 0 now holds another code, so the old hash cannot spend it
	ab := totp.HashBackupCode("AAAA-BBBB")
	assert.ErrorIs(t, store.ConsumeBackupCode(ctx, studioID, userID, 0, ab, at), mfa.ErrBackupCodeUsed)

	e, err = store.GetEnrollment(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, fresh, e.BackupCodes)
}

func TestMemoryStore_Pending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	clock := newFakeClock()
	store := mfa.NewMemoryStore(clock.Now)
	studioID, userID := uuid.New(), uuid.New()

	_, err := store.GetPending(ctx, studioID, userID)
	require.ErrorIs(t, err, mfa.ErrNoPendingEnrollment)

	p := mfa.PendingEnrollment{StudioID: studioID, UserID: userID, AccountName: "coach", SealedSecret: "sealed"}
	require.NoError(t, store.SavePending(ctx, p, time.Minute))

	got, err := store.GetPending(ctx, studioID, userID)
	require.NoError(t, err)
	assert.Equal(t, "coach", got.AccountName)
	assert.Equal(t, clock.Now().Add(time.Minute), got.ExpiresAt)

	clock.Advance(time.Minute)
	_, err = store.GetPending(ctx, studioID, userID)
	assert.ErrorIs(t, err, mfa.ErrNoPendingEnrollment)

	require.NoError(t, store.SavePending(ctx, p, time.Minute))
	require.NoError(t, store.DeletePending(ctx, studioID, userID))
	require.NoError(t, store.DeletePending(ctx, studioID, userID))
	_, err = store.GetPending(ctx, studioID, userID)
	assert.ErrorIs(t, err, mfa.ErrNoPendingEnrollment)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := mfa.NewMemoryStore(nil)
	_, err := store.GetEnrollment(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.SavePending(ctx, mfa.PendingEnrollment{}, time.Minute), context.Canceled)
}
