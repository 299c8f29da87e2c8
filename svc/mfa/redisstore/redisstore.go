// Package redisstore keeps pending MFA enrollments in Redis, where the key
// TTL enforces the enrollment window.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/redis"
	"github.com/repclub/mfakit/svc/mfa"
)

// PendingStore implements mfa.PendingStore.
type PendingStore struct {
	storage *redis.Storage
}

var _ mfa.PendingStore = (*PendingStore)(nil)

func New(storage *redis.Storage) *PendingStore {
	return &PendingStore{storage: storage}
}

func pendingKey(studioID, userID uuid.UUID) string {
	return "pending:" + studioID.String() + ":" + userID.String()
}

func (s *PendingStore) SavePending(ctx context.Context, p mfa.PendingEnrollment, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("redisstore: pending enrollment needs a positive ttl")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, pendingKey(p.StudioID, p.UserID), payload, ttl)
}

func (s *PendingStore) GetPending(ctx context.Context, studioID, userID uuid.UUID) (mfa.PendingEnrollment, error) {
	payload, err := s.storage.Get(ctx, pendingKey(studioID, userID))
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			return mfa.PendingEnrollment{}, mfa.ErrNoPendingEnrollment
		}
		return mfa.PendingEnrollment{}, err
	}

	var p mfa.PendingEnrollment
	if err := json.Unmarshal(payload, &p); err != nil {
		return mfa.PendingEnrollment{}, err
	}
	return p, nil
}

func (s *PendingStore) DeletePending(ctx context.Context, studioID, userID uuid.UUID) error {
	return s.storage.Delete(ctx, pendingKey(studioID, userID))
}
