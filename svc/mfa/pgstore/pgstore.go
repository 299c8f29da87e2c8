// Package pgstore keeps MFA enrollments in PostgreSQL.
package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/repclub/mfakit/pkg/pg"
	"github.com/repclub/mfakit/pkg/totp"
	"github.com/repclub/mfakit/svc/mfa"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates or upgrades the enrollment table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, cfg, migrations, "migrations", log)
}

// Store implements mfa.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ mfa.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectEnrollment = `
SELECT id, studio_id, user_id, account_name, email, sealed_secret, algorithm, digits, period,
       backup_codes, last_used_counter, created_at, enabled_at, last_used_at
FROM mfa_enrollments
WHERE studio_id = $1 AND user_id = $2`

func (s *Store) GetEnrollment(ctx context.Context, studioID, userID uuid.UUID) (mfa.Enrollment, error) {
	var (
		e       mfa.Enrollment
		alg     string
		codes   []byte
		counter int64
	)
	err := s.pool.QueryRow(ctx, selectEnrollment, studioID, userID).Scan(
		&e.ID, &e.StudioID, &e.UserID, &e.AccountName, &e.Email, &e.SealedSecret, &alg, &e.Digits, &e.Period,
		&codes, &counter, &e.CreatedAt, &e.EnabledAt, &e.LastUsedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return mfa.Enrollment{}, mfa.ErrNotEnrolled
		}
		return mfa.Enrollment{}, err
	}
	if err := json.Unmarshal(codes, &e.BackupCodes); err != nil {
		return mfa.Enrollment{}, err
	}
	e.Algorithm = totp.Algorithm(alg)
	e.LastUsedCounter = uint64(counter)
	return e, nil
}

const upsertEnrollment = `
INSERT INTO mfa_enrollments (
    id, studio_id, user_id, account_name, email, sealed_secret, algorithm, digits, period,
    backup_codes, last_used_counter, created_at, enabled_at, last_used_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11, $12, $13, $14)
ON CONFLICT (studio_id, user_id) DO UPDATE SET
    id = EXCLUDED.id,
    account_name = EXCLUDED.account_name,
    email = EXCLUDED.email,
    sealed_secret = EXCLUDED.sealed_secret,
    algorithm = EXCLUDED.algorithm,
    digits = EXCLUDED.digits,
    period = EXCLUDED.period,
    backup_codes = EXCLUDED.backup_codes,
    last_used_counter = EXCLUDED.last_used_counter,
    created_at = EXCLUDED.created_at,
    enabled_at = EXCLUDED.enabled_at,
    last_used_at = EXCLUDED.last_used_at`

// SaveEnrollment inserts e or replaces the user's existing enrollment.
func (s *Store) SaveEnrollment(ctx context.Context, e mfa.Enrollment) error {
	codes, err := marshalCodes(e.BackupCodes)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, upsertEnrollment,
		e.ID, e.StudioID, e.UserID, e.AccountName, e.Email, e.SealedSecret, string(e.Algorithm), e.Digits, e.Period,
		codes, int64(e.LastUsedCounter), e.CreatedAt, e.EnabledAt, e.LastUsedAt,
	)
	return err
}

func (s *Store) DeleteEnrollment(ctx context.Context, studioID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mfa_enrollments WHERE studio_id = $1 AND user_id = $2`, studioID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mfa.ErrNotEnrolled
	}
	return nil
}

func (s *Store) ReplaceBackupCodes(ctx context.Context, studioID, userID uuid.UUID, codes []totp.HashedBackupCode) error {
	raw, err := marshalCodes(codes)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE mfa_enrollments SET backup_codes = $3::jsonb WHERE studio_id = $1 AND user_id = $2`,
		studioID, userID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return mfa.ErrNotEnrolled
	}
	return nil
}

// ConsumeBackupCode flips the consumed flag of one slot under a row lock so
// two concurrent logins cannot both spend the same code, and a code from a
// replaced set cannot spend the slot that now holds another one.
func (s *Store) ConsumeBackupCode(ctx context.Context, studioID, userID uuid.UUID, index int, hash string, at time.Time) error {
	return pg.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT backup_codes FROM mfa_enrollments WHERE studio_id = $1 AND user_id = $2 FOR UPDATE`,
			studioID, userID).Scan(&raw)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return mfa.ErrNotEnrolled
			}
			return err
		}

		var codes []totp.HashedBackupCode
		if err := json.Unmarshal(raw, &codes); err != nil {
			return err
		}
		codes, err = totp.ConsumeMatchingBackupCode(codes, index, hash)
		switch {
		case errors.Is(err, totp.ErrBackupCodeAlreadyConsumed),
			errors.Is(err, totp.ErrBackupCodeMismatch),
			errors.Is(err, totp.ErrBackupCodeIndexOutOfRange):
			return errors.Join(mfa.ErrBackupCodeUsed, err)
		case err != nil:
			return err
		}

		raw, err = marshalCodes(codes)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE mfa_enrollments SET backup_codes = $3::jsonb, last_used_at = $4 WHERE studio_id = $1 AND user_id = $2`,
			studioID, userID, raw, at)
		return err
	})
}

// MarkCodeUsed advances last_used_counter only when the row is still the
// enrollment the code was verified against and counter is strictly greater
// than the stored value.
func (s *Store) MarkCodeUsed(ctx context.Context, studioID, userID, enrollmentID uuid.UUID, counter uint64, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
UPDATE mfa_enrollments SET last_used_counter = $4, last_used_at = $5
WHERE studio_id = $1 AND user_id = $2 AND id = $3 AND last_used_counter < $4`,
		studioID, userID, enrollmentID, int64(counter), at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM mfa_enrollments WHERE studio_id = $1 AND user_id = $2)`,
		studioID, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return mfa.ErrNotEnrolled
	}
	return mfa.ErrCodeReplayed
}

func marshalCodes(codes []totp.HashedBackupCode) ([]byte, error) {
	if codes == nil {
		codes = []totp.HashedBackupCode{}
	}
	return json.Marshal(codes)
}
