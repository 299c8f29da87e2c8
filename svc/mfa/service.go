package mfa

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/logger"
	"github.com/repclub/mfakit/pkg/qrcode"
	"github.com/repclub/mfakit/pkg/ratelimiter"
	"github.com/repclub/mfakit/pkg/secrets"
	"github.com/repclub/mfakit/pkg/totp"
)

// Service runs enrollment and verification for studio users.
type Service struct {
	cfg          Config
	otp          totp.Options
	store        Store
	pending      PendingStore
	sealer       *secrets.Sealer
	limiterStore ratelimiter.Store
	limiter      *ratelimiter.Bucket
	notifier     Notifier
	log          *slog.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLimiterStore keeps failed-attempt buckets in store, typically a
// ratelimiter.RedisStore shared by all replicas. Defaults to process memory.
func WithLimiterStore(store ratelimiter.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.limiterStore = store
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService validates cfg and wires the service.
func NewService(cfg Config, store Store, pending PendingStore, sealer *secrets.Sealer, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || pending == nil || sealer == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("store, pending store and sealer are required"))
	}
	otpOpts, err := cfg.otpOptions()
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	s := &Service{
		cfg:      cfg,
		otp:      otpOpts,
		store:    store,
		pending:  pending,
		sealer:   sealer,
		notifier: noopNotifier{},
		log:      logger.Discard(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiterStore == nil {
		s.limiterStore = ratelimiter.NewMemoryStore()
	}
	s.limiter, err = ratelimiter.NewBucket(s.limiterStore, cfg.lockout())
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	s.log = s.log.With(logger.Component("mfa"))
	return s, nil
}

// Begin starts or restarts an enrollment. The returned backup codes and
// secret are not retrievable later; the pending state holds only their
// sealed and hashed forms.
func (s *Service) Begin(ctx context.Context, p BeginParams) (*Setup, error) {
	if p.StudioID == uuid.Nil || p.UserID == uuid.Nil {
		return nil, ErrMissingIdentity
	}
	p.AccountName = strings.TrimSpace(p.AccountName)
	if p.AccountName == "" {
		return nil, ErrInvalidAccountName
	}

	secret, err := totp.GenerateSecret(s.cfg.SecretSize)
	if err != nil {
		return nil, err
	}
	uri, err := s.uri(secret, p.AccountName)
	if err != nil {
		return nil, err
	}
	codes, err := totp.GenerateBackupCodes(s.cfg.BackupCodeCount, 0)
	if err != nil {
		return nil, err
	}
	sealed, err := s.sealer.SealString(p.StudioID.String(), p.UserID.String(), secret)
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.ProvisioningDataURI(uri, s.cfg.QRSize)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pending := PendingEnrollment{
		StudioID:     p.StudioID,
		UserID:       p.UserID,
		AccountName:  p.AccountName,
		Email:        strings.TrimSpace(p.Email),
		SealedSecret: sealed,
		BackupCodes:  totp.HashBackupCodes(codes),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.EnrollmentTTL),
	}
	if err := s.pending.SavePending(ctx, pending, s.cfg.EnrollmentTTL); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	s.log.InfoContext(ctx, "mfa enrollment started",
		logger.StudioID(p.StudioID), logger.UserID(p.UserID))

	return &Setup{
		Secret:      secret,
		URI:         uri,
		QRCode:      qr,
		Digits:      s.cfg.Digits,
		BackupCodes: codes,
		ExpiresAt:   pending.ExpiresAt,
	}, nil
}

// PendingSetup returns the provisioning details of a pending enrollment so
// the QR code can be shown again. Backup codes are not included.
func (s *Service) PendingSetup(ctx context.Context, studioID, userID uuid.UUID) (*Setup, error) {
	p, err := s.getPending(ctx, studioID, userID)
	if err != nil {
		return nil, err
	}
	secret, err := s.open(studioID, userID, p.SealedSecret)
	if err != nil {
		return nil, err
	}
	uri, err := s.uri(secret, p.AccountName)
	if err != nil {
		return nil, err
	}
	qr, err := qrcode.ProvisioningDataURI(uri, s.cfg.QRSize)
	if err != nil {
		return nil, err
	}
	return &Setup{Secret: secret, URI: uri, QRCode: qr, Digits: s.cfg.Digits, ExpiresAt: p.ExpiresAt}, nil
}

// ProvisioningQR renders the pending enrollment's otpauth URI as a PNG.
func (s *Service) ProvisioningQR(ctx context.Context, studioID, userID uuid.UUID) ([]byte, error) {
	p, err := s.getPending(ctx, studioID, userID)
	if err != nil {
		return nil, err
	}
	secret, err := s.open(studioID, userID, p.SealedSecret)
	if err != nil {
		return nil, err
	}
	uri, err := s.uri(secret, p.AccountName)
	if err != nil {
		return nil, err
	}
	return qrcode.ProvisioningPNG(uri, s.cfg.QRSize)
}

// Confirm checks the first code from the authenticator against the pending
// secret and, on success, replaces any existing enrollment with it.
func (s *Service) Confirm(ctx context.Context, studioID, userID uuid.UUID, code string) (*Status, error) {
	if studioID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrMissingIdentity
	}
	key := limiterKey("confirm", studioID, userID)
	if err := s.checkLockout(ctx, key); err != nil {
		return nil, err
	}

	p, err := s.getPending(ctx, studioID, userID)
	if err != nil {
		return nil, err
	}
	secret, err := s.open(studioID, userID, p.SealedSecret)
	if err != nil {
		return nil, err
	}

	res, err := totp.VerifyTOTP(normalizeTOTP(code), secret, s.otpAt())
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, s.registerFailure(ctx, key, studioID, userID)
	}

	now := s.now()
	e := Enrollment{
		ID:              uuid.New(),
		StudioID:        studioID,
		UserID:          userID,
		AccountName:     p.AccountName,
		Email:           p.Email,
		SealedSecret:    p.SealedSecret,
		Algorithm:       s.otp.Algorithm,
		Digits:          s.cfg.Digits,
		Period:          s.cfg.Period,
		BackupCodes:     p.BackupCodes,
		LastUsedCounter: res.Counter,
		CreatedAt:       p.CreatedAt,
		EnabledAt:       now,
		LastUsedAt:      &now,
	}
	if err := s.store.SaveEnrollment(ctx, e); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	if err := s.pending.DeletePending(ctx, studioID, userID); err != nil {
		s.log.WarnContext(ctx, "failed to delete pending enrollment", logger.Error(err),
			logger.StudioID(studioID), logger.UserID(userID))
	}
	s.resetFailures(ctx, key)
	s.resetFailures(ctx, limiterKey("verify", studioID, userID))

	s.log.InfoContext(ctx, "mfa enabled",
		logger.StudioID(studioID), logger.UserID(userID), logger.Drift(res.Delta))
	s.notify(ctx, e, NotificationEnabled, totp.RemainingBackupCodes(e.BackupCodes))

	return statusOf(&e, false, false), nil
}

// Verify checks a login code. Six-to-eight digit codes are tried as TOTP
// first; anything that fails TOTP is tried as a backup code. Failed attempts
// count towards the lockout, a success clears it.
func (s *Service) Verify(ctx context.Context, studioID, userID uuid.UUID, code string) (*VerifyResult, error) {
	if studioID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrMissingIdentity
	}
	key := limiterKey("verify", studioID, userID)
	if err := s.checkLockout(ctx, key); err != nil {
		return nil, err
	}

	e, err := s.store.GetEnrollment(ctx, studioID, userID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return nil, err
		}
		return nil, errors.Join(ErrStorage, err)
	}

	if token := normalizeTOTP(code); looksLikeTOTP(token, e.Digits) {
		result, err := s.verifyTOTP(ctx, &e, token)
		if err != nil {
			return nil, err
		}
		if result != nil {
			s.resetFailures(ctx, key)
			return result, nil
		}
	}

	result, err := s.verifyBackupCode(ctx, &e, code)
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.resetFailures(ctx, key)
		return result, nil
	}

	return nil, s.registerFailure(ctx, key, studioID, userID)
}

// verifyTOTP returns nil, nil when the code does not match or was replayed.
func (s *Service) verifyTOTP(ctx context.Context, e *Enrollment, token string) (*VerifyResult, error) {
	secret, err := s.open(e.StudioID, e.UserID, e.SealedSecret)
	if err != nil {
		return nil, err
	}
	opts := s.otpAt()
	opts.Algorithm, opts.Digits, opts.Period = e.Algorithm, e.Digits, e.Period

	res, err := totp.VerifyTOTP(token, secret, opts)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, nil
	}

	err = s.store.MarkCodeUsed(ctx, e.StudioID, e.UserID, e.ID, res.Counter, s.now())
	if errors.Is(err, ErrCodeReplayed) {
		s.log.WarnContext(ctx, "mfa code replay rejected",
			logger.StudioID(e.StudioID), logger.UserID(e.UserID), logger.Method(MethodTOTP))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	remaining := totp.RemainingBackupCodes(e.BackupCodes)
	s.log.InfoContext(ctx, "mfa verified",
		logger.StudioID(e.StudioID), logger.UserID(e.UserID),
		logger.Method(MethodTOTP), logger.Drift(res.Delta))
	return &VerifyResult{Method: MethodTOTP, Drift: res.Delta, BackupCodesRemaining: remaining}, nil
}

// verifyBackupCode returns nil, nil when no unconsumed code matches.
func (s *Service) verifyBackupCode(ctx context.Context, e *Enrollment, code string) (*VerifyResult, error) {
	idx, ok := totp.VerifyBackupCode(code, e.BackupCodes)
	if !ok {
		return nil, nil
	}

	err := s.store.ConsumeBackupCode(ctx, e.StudioID, e.UserID, idx, e.BackupCodes[idx].Hash, s.now())
	if errors.Is(err, ErrBackupCodeUsed) {
		s.log.WarnContext(ctx, "mfa backup code reuse rejected",
			logger.StudioID(e.StudioID), logger.UserID(e.UserID), logger.Method(MethodBackupCode))
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	e.BackupCodes[idx].Consumed = true
	remaining := totp.RemainingBackupCodes(e.BackupCodes)
	s.log.InfoContext(ctx, "mfa verified",
		logger.StudioID(e.StudioID), logger.UserID(e.UserID),
		logger.Method(MethodBackupCode), logger.Remaining(remaining))
	s.notify(ctx, *e, NotificationBackupCodeUsed, remaining)

	return &VerifyResult{Method: MethodBackupCode, BackupCodesRemaining: remaining}, nil
}

// RegenerateBackupCodes replaces the whole backup code set.
func (s *Service) RegenerateBackupCodes(ctx context.Context, studioID, userID uuid.UUID) ([]string, error) {
	e, err := s.store.GetEnrollment(ctx, studioID, userID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return nil, err
		}
		return nil, errors.Join(ErrStorage, err)
	}

	codes, err := totp.GenerateBackupCodes(s.cfg.BackupCodeCount, 0)
	if err != nil {
		return nil, err
	}
	if err := s.store.ReplaceBackupCodes(ctx, studioID, userID, totp.HashBackupCodes(codes)); err != nil {
		return nil, errors.Join(ErrStorage, err)
	}

	s.log.InfoContext(ctx, "mfa backup codes regenerated",
		logger.StudioID(studioID), logger.UserID(userID), logger.Remaining(len(codes)))
	s.notify(ctx, e, NotificationBackupCodesRegenerate, len(codes))
	return codes, nil
}

// Disable removes the enrollment and any pending one.
func (s *Service) Disable(ctx context.Context, studioID, userID uuid.UUID) error {
	e, err := s.store.GetEnrollment(ctx, studioID, userID)
	if err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return err
		}
		return errors.Join(ErrStorage, err)
	}
	if err := s.store.DeleteEnrollment(ctx, studioID, userID); err != nil {
		if errors.Is(err, ErrNotEnrolled) {
			return err
		}
		return errors.Join(ErrStorage, err)
	}
	if err := s.pending.DeletePending(ctx, studioID, userID); err != nil {
		s.log.WarnContext(ctx, "failed to delete pending enrollment", logger.Error(err))
	}
	s.resetFailures(ctx, limiterKey("verify", studioID, userID))
	s.resetFailures(ctx, limiterKey("confirm", studioID, userID))

	s.log.InfoContext(ctx, "mfa disabled", logger.StudioID(studioID), logger.UserID(userID))
	s.notify(ctx, e, NotificationDisabled, 0)
	return nil
}

// Status reports the user's MFA state without consuming attempts.
func (s *Service) Status(ctx context.Context, studioID, userID uuid.UUID) (*Status, error) {
	if studioID == uuid.Nil || userID == uuid.Nil {
		return nil, ErrMissingIdentity
	}

	var enrollment *Enrollment
	e, err := s.store.GetEnrollment(ctx, studioID, userID)
	switch {
	case err == nil:
		enrollment = &e
	case !errors.Is(err, ErrNotEnrolled):
		return nil, errors.Join(ErrStorage, err)
	}

	_, err = s.pending.GetPending(ctx, studioID, userID)
	if err != nil && !errors.Is(err, ErrNoPendingEnrollment) {
		return nil, errors.Join(ErrStorage, err)
	}
	pending := err == nil

	locked := false
	if res, err := s.limiter.Status(ctx, limiterKey("verify", studioID, userID)); err == nil {
		locked = res.Exhausted()
	}
	return statusOf(enrollment, pending, locked), nil
}

func statusOf(e *Enrollment, pending, locked bool) *Status {
	st := &Status{Pending: pending, Locked: locked}
	if !e.Enabled() {
		return st
	}
	enabledAt := e.EnabledAt
	st.Enabled = true
	st.EnabledAt = &enabledAt
	st.LastUsedAt = e.LastUsedAt
	st.BackupCodesRemaining = totp.RemainingBackupCodes(e.BackupCodes)
	return st
}

func (s *Service) uri(secret, accountName string) (string, error) {
	return totp.GenerateOTPAuthURI(secret, totp.URIOptions{
		Issuer:      s.cfg.Issuer,
		AccountName: accountName,
		Algorithm:   s.otp.Algorithm,
		Digits:      s.cfg.Digits,
		Period:      s.cfg.Period,
	})
}

func (s *Service) open(studioID, userID uuid.UUID, sealed string) (string, error) {
	secret, err := s.sealer.OpenString(studioID.String(), userID.String(), sealed)
	if err != nil {
		return "", errors.Join(ErrSecretUnavailable, err)
	}
	return secret, nil
}

func (s *Service) getPending(ctx context.Context, studioID, userID uuid.UUID) (PendingEnrollment, error) {
	p, err := s.pending.GetPending(ctx, studioID, userID)
	if err != nil {
		if errors.Is(err, ErrNoPendingEnrollment) {
			return PendingEnrollment{}, err
		}
		return PendingEnrollment{}, errors.Join(ErrStorage, err)
	}
	if !p.ExpiresAt.IsZero() && !s.now().Before(p.ExpiresAt) {
		return PendingEnrollment{}, ErrNoPendingEnrollment
	}
	return p, nil
}

func (s *Service) otpAt() totp.Options {
	opts := s.otp
	opts.Time = s.now()
	return opts
}

func (s *Service) checkLockout(ctx context.Context, key string) error {
	res, err := s.limiter.Status(ctx, key)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	if res.Exhausted() {
		return &LockoutError{RetryAfter: max(res.ResetAt.Sub(s.now()), 0)}
	}
	return nil
}

func (s *Service) registerFailure(ctx context.Context, key string, studioID, userID uuid.UUID) error {
	res, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to record mfa failure", logger.Error(err))
		return ErrInvalidCode
	}
	if res.Exhausted() {
		s.log.WarnContext(ctx, "mfa locked out",
			logger.StudioID(studioID), logger.UserID(userID),
			slog.Time("until", res.ResetAt))
	}
	return ErrInvalidCode
}

func (s *Service) resetFailures(ctx context.Context, key string) {
	if err := s.limiter.Reset(ctx, key); err != nil {
		s.log.WarnContext(ctx, "failed to reset mfa attempts", logger.Error(err))
	}
}

func (s *Service) notify(ctx context.Context, e Enrollment, kind NotificationKind, remaining int) {
	err := s.notifier.Notify(ctx, Notification{
		Kind:        kind,
		StudioID:    e.StudioID,
		UserID:      e.UserID,
		Email:       e.Email,
		AccountName: e.AccountName,
		Issuer:      s.cfg.Issuer,
		Remaining:   remaining,
		At:          s.now(),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "failed to send mfa notification",
			logger.Error(err), logger.Event(string(kind)),
			logger.StudioID(e.StudioID), logger.UserID(e.UserID))
	}
}

func limiterKey(scope string, studioID, userID uuid.UUID) string {
	return scope + ":" + studioID.String() + ":" + userID.String()
}

// normalizeTOTP drops the spaces and dashes people type between digit groups.
func normalizeTOTP(code string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '\t' {
			return -1
		}
		return r
	}, code)
}

func looksLikeTOTP(token string, digits int) bool {
	if digits == 0 {
		digits = totp.DefaultDigits
	}
	if len(token) != digits {
		return false
	}
	for i := range len(token) {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return true
}
