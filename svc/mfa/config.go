package mfa

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repclub/mfakit/pkg/qrcode"
	"github.com/repclub/mfakit/pkg/ratelimiter"
	"github.com/repclub/mfakit/pkg/secrets"
	"github.com/repclub/mfakit/pkg/totp"
)

// Config holds enrollment and verification policy.
type Config struct {
	Issuer        string `env:"MFA_ISSUER" envDefault:"RepClub"`
	EncryptionKey string `env:"MFA_ENCRYPTION_KEY"` // base64, 32 bytes

	Digits    int    `env:"MFA_DIGITS" envDefault:"6"`
	Period    int    `env:"MFA_PERIOD" envDefault:"30"`
	Algorithm string `env:"MFA_ALGORITHM" envDefault:"SHA1"`
	// Window is the number of steps accepted on each side; 0 accepts only
	// the current step.
	Window     int `env:"MFA_WINDOW" envDefault:"1"`
	SecretSize int `env:"MFA_SECRET_SIZE" envDefault:"20"`

	BackupCodeCount int           `env:"MFA_BACKUP_CODE_COUNT" envDefault:"10"`
	EnrollmentTTL   time.Duration `env:"MFA_ENROLLMENT_TTL" envDefault:"10m"`

	MaxFailedAttempts int           `env:"MFA_MAX_FAILED_ATTEMPTS" envDefault:"5"`
	LockoutRefill     time.Duration `env:"MFA_LOCKOUT_REFILL" envDefault:"5m"`

	QRSize int `env:"MFA_QR_SIZE" envDefault:"256"`
}

// DefaultConfig mirrors the envDefault tags.
func DefaultConfig() Config {
	return Config{
		Issuer:            "RepClub",
		Digits:            totp.DefaultDigits,
		Period:            totp.DefaultPeriod,
		Algorithm:         string(totp.DefaultAlgorithm),
		Window:            totp.DefaultWindow,
		SecretSize:        totp.DefaultSecretSize,
		BackupCodeCount:   totp.DefaultBackupCodeCount,
		EnrollmentTTL:     10 * time.Minute,
		MaxFailedAttempts: 5,
		LockoutRefill:     5 * time.Minute,
		QRSize:            qrcode.DefaultSize,
	}
}

// Validate implements config.Validator.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Issuer) == "" {
		errs = append(errs, errors.New("MFA_ISSUER is required"))
	}
	if c.Window < 0 {
		errs = append(errs, fmt.Errorf("MFA_WINDOW must not be negative, got %d", c.Window))
	}
	if c.SecretSize < 16 {
		errs = append(errs, fmt.Errorf("MFA_SECRET_SIZE must be at least 16 bytes, got %d", c.SecretSize))
	}
	if c.BackupCodeCount <= 0 {
		errs = append(errs, fmt.Errorf("MFA_BACKUP_CODE_COUNT must be positive, got %d", c.BackupCodeCount))
	}
	if c.EnrollmentTTL <= 0 {
		errs = append(errs, errors.New("MFA_ENROLLMENT_TTL must be positive"))
	}
	if c.MaxFailedAttempts <= 0 {
		errs = append(errs, fmt.Errorf("MFA_MAX_FAILED_ATTEMPTS must be positive, got %d", c.MaxFailedAttempts))
	}
	if c.LockoutRefill <= 0 {
		errs = append(errs, errors.New("MFA_LOCKOUT_REFILL must be positive"))
	}
	if c.QRSize < 64 {
		errs = append(errs, fmt.Errorf("MFA_QR_SIZE must be at least 64, got %d", c.QRSize))
	}
	if _, err := c.otpOptions(); err != nil {
		errs = append(errs, err)
	}
	if c.EncryptionKey != "" {
		if _, err := secrets.ParseKey(c.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("MFA_ENCRYPTION_KEY: %w", err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Sealer builds the secret sealer from EncryptionKey.
func (c Config) Sealer() (*secrets.Sealer, error) {
	if c.EncryptionKey == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("MFA_ENCRYPTION_KEY is required"))
	}
	key, err := secrets.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	return secrets.NewSealer(key)
}

func (c Config) otpOptions() (totp.Options, error) {
	alg, err := totp.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return totp.Options{}, err
	}
	opts := totp.Options{
		Digits:    c.Digits,
		Period:    c.Period,
		Algorithm: alg,
		Window:    c.Window,
	}
	if c.Window == 0 {
		opts.Window = totp.ExactStep
	}
	// Generate once to surface digit and period errors at startup.
	if _, err := totp.GenerateCode(totp.Encode(make([]byte, totp.DefaultSecretSize)), 0, opts); err != nil {
		return totp.Options{}, err
	}
	return opts, nil
}

func (c Config) lockout() ratelimiter.Config {
	return ratelimiter.Config{
		Capacity:       c.MaxFailedAttempts,
		RefillRate:     1,
		RefillInterval: c.LockoutRefill,
	}
}
