package totp

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"
)

const (
	DefaultDigits     = 6  // Standard 6-digit codes
	DefaultPeriod     = 30 // 30-second step (RFC 6238 recommendation)
	DefaultWindow     = 1  // Accept one step on each side to absorb clock drift
	DefaultSecretSize = 20 // 160-bit secret (RFC 4226 recommendation)

	// ExactStep disables drift tolerance when used as Options.Window.
	ExactStep = -1

	minDigits = 6
	maxDigits = 8
)

// Algorithm names the HMAC hash function used to derive codes.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"

	DefaultAlgorithm = AlgorithmSHA1
)

// ParseAlgorithm accepts both "SHA1" and "SHA-1" spellings in any case.
func ParseAlgorithm(s string) (Algorithm, error) {
	normalized := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "-", "")
	switch Algorithm(normalized) {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return Algorithm(normalized), nil
	case "":
		return DefaultAlgorithm, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
}

func (a Algorithm) hashFunc() (func() hash.Hash, error) {
	switch a {
	case AlgorithmSHA1:
		return sha1.New, nil
	case AlgorithmSHA256:
		return sha256.New, nil
	case AlgorithmSHA512:
		return sha512.New, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(a))
}

// Options tunes code generation and verification. Zero values select the
// RFC 6238 defaults.
//
// A zero Window means the default of one step on each side, not an exact
// match. Pass ExactStep to accept only the current step.
type Options struct {
	Digits    int       // Code length, 6 to 8 (default 6)
	Period    int       // Step length in seconds (default 30)
	Algorithm Algorithm // HMAC hash (default SHA1)
	Window    int       // Steps accepted on each side when verifying (default 1, ExactStep for none)
	Time      time.Time // Reference time for time-derived counters (default now)
}

// Result describes the outcome of a verification. Delta and Counter are only
// meaningful when Valid is true.
type Result struct {
	Valid   bool
	Delta   int    // Offset in steps between the matched counter and the reference counter
	Counter uint64 // Counter that produced the matching code
}

// withDefaults returns a copy with defaults applied and values validated.
func (o Options) withDefaults() (Options, error) {
	if o.Digits == 0 {
		o.Digits = DefaultDigits
	}
	if o.Period == 0 {
		o.Period = DefaultPeriod
	}
	if o.Window == 0 {
		o.Window = DefaultWindow
	}
	if o.Window == ExactStep {
		o.Window = 0
	}
	alg, err := ParseAlgorithm(string(o.Algorithm))
	if err != nil {
		return o, err
	}
	o.Algorithm = alg

	if o.Digits < minDigits || o.Digits > maxDigits {
		return o, ErrInvalidDigits
	}
	if o.Period < 0 {
		return o, ErrInvalidPeriod
	}
	if o.Window < 0 {
		return o, ErrInvalidWindow
	}
	return o, nil
}

func (o Options) now() time.Time {
	if o.Time.IsZero() {
		return time.Now()
	}
	return o.Time
}

// GenerateSecret returns a new Base32-encoded secret built from size random
// bytes. A size of zero or less selects DefaultSecretSize.
func GenerateSecret(size int) (string, error) {
	if size <= 0 {
		size = DefaultSecretSize
	}
	secret := make([]byte, size)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return Encode(secret), nil
}

// Counter returns the step counter containing t for the given period.
// Times before the Unix epoch map to counter 0.
func Counter(t time.Time, period int) uint64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / uint64(period)
}

// GenerateTOTP returns the code for the step containing opts.Time (or now).
func GenerateTOTP(secret string, opts Options) (string, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return GenerateCode(secret, Counter(o.now(), o.Period), o)
}

// GenerateCode returns the code for an explicit counter. The secret is
// decoded leniently, see Decode.
func GenerateCode(secret string, counter uint64, opts Options) (string, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	key := Decode(secret)
	if len(key) == 0 {
		return "", errors.Join(ErrFailedToGenerateTOTP, ErrMissingSecret)
	}
	code, err := GenerateHOTP(key, counter, o)
	if err != nil {
		return "", errors.Join(ErrFailedToGenerateTOTP, err)
	}
	return code, nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password algorithm
// over a raw key.
func GenerateHOTP(key []byte, counter uint64, opts Options) (string, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return "", err
	}
	newHash, err := o.Algorithm.hashFunc()
	if err != nil {
		return "", err
	}
	return hotp(key, counter, o.Digits, newHash), nil
}

func hotp(key []byte, counter uint64, digits int, newHash func() hash.Hash) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(newHash, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// Dynamic truncation: the low nibble of the last byte selects 4 bytes, the
	// top bit is cleared so the value stays within 31 bits.
	offset := sum[len(sum)-1] & 0x0f
	value := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for range digits {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, value%mod)
}

// VerifyTOTP checks token against the steps surrounding opts.Time (or now).
// A mismatch is reported through Result.Valid, never as an error.
func VerifyTOTP(token, secret string, opts Options) (Result, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return Result{}, errors.Join(ErrFailedToValidateTOTP, err)
	}
	return VerifyCode(token, secret, Counter(o.now(), o.Period), opts)
}

// VerifyCode checks token against counter-window ... counter+window in
// ascending order and reports the first match.
func VerifyCode(token, secret string, counter uint64, opts Options) (Result, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return Result{}, errors.Join(ErrFailedToValidateTOTP, err)
	}
	key := Decode(secret)
	if len(key) == 0 {
		return Result{}, errors.Join(ErrFailedToValidateTOTP, ErrMissingSecret)
	}
	newHash, err := o.Algorithm.hashFunc()
	if err != nil {
		return Result{}, errors.Join(ErrFailedToValidateTOTP, err)
	}

	token = strings.TrimSpace(token)
	if len(token) != o.Digits {
		return Result{}, nil
	}

	for i := -o.Window; i <= o.Window; i++ {
		if i < 0 && uint64(-i) > counter {
			continue
		}
		step := counter + uint64(int64(i))
		expected := hotp(key, step, o.Digits, newHash)
		if subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1 {
			return Result{Valid: true, Delta: i, Counter: step}, nil
		}
	}

	return Result{}, nil
}
