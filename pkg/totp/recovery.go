package totp

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

const (
	DefaultBackupCodeCount  = 10
	DefaultBackupCodeLength = 8

	// BackupCodeAlphabet omits I, O, 0 and 1 to avoid visual ambiguity.
	// Its length is 32, so mapping a byte modulo the length is unbiased.
	BackupCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	backupCodeGroupSize = 4
)

// HashedBackupCode is the stored form of a backup code. Consumed codes keep
// their slot so indexes into a set stay stable for its whole lifetime.
type HashedBackupCode struct {
	Hash     string `json:"hash"`
	Consumed bool   `json:"consumed"`
}

// GenerateBackupCodes creates count single-use recovery codes of length
// characters, formatted in dash-separated groups of four (XXXX-XXXX by
// default). Zero count or length select the defaults.
func GenerateBackupCodes(count, length int) ([]string, error) {
	if count == 0 {
		count = DefaultBackupCodeCount
	}
	if length == 0 {
		length = DefaultBackupCodeLength
	}
	if count < 0 {
		return nil, ErrInvalidBackupCodeCount
	}
	if length < 0 || length%backupCodeGroupSize != 0 {
		return nil, ErrInvalidBackupCodeLength
	}

	codes := make([]string, count)
	raw := make([]byte, length)
	for i := range count {
		if _, err := rand.Read(raw); err != nil {
			return nil, errors.Join(ErrFailedToGenerateBackupCode, err)
		}

		var b strings.Builder
		b.Grow(length + length/backupCodeGroupSize)
		for j, v := range raw {
			if j > 0 && j%backupCodeGroupSize == 0 {
				b.WriteByte('-')
			}
			b.WriteByte(BackupCodeAlphabet[int(v)%len(BackupCodeAlphabet)])
		}
		codes[i] = b.String()
	}
	return codes, nil
}

// NormalizeBackupCode strips dashes and whitespace and uppercases the rest, so
// "abcd-efgh" and "ABCDEFGH" are the same code.
func NormalizeBackupCode(code string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}

// HashBackupCode returns the lowercase hex SHA-256 of the normalized code.
func HashBackupCode(code string) string {
	sum := sha256.Sum256([]byte(NormalizeBackupCode(code)))
	return hex.EncodeToString(sum[:])
}

// HashBackupCodes hashes a freshly generated set for storage.
func HashBackupCodes(codes []string) []HashedBackupCode {
	hashed := make([]HashedBackupCode, len(codes))
	for i, code := range codes {
		hashed[i] = HashedBackupCode{Hash: HashBackupCode(code)}
	}
	return hashed
}

// VerifyBackupCode reports the index of the first unconsumed entry matching
// code. The index addresses codes directly, consumed slots included. Every
// entry is compared in constant time so the position of a match does not
// leak through timing.
func VerifyBackupCode(code string, codes []HashedBackupCode) (int, bool) {
	if NormalizeBackupCode(code) == "" {
		return -1, false
	}
	computed := []byte(HashBackupCode(code))

	index := -1
	for i, c := range codes {
		match := subtle.ConstantTimeCompare(computed, []byte(c.Hash)) == 1
		if match && !c.Consumed && index < 0 {
			index = i
		}
	}
	return index, index >= 0
}

// ConsumeBackupCode returns a copy of codes with the entry at index
// tombstoned. The input slice is left untouched.
func ConsumeBackupCode(codes []HashedBackupCode, index int) ([]HashedBackupCode, error) {
	if index < 0 || index >= len(codes) {
		return nil, ErrBackupCodeIndexOutOfRange
	}
	if codes[index].Consumed {
		return nil, ErrBackupCodeAlreadyConsumed
	}
	out := make([]HashedBackupCode, len(codes))
	copy(out, codes)
	out[index].Consumed = true
	return out, nil
}

// ConsumeMatchingBackupCode is ConsumeBackupCode guarded by the hash that
// matched at index. A slot holding another hash, as after the set was
// replaced, yields ErrBackupCodeMismatch.
func ConsumeMatchingBackupCode(codes []HashedBackupCode, index int, hash string) ([]HashedBackupCode, error) {
	if index < 0 || index >= len(codes) {
		return nil, ErrBackupCodeIndexOutOfRange
	}
	if subtle.ConstantTimeCompare([]byte(codes[index].Hash), []byte(hash)) != 1 {
		return nil, ErrBackupCodeMismatch
	}
	return ConsumeBackupCode(codes, index)
}

// RemainingBackupCodes counts unconsumed entries.
func RemainingBackupCodes(codes []HashedBackupCode) int {
	n := 0
	for _, c := range codes {
		if !c.Consumed {
			n++
		}
	}
	return n
}
