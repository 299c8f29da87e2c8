package totp

import (
	"encoding/base32"
	"errors"
	"strings"
)

// base32Alphabet is the RFC 4648 alphabet used by authenticator apps.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

var rawBase32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// base32Index maps an uppercase alphabet byte to its 5-bit value, -1 otherwise.
var base32Index = func() [256]int8 {
	var idx [256]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := range len(base32Alphabet) {
		idx[base32Alphabet[i]] = int8(i)
	}
	return idx
}()

// Encode returns the unpadded Base32 representation of b.
func Encode(b []byte) string {
	return rawBase32.EncodeToString(b)
}

// Decode converts a Base32 string into raw bytes.
//
// Decoding is lenient: input is uppercased and every character outside the
// alphabet (whitespace, dashes, padding) is dropped before the remaining 5-bit
// groups are packed into bytes. Leftover bits that do not complete a byte are
// discarded. Decode never fails; use DecodeStrict when transcription errors
// must surface.
func Decode(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)

	var buffer uint32
	var bits uint
	for i := range len(s) {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		v := base32Index[c]
		if v < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
			buffer &= 1<<bits - 1
		}
	}

	return out
}

// DecodeStrict decodes s, tolerating only letter case, surrounding whitespace
// and trailing padding. Any other deviation yields ErrInvalidSecretFormat.
func DecodeStrict(s string) ([]byte, error) {
	s = strings.TrimRight(strings.ToUpper(strings.TrimSpace(s)), "=")
	if s == "" {
		return nil, ErrInvalidSecretFormat
	}
	for i := range len(s) {
		if base32Index[s[i]] < 0 {
			return nil, ErrInvalidSecretFormat
		}
	}
	// A trailing group of 1, 3 or 6 characters cannot carry a whole byte.
	switch len(s) % 8 {
	case 1, 3, 6:
		return nil, ErrInvalidSecretFormat
	}
	b, err := rawBase32.DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecretFormat, err)
	}
	return b, nil
}
