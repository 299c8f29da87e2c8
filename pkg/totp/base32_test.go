package totp_test

import (
	"crypto/rand"
	"testing"

	"github.com/repclub/mfakit/pkg/totp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"f", "MY"},
		{"fo", "MZXQ"},
		{"foo", "MZXW6"},
		{"foob", "MZXW6YQ"},
		{"fooba", "MZXW6YTB"},
		{"foobar", "MZXW6YTBOI"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, totp.Encode([]byte(tt.in)), "encode %q", tt.in)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{name: "well-known secret", in: "JBSWY3DPEHPK3PXP", want: []byte("Hello!\xde\xad\xbe\xef")},
		{name: "lowercase", in: "mzxw6ytboi", want: []byte("foobar")},
		{name: "padding is ignored", in: "MZXW6YQ=", want: []byte("foob")},
		{name: "spaces and dashes are dropped", in: "MZXW 6YTB-OI", want: []byte("foobar")},
		{name: "characters outside alphabet are dropped", in: "MZ1XW06Y8TB9OI", want: []byte("foobar")},
		{name: "incomplete byte is discarded", in: "M", want: []byte{}},
		{name: "empty input", in: "", want: []byte{}},
		{name: "only garbage", in: "!!!---", want: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, totp.Decode(tt.in))
		})
	}
}

func TestBase32RoundTrip(t *testing.T) {
	t.Parallel()

	for size := 1; size <= 64; size++ {
		b := make([]byte, size)
		_, err := rand.Read(b)
		require.NoError(t, err)

		assert.Equal(t, b, totp.Decode(totp.Encode(b)), "size %d", size)

		strict, err := totp.DecodeStrict(totp.Encode(b))
		require.NoError(t, err)
		assert.Equal(t, b, strict, "size %d", size)
	}
}

func TestDecodeStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "valid", in: "MZXW6YTBOI", want: []byte("foobar")},
		{name: "lowercase with padding and whitespace", in: "  mzxw6yq=\n", want: []byte("foob")},
		{name: "dash", in: "MZXW-6YTBOI", wantErr: true},
		{name: "inner space", in: "MZXW 6YTBOI", wantErr: true},
		{name: "digit outside alphabet", in: "MZXW1YTBOI", wantErr: true},
		{name: "impossible length", in: "MZX", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := totp.DecodeStrict(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, totp.ErrInvalidSecretFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
