package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/repclub/mfakit/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const provisioningURI = "otpauth://totp/RepClub:coach%40example.com?secret=JBSWY3DPEHPK3PXP&issuer=RepClub&algorithm=SHA1&digits=6&period=30"

func decodePNG(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err, "result should be a valid PNG image")
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		size     int
		wantSize int
		wantErr  error
	}{
		{name: "empty content", content: "", size: 256, wantErr: qrcode.ErrEmptyContent},
		{name: "whitespace only", content: "   \t\n", size: 256, wantErr: qrcode.ErrEmptyContent},
		{name: "requested size", content: "https://example.com", size: 256, wantSize: 256},
		{name: "custom size", content: "https://example.com", size: 400, wantSize: 400},
		{name: "zero size uses default", content: "https://example.com", size: 0, wantSize: qrcode.DefaultSize},
		{name: "negative size uses default", content: "https://example.com", size: -10, wantSize: qrcode.DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := qrcode.Generate(tt.content, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			w, h := decodePNG(t, result)
			assert.Equal(t, tt.wantSize, w)
			assert.Equal(t, tt.wantSize, h)
		})
	}
}

func TestGenerateDataURI(t *testing.T) {
	t.Parallel()

	result, err := qrcode.GenerateDataURI("https://example.com", 128)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(result, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(result, "data:image/png;base64,"))
	require.NoError(t, err)
	w, _ := decodePNG(t, raw)
	assert.Equal(t, 128, w)

	_, err = qrcode.GenerateDataURI(" ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestProvisioningPNG(t *testing.T) {
	t.Parallel()

	t.Run("renders otpauth uri", func(t *testing.T) {
		t.Parallel()
		result, err := qrcode.ProvisioningPNG(provisioningURI, 0)
		require.NoError(t, err)
		w, h := decodePNG(t, result)
		assert.Equal(t, qrcode.DefaultSize, w)
		assert.Equal(t, qrcode.DefaultSize, h)
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		t.Parallel()
		result, err := qrcode.ProvisioningPNG("https://example.com", 0)
		assert.ErrorIs(t, err, qrcode.ErrNotProvisioningURI)
		assert.Nil(t, result)
	})

	t.Run("rejects empty uri", func(t *testing.T) {
		t.Parallel()
		_, err := qrcode.ProvisioningPNG("", 0)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
	})
}

func TestProvisioningDataURI(t *testing.T) {
	t.Parallel()

	result, err := qrcode.ProvisioningDataURI(provisioningURI, 200)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "data:image/png;base64,"))

	_, err = qrcode.ProvisioningDataURI("otpauth-ish", 200)
	assert.ErrorIs(t, err, qrcode.ErrNotProvisioningURI)
}
