package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent           = errors.New("content cannot be empty")
	ErrNotProvisioningURI     = errors.New("content is not an otpauth provisioning uri")
	ErrFailedToGenerateQRCode = errors.New("failed to generate QR code")
)

// DefaultSize is the edge length in pixels used when size is not positive.
const DefaultSize = 256

const (
	provisioningScheme = "otpauth://"
	dataURIPrefix      = "data:image/png;base64,"
)

// Generate encodes content as a square PNG of size pixels. Content that does
// not fit at the requested size yields a larger image.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerateQRCode, err)
	}
	return png, nil
}

// GenerateDataURI returns the PNG from Generate as a data URI.
func GenerateDataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// ProvisioningPNG renders an otpauth:// URI for scanning by an authenticator app.
func ProvisioningPNG(uri string, size int) ([]byte, error) {
	if err := checkProvisioningURI(uri); err != nil {
		return nil, err
	}
	return Generate(uri, size)
}

// ProvisioningDataURI is ProvisioningPNG encoded as a data URI.
func ProvisioningDataURI(uri string, size int) (string, error) {
	if err := checkProvisioningURI(uri); err != nil {
		return "", err
	}
	return GenerateDataURI(uri, size)
}

func checkProvisioningURI(uri string) error {
	if strings.TrimSpace(uri) == "" {
		return ErrEmptyContent
	}
	if !strings.HasPrefix(uri, provisioningScheme) {
		return ErrNotProvisioningURI
	}
	return nil
}
