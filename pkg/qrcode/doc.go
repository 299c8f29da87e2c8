// Package qrcode renders QR code images for authenticator enrollment.
//
// It wraps github.com/skip2/go-qrcode with defaults suited to otpauth
// provisioning URIs: a 256px PNG at medium error correction, or a data URI
// that can be dropped straight into an <img> tag on the enrollment page.
//
// # Usage
//
//	import "github.com/repclub/mfakit/pkg/qrcode"
//
//	png, err := qrcode.ProvisioningPNG(uri, 0)
//	if err != nil {
//		// handle error
//	}
//
//	src, err := qrcode.ProvisioningDataURI(uri, 0)
//
// Generate and GenerateDataURI accept arbitrary content.
//
// # Error Handling
//
// ErrEmptyContent, ErrNotProvisioningURI and ErrFailedToGenerateQRCode are
// package sentinels. Compare with errors.Is.
package qrcode
