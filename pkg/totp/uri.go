package totp

import (
	"net/url"
	"strconv"
	"strings"
)

// URIOptions contains the parameters for provisioning URI generation.
type URIOptions struct {
	Issuer      string    // Service name displayed in authenticator apps (required)
	AccountName string    // User identifier like email (required)
	Algorithm   Algorithm // HMAC algorithm (optional, defaults to SHA1)
	Digits      int       // Number of digits in generated codes (optional, defaults to 6)
	Period      int       // Code validity period in seconds (optional, defaults to 30)
}

// Validate ensures all required URI parameters are present.
func (p URIOptions) Validate() error {
	if strings.TrimSpace(p.Issuer) == "" {
		return ErrMissingIssuer
	}
	if strings.TrimSpace(p.AccountName) == "" {
		return ErrMissingAccountName
	}
	return nil
}

// GenerateOTPAuthURI builds the otpauth:// URI consumed by authenticator apps
// (Google Authenticator, Authy, 1Password). It follows the Key Uri Format:
// https://github.com/google/google-authenticator/wiki/Key-Uri-Format
//
// Issuer and account name are percent-encoded independently and joined with a
// literal colon. Query parameters are emitted in a fixed order: secret, issuer,
// algorithm, digits, period.
func GenerateOTPAuthURI(secret string, params URIOptions) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", ErrMissingSecret
	}
	if _, err := DecodeStrict(secret); err != nil {
		return "", err
	}
	if err := params.Validate(); err != nil {
		return "", err
	}

	opts, err := Options{
		Digits:    params.Digits,
		Period:    params.Period,
		Algorithm: params.Algorithm,
	}.withDefaults()
	if err != nil {
		return "", err
	}

	secret = strings.TrimRight(strings.ToUpper(strings.TrimSpace(secret)), "=")

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(escapeComponent(params.Issuer))
	b.WriteByte(':')
	b.WriteString(escapeComponent(params.AccountName))
	b.WriteString("?secret=")
	b.WriteString(secret)
	b.WriteString("&issuer=")
	b.WriteString(escapeComponent(params.Issuer))
	b.WriteString("&algorithm=")
	b.WriteString(string(opts.Algorithm))
	b.WriteString("&digits=")
	b.WriteString(strconv.Itoa(opts.Digits))
	b.WriteString("&period=")
	b.WriteString(strconv.Itoa(opts.Period))

	return b.String(), nil
}

// escapeComponent percent-encodes s for use in either the label or the query.
// Spaces become %20, never '+'.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
