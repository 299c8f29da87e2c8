package mfa

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/repclub/mfakit/handler"
	"github.com/repclub/mfakit/svc/mfa"
)

// StatusTarget is the element replaced after a DataStar confirmation.
const StatusTarget = "#mfa-status"

// EnrollmentPageParams feeds the enrollment page.
type EnrollmentPageParams struct {
	Setup      *mfa.Setup
	ConfirmURL string
}

// Views renders the HTML parts of the module. Nil fields fall back to the
// built-in components.
type Views struct {
	EnrollmentPage func(EnrollmentPageParams) templ.Component
	StatusFragment func(*mfa.Status) templ.Component
	ErrorToast     func(handler.ErrorToastParams) templ.Component
}

func (v Views) withDefaults() Views {
	if v.EnrollmentPage == nil {
		v.EnrollmentPage = EnrollmentPage
	}
	if v.StatusFragment == nil {
		v.StatusFragment = StatusFragment
	}
	if v.ErrorToast == nil {
		v.ErrorToast = ErrorToast
	}
	return v
}

// EnrollmentPage shows the QR code, the manual entry key and a DataStar form
// posting the first code to ConfirmURL.
func EnrollmentPage(p EnrollmentPageParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Set up two-factor authentication</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
</head>
<body>
<div id="toast-container"></div>
<main data-signals="{code: ''}">
<h1>Set up two-factor authentication</h1>
<p>Scan the code with your authenticator app, then enter the %d-digit code it shows.</p>
<img src="%s" alt="QR code for your authenticator app" width="256" height="256">
<p>Can't scan? Enter this key manually: <code>%s</code></p>
<div id="mfa-status">
<form data-on:submit__prevent="@post('%s')">
<input type="text" inputmode="numeric" autocomplete="one-time-code" data-bind:code required>
<button type="submit">Confirm</button>
</form>
</div>
<p><small>This setup expires at %s.</small></p>
</main>
</body>
</html>`,
			p.Setup.Digits,
			templ.EscapeString(p.Setup.QRCode),
			templ.EscapeString(p.Setup.Secret),
			templ.EscapeString(p.ConfirmURL),
			templ.EscapeString(p.Setup.ExpiresAt.UTC().Format("15:04 MST")),
		)
		return err
	})
}

// StatusFragment replaces #mfa-status once enrollment is confirmed.
func StatusFragment(st *mfa.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !st.Enabled {
			_, err := io.WriteString(w, `<div id="mfa-status"><p>Two-factor authentication is off.</p></div>`)
			return err
		}
		_, err := fmt.Fprintf(w,
			`<div id="mfa-status"><p>Two-factor authentication is on.</p><p>%d backup codes remaining.</p></div>`,
			st.BackupCodesRemaining)
		return err
	})
}

// ErrorToast is prepended to #toast-container for failed DataStar requests.
func ErrorToast(p handler.ErrorToastParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="toast toast-%s" role="alert" data-request-id="%s">%s</div>`,
			templ.EscapeString(p.Type),
			templ.EscapeString(p.RequestID),
			templ.EscapeString(p.Message),
		)
		return err
	})
}
