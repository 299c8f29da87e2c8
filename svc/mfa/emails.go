package mfa

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

func emailLayout(title string, body ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<!DOCTYPE html><html><body style="font-family:sans-serif;color:#1f2937"><h2>%s</h2>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		for _, p := range body {
			if _, err := fmt.Fprintf(w, `<p>%s</p>`, templ.EscapeString(p)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `<p style="color:#6b7280;font-size:12px">If this was not you, contact your studio administrator immediately.</p></body></html>`)
		return err
	})
}

func when(t time.Time) string {
	return t.UTC().Format("Jan 2, 2006 15:04 MST")
}

func enabledEmail(n Notification) templ.Component {
	return emailLayout("Two-factor authentication is on",
		fmt.Sprintf("Two-factor authentication was enabled for %s on %s.", n.AccountName, when(n.At)),
		"Keep your backup codes somewhere safe. Each one works once if you lose access to your authenticator app.",
	)
}

func disabledEmail(n Notification) templ.Component {
	return emailLayout("Two-factor authentication is off",
		fmt.Sprintf("Two-factor authentication was disabled for %s on %s.", n.AccountName, when(n.At)),
	)
}

func backupCodeUsedEmail(n Notification) templ.Component {
	lines := []string{
		fmt.Sprintf("A backup code was used to sign in to %s on %s.", n.AccountName, when(n.At)),
		fmt.Sprintf("You have %d backup codes left.", n.Remaining),
	}
	if n.Remaining <= 2 {
		lines = append(lines, "Generate a new set of backup codes soon.")
	}
	return emailLayout("Backup code used", lines...)
}

func regeneratedEmail(n Notification) templ.Component {
	return emailLayout("New backup codes",
		fmt.Sprintf("A new set of %d backup codes was generated for %s on %s. Your previous codes no longer work.", n.Remaining, n.AccountName, when(n.At)),
	)
}
