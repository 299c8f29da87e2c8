package mfa

import (
	"context"
	"errors"
	"time"

	"github.com/a-h/templ"
	"github.com/google/uuid"

	"github.com/repclub/mfakit/pkg/email"
	"github.com/repclub/mfakit/pkg/email/templates"
)

// NotificationKind identifies a security event worth telling the user about.
type NotificationKind string

const (
	NotificationEnabled               NotificationKind = "mfa-enabled"
	NotificationDisabled              NotificationKind = "mfa-disabled"
	NotificationBackupCodeUsed        NotificationKind = "mfa-backup-code-used"
	NotificationBackupCodesRegenerate NotificationKind = "mfa-backup-codes-regenerated"
)

// Notification is a security event for one user.
type Notification struct {
	Kind        NotificationKind
	StudioID    uuid.UUID
	UserID      uuid.UUID
	Email       string
	AccountName string
	Issuer      string
	Remaining   int // backup codes left
	At          time.Time
}

// Notifier delivers security notifications. Delivery failures are logged by
// the Service and never fail the operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, Notification) error { return nil }

// EmailNotifier sends notifications as HTML email.
type EmailNotifier struct {
	sender email.EmailSender
}

func NewEmailNotifier(sender email.EmailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

// Notify skips users without an email address.
func (n *EmailNotifier) Notify(ctx context.Context, note Notification) error {
	if note.Email == "" {
		return nil
	}

	subject, body, err := notificationContent(note)
	if err != nil {
		return err
	}
	if note.Issuer != "" {
		subject = note.Issuer + ": " + subject
	}
	html, err := templates.Render(ctx, body)
	if err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}

	return n.sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   note.Email,
		Subject:  subject,
		BodyHTML: html,
		Tag:      string(note.Kind),
	})
}

func notificationContent(n Notification) (string, templ.Component, error) {
	switch n.Kind {
	case NotificationEnabled:
		return "Two-factor authentication enabled", enabledEmail(n), nil
	case NotificationDisabled:
		return "Two-factor authentication disabled", disabledEmail(n), nil
	case NotificationBackupCodeUsed:
		return "A backup code was used to sign in", backupCodeUsedEmail(n), nil
	case NotificationBackupCodesRegenerate:
		return "New backup codes generated", regeneratedEmail(n), nil
	}
	return "", nil, errors.New("mfa: unknown notification kind " + string(n.Kind))
}
