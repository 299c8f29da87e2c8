// Package email sends transactional email through Postmark, or writes it to
// disk during development.
//
//	sender, err := email.New(cfg)
//	if err != nil {
//	    return err
//	}
//	html, err := templates.Render(ctx, component)
//	if err != nil {
//	    return err
//	}
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "coach@example.com",
//	    Subject:  "Two-factor authentication enabled",
//	    BodyHTML: html,
//	    Tag:      "mfa-enabled",
//	})
//
// New picks the Postmark client when POSTMARK_SERVER_TOKEN is set and the
// DevSender otherwise. Parameter problems surface as ErrInvalidParams and
// delivery failures as ErrFailedToSendEmail.
package email
