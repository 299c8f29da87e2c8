package mfa_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/repclub/mfakit/pkg/email"
	"github.com/repclub/mfakit/svc/mfa"
)

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func TestEmailNotifier(t *testing.T) {
	t.Parallel()

	base := mfa.Notification{
		StudioID:    uuid.New(),
		UserID:      uuid.New(),
		Email:       "coach@example.com",
		AccountName: "coach <north>",
		Issuer:      "RepClub",
		At:          time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		kind        mfa.NotificationKind
		remaining   int
		wantSubject string
		wantBody    []string
	}{
		{
			kind:        mfa.NotificationEnabled,
			wantSubject: "RepClub: Two-factor authentication enabled",
			wantBody:    []string{"coach &lt;north&gt;"},
		},
		{
			kind:        mfa.NotificationDisabled,
			wantSubject: "RepClub: Two-factor authentication disabled",
		},
		{
			kind:        mfa.NotificationBackupCodeUsed,
			remaining:   2,
			wantSubject: "RepClub: A backup code was used to sign in",
			wantBody:    []string{"You have 2 backup codes left.", "new set of backup codes soon"},
		},
		{
			kind:        mfa.NotificationBackupCodesRegenerate,
			remaining:   10,
			wantSubject: "RepClub: New backup codes generated",
			wantBody:    []string{"A new set of 10 backup codes"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()

			var sent email.SendEmailParams
			sender := new(mockEmailSender)
			sender.On("SendEmail", mock.Anything, mock.AnythingOfType("email.SendEmailParams")).
				Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
				Return(nil).Once()

			n := base
			n.Kind = tt.kind
			n.Remaining = tt.remaining
			require.NoError(t, mfa.NewEmailNotifier(sender).Notify(context.Background(), n))
			sender.AssertExpectations(t)

			assert.Equal(t, "coach@example.com", sent.SendTo)
			assert.Equal(t, tt.wantSubject, sent.Subject)
			assert.Equal(t, string(tt.kind), sent.Tag)
			assert.NotContains(t, sent.BodyHTML, "<north>")
			for _, want := range tt.wantBody {
				assert.Contains(t, sent.BodyHTML, want)
			}
		})
	}
}

func TestEmailNotifier_SkipsMissingEmail(t *testing.T) {
	t.Parallel()

	sender := new(mockEmailSender)
	err := mfa.NewEmailNotifier(sender).Notify(context.Background(), mfa.Notification{Kind: mfa.NotificationEnabled})
	require.NoError(t, err)
	sender.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
}

func TestEmailNotifier_Errors(t *testing.T) {
	t.Parallel()

	sender := new(mockEmailSender)
	sender.On("SendEmail", mock.Anything, mock.Anything).Return(email.ErrFailedToSendEmail)

	n := mfa.NewEmailNotifier(sender)
	err := n.Notify(context.Background(), mfa.Notification{Kind: mfa.NotificationDisabled, Email: "a@b.co"})
	assert.ErrorIs(t, err, email.ErrFailedToSendEmail)

	err = n.Notify(context.Background(), mfa.Notification{Kind: "unknown", Email: "a@b.co"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, email.ErrFailedToSendEmail))
}
