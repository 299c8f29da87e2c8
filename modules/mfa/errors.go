package mfa

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/repclub/mfakit/handler"
	"github.com/repclub/mfakit/svc/mfa"
)

var (
	ErrNotEnrolled         = handler.NewHTTPError(http.StatusNotFound, "mfa_not_enrolled")
	ErrNoPendingEnrollment = handler.NewHTTPError(http.StatusConflict, "mfa_no_pending_enrollment")
	ErrInvalidCode         = handler.NewHTTPError(http.StatusUnauthorized, "mfa_invalid_code")
	ErrLocked              = handler.NewHTTPError(http.StatusTooManyRequests, "mfa_locked")
)

// httpError attaches the HTTP status for a service error, keeping err in the
// chain for logging.
func httpError(err error) error {
	switch {
	case errors.Is(err, mfa.ErrTooManyAttempts):
		return errors.Join(ErrLocked, err)
	case errors.Is(err, mfa.ErrInvalidCode):
		return errors.Join(ErrInvalidCode, err)
	case errors.Is(err, mfa.ErrNotEnrolled):
		return errors.Join(ErrNotEnrolled, err)
	case errors.Is(err, mfa.ErrNoPendingEnrollment):
		return errors.Join(ErrNoPendingEnrollment, err)
	case errors.Is(err, mfa.ErrMissingIdentity):
		return errors.Join(handler.ErrUnauthorized, err)
	case errors.Is(err, mfa.ErrInvalidAccountName):
		verr := handler.NewValidationError()
		verr.Add("account_name", "is required")
		return errors.Join(verr, err)
	}
	return err
}

// failure defers err to the route's error handler.
type failure struct{ err error }

func (f failure) Render(http.ResponseWriter, *http.Request) error {
	return f.err
}

func fail(err error) handler.Response {
	return failure{err: httpError(err)}
}

// retryAfter sets Retry-After for lockouts before the wrapped handler renders.
func retryAfter(next handler.ErrorHandler[handler.Context]) handler.ErrorHandler[handler.Context] {
	return func(ctx handler.Context, err error) {
		var lockout *mfa.LockoutError
		if errors.As(err, &lockout) {
			secs := int(math.Ceil(lockout.RetryAfter.Seconds()))
			ctx.ResponseWriter().Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
		}
		next(ctx, err)
	}
}
