// Package mfa mounts the MFA enrollment and verification endpoints.
//
//	r := chi.NewRouter()
//	r.Mount("/mfa", mfamod.New(svc, mfamod.WithLogger(log)).Handle())
//
// Every route requires the X-Studio-ID and X-User-ID headers set by the
// gateway once the user has passed primary authentication.
package mfa

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/repclub/mfakit/handler"
	"github.com/repclub/mfakit/pkg/binder"
	"github.com/repclub/mfakit/pkg/logger"
	"github.com/repclub/mfakit/pkg/ratelimiter"
	"github.com/repclub/mfakit/pkg/requestid"
	"github.com/repclub/mfakit/svc/mfa"
)

// Service is the subset of *mfa.Service the module calls.
type Service interface {
	Begin(ctx context.Context, p mfa.BeginParams) (*mfa.Setup, error)
	PendingSetup(ctx context.Context, studioID, userID uuid.UUID) (*mfa.Setup, error)
	ProvisioningQR(ctx context.Context, studioID, userID uuid.UUID) ([]byte, error)
	Confirm(ctx context.Context, studioID, userID uuid.UUID, code string) (*mfa.Status, error)
	Verify(ctx context.Context, studioID, userID uuid.UUID, code string) (*mfa.VerifyResult, error)
	RegenerateBackupCodes(ctx context.Context, studioID, userID uuid.UUID) ([]string, error)
	Disable(ctx context.Context, studioID, userID uuid.UUID) error
	Status(ctx context.Context, studioID, userID uuid.UUID) (*mfa.Status, error)
}

var _ Service = (*mfa.Service)(nil)

// Module serves the MFA HTTP API.
type Module struct {
	svc           Service
	log           *slog.Logger
	views         Views
	verifyLimiter *ratelimiter.Bucket
	errorHandler  handler.ErrorHandler[handler.Context]
}

type Option func(*Module)

func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithViews overrides the built-in HTML components.
func WithViews(v Views) Option {
	return func(m *Module) {
		m.views = v
	}
}

// WithVerifyLimiter throttles POST /verify per client IP and user, on top of
// the per-user lockout enforced by the service.
func WithVerifyLimiter(b *ratelimiter.Bucket) Option {
	return func(m *Module) {
		m.verifyLimiter = b
	}
}

func New(svc Service, opts ...Option) *Module {
	m := &Module{svc: svc, log: logger.Discard()}
	for _, opt := range opts {
		opt(m)
	}
	m.views = m.views.withDefaults()
	m.errorHandler = retryAfter(handler.NewErrorHandler(m.log, handler.ErrorHandlerConfig{
		ErrorToast: m.views.ErrorToast,
	}))
	return m
}

// Handle returns the module router.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, middleware.RealIP, middleware.Recoverer, RequireIdentity)

	r.Get("/", wrap(m, m.status))
	r.Delete("/", wrap(m, m.disable))

	r.Route("/enrollment", func(r chi.Router) {
		r.Post("/", wrap(m, m.begin, binder.JSON(), binder.Form()))
		r.Get("/", wrap(m, m.enrollmentPage))
		r.Get("/qr.png", wrap(m, m.qr))
		r.Post("/confirm", wrap(m, m.confirm, binder.JSON(), binder.Form()))
	})

	verify := wrap(m, m.verify, binder.JSON(), binder.Form())
	if m.verifyLimiter != nil {
		r.With(ratelimiter.Middleware(m.verifyLimiter, ratelimiter.Composite(
			ratelimiter.ByRemoteIP(),
			ratelimiter.ByHeader(UserHeader),
		))).Post("/verify", verify)
	} else {
		r.Post("/verify", verify)
	}

	r.Post("/backup-codes", wrap(m, m.regenerate))
	r.Get("/status", wrap(m, m.status))

	return r
}

func wrap[R any](m *Module, h func(handler.Context, R) handler.Response, binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(handler.HandlerFunc[handler.Context, R](h),
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](m.errorHandler),
	)
}

func identity(ctx handler.Context) Identity {
	id, _ := IdentityFromContext(ctx)
	return id
}

// BeginRequest starts an enrollment. AccountName defaults to Email.
type BeginRequest struct {
	AccountName string `json:"account_name" form:"account_name"`
	Email       string `json:"email" form:"email"`
}

func (m *Module) begin(ctx handler.Context, req BeginRequest) handler.Response {
	id := identity(ctx)
	if req.AccountName == "" {
		req.AccountName = req.Email
	}
	setup, err := m.svc.Begin(ctx, mfa.BeginParams{
		StudioID:    id.StudioID,
		UserID:      id.UserID,
		AccountName: req.AccountName,
		Email:       req.Email,
	})
	if err != nil {
		return fail(err)
	}
	return handler.JSON(setup, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) enrollmentPage(ctx handler.Context, _ struct{}) handler.Response {
	id := identity(ctx)
	setup, err := m.svc.PendingSetup(ctx, id.StudioID, id.UserID)
	if err != nil {
		return fail(err)
	}
	return handler.Templ(m.views.EnrollmentPage(EnrollmentPageParams{
		Setup:      setup,
		ConfirmURL: strings.TrimSuffix(ctx.Request().URL.Path, "/") + "/confirm",
	}))
}

type pngResponse []byte

func (p pngResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, err := w.Write(p)
	return err
}

func (m *Module) qr(ctx handler.Context, _ struct{}) handler.Response {
	id := identity(ctx)
	png, err := m.svc.ProvisioningQR(ctx, id.StudioID, id.UserID)
	if err != nil {
		return fail(err)
	}
	return pngResponse(png)
}

// CodeRequest carries a TOTP or backup code.
type CodeRequest struct {
	Code string `json:"code" form:"code"`
}

func (req CodeRequest) validate() error {
	if req.Code == "" {
		verr := handler.NewValidationError()
		verr.Add("code", "is required")
		return verr
	}
	return nil
}

func (m *Module) confirm(ctx handler.Context, req CodeRequest) handler.Response {
	if err := req.validate(); err != nil {
		return fail(err)
	}
	id := identity(ctx)
	status, err := m.svc.Confirm(ctx, id.StudioID, id.UserID, req.Code)
	if err != nil {
		return fail(err)
	}
	if handler.IsDataStar(ctx.Request()) {
		return handler.Templ(m.views.StatusFragment(status), handler.WithTarget(StatusTarget))
	}
	return handler.JSON(status)
}

func (m *Module) verify(ctx handler.Context, req CodeRequest) handler.Response {
	if err := req.validate(); err != nil {
		return fail(err)
	}
	id := identity(ctx)
	res, err := m.svc.Verify(ctx, id.StudioID, id.UserID, req.Code)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(res)
}

func (m *Module) regenerate(ctx handler.Context, _ struct{}) handler.Response {
	id := identity(ctx)
	codes, err := m.svc.RegenerateBackupCodes(ctx, id.StudioID, id.UserID)
	if err != nil {
		return fail(err)
	}
	return handler.JSON(map[string][]string{"backup_codes": codes})
}

func (m *Module) disable(ctx handler.Context, _ struct{}) handler.Response {
	id := identity(ctx)
	if err := m.svc.Disable(ctx, id.StudioID, id.UserID); err != nil {
		return fail(err)
	}
	return handler.Empty()
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	id := identity(ctx)
	status, err := m.svc.Status(ctx, id.StudioID, id.UserID)
	if err != nil {
		return fail(err)
	}
	if handler.IsDataStar(ctx.Request()) {
		return handler.Templ(m.views.StatusFragment(status), handler.WithTarget(StatusTarget))
	}
	return handler.JSON(status)
}
