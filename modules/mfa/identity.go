package mfa

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/repclub/mfakit/handler"
)

// Identity headers are set by the gateway after primary authentication.
const (
	StudioHeader = "X-Studio-ID"
	UserHeader   = "X-User-ID"
)

// Identity is the authenticated studio user a request acts for.
type Identity struct {
	StudioID uuid.UUID
	UserID   uuid.UUID
}

var identityKey = handler.NewContextKey("mfa_identity")

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by RequireIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	return handler.ContextValueOK[Identity](ctx, identityKey)
}

// RequireIdentity rejects requests without valid identity headers with 401.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		studioID, err := uuid.Parse(r.Header.Get(StudioHeader))
		if err != nil || studioID == uuid.Nil {
			_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
			return
		}
		userID, err := uuid.Parse(r.Header.Get(UserHeader))
		if err != nil || userID == uuid.Nil {
			_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Identity{StudioID: studioID, UserID: userID})))
	})
}
