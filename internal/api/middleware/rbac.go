package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
)

// Authorizer loads the caller and enforces one permission. Satisfied by
// *auth.Service.
type Authorizer interface {
	Authorize(ctx context.Context, tenantID, userID uuid.UUID, action identity.Action, resource string) (*identity.User, error)
}

// RequirePermission gates a route on the RBAC evaluator. It needs
// RequireSession upstream; the hydrated caller is injected into the context
// so handlers don't load it again.
func RequirePermission(authz Authorizer, action identity.Action, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := GetSession(r.Context())
			if err != nil {
				helpers.RespondError(w, r, apperr.Unauthenticated())
				return
			}

			user, err := authz.Authorize(r.Context(), sess.TenantID, sess.UserID, action, resource)
			if err != nil {
				helpers.RespondError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
