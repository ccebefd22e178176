package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/halcyonlabs/halcyon/internal/api/helpers"
	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/session"
)

// SessionValidator resolves a bearer token to a live session. Satisfied by
// *auth.Service.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*session.Session, error)
}

// RequireSession validates the Authorization bearer token and injects the
// session into the request context. Tenant identity downstream always comes
// from these claims, never from a client-controlled header.
func RequireSession(validator SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				helpers.RespondError(w, r, apperr.Unauthenticated())
				return
			}

			sess, err := validator.ValidateSession(r.Context(), token)
			if err != nil {
				helpers.RespondError(w, r, err)
				return
			}

			ctx := WithSession(r.Context(), sess)
			TagSentryScope(ctx, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
