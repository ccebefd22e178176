package middleware

import (
	"context"

	"github.com/getsentry/sentry-go"

	"github.com/halcyonlabs/halcyon/internal/session"
)

// TagSentryScope attaches the authenticated principal to the request's
// Sentry scope so 5xx reports carry tenant and user context.
func TagSentryScope(ctx context.Context, s *session.Session) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return
	}
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("tenant_id", s.TenantID.String())
		scope.SetUser(sentry.User{ID: s.UserID.String()})
	})
}
