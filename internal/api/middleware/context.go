package middleware

import (
	"context"
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/session"
)

// contextKey is a private type so our keys cannot collide with other
// packages' context values.
type contextKey string

const (
	sessionKey contextKey = "session"
	userKey    contextKey = "user"
)

// WithSession returns a context carrying the validated session.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession extracts the validated session placed by RequireSession.
func GetSession(ctx context.Context) (*session.Session, error) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("no session in context")
	}
	return s, nil
}

// WithUser returns a context carrying the hydrated caller.
func WithUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser extracts the hydrated caller placed by RequirePermission.
func GetUser(ctx context.Context) (*identity.User, error) {
	u, ok := ctx.Value(userKey).(*identity.User)
	if !ok || u == nil {
		return nil, fmt.Errorf("no user in context")
	}
	return u, nil
}
