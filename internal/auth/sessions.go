package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/session"
)

// ValidateSession resolves a bearer token to its live session. A token whose
// session is gone from the store has been revoked, however valid its
// signature.
func (s *Service) ValidateSession(ctx context.Context, token string) (*session.Session, error) {
	sess, err := s.sessions.Validate(ctx, token)
	if err != nil {
		if isSessionRejection(err) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Internal("failed to validate session", err)
	}
	return sess, nil
}

// RefreshSession rotates the session, invalidating the old token.
func (s *Service) RefreshSession(ctx context.Context, sessionID uuid.UUID) (*session.Session, error) {
	sess, err := s.sessions.Refresh(ctx, sessionID)
	if err != nil {
		if isSessionRejection(err) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Internal("failed to refresh session", err)
	}
	return sess, nil
}

// Logout revokes one session. Revoking an already-dead session succeeds.
func (s *Service) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Remove(ctx, sessionID); err != nil {
		return apperr.Internal("failed to remove session", err)
	}
	return nil
}

// LogoutAll revokes every session of the user. Idempotent.
func (s *Service) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.RemoveAllForUser(ctx, userID); err != nil {
		return apperr.Internal("failed to remove sessions", err)
	}
	return nil
}

// CheckPermission reports whether the user may perform action on resource.
func (s *Service) CheckPermission(user *identity.User, action identity.Action, resource string) bool {
	return s.rbac.Permitted(user, action, resource)
}

// Authorize loads the caller and enforces a permission, returning the loaded
// user so handlers don't fetch it twice.
func (s *Service) Authorize(ctx context.Context, tenantID, userID uuid.UUID, action identity.Action, resource string) (*identity.User, error) {
	user, err := s.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Database("failed to load user", err)
	}
	if !user.Active {
		return nil, apperr.Unauthenticated()
	}
	if !s.rbac.Permitted(user, action, resource) {
		return nil, apperr.Forbidden("permission denied")
	}
	return user, nil
}

func isSessionRejection(err error) bool {
	return errors.Is(err, session.ErrNotFound) ||
		errors.Is(err, session.ErrInvalidToken) ||
		errors.Is(err, session.ErrExpiredToken)
}
