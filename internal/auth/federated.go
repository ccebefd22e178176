package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/metrics"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// ExternalIdentity is an assertion already verified by an external SAML or
// OIDC collaborator. This service never sees the upstream exchange.
type ExternalIdentity struct {
	Provider string
	Subject  string
	Email    string
	TenantID uuid.UUID
}

// AuthenticateExternal issues a session for a federated login, provisioning
// a local user on first sight. The provisioned account carries a random
// unusable password and no roles.
func (s *Service) AuthenticateExternal(ctx context.Context, ext ExternalIdentity) (*session.Session, error) {
	email := strings.ToLower(strings.TrimSpace(ext.Email))
	if email == "" || ext.TenantID == uuid.Nil {
		return nil, apperr.Validation("email and tenant_id are required")
	}

	ten, err := s.tenants.GetByID(ctx, ext.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, apperr.Unauthenticated()
		}
		return nil, apperr.Database("failed to load tenant", err)
	}
	if !ten.Active {
		return nil, apperr.Unauthenticated()
	}

	user, err := s.users.GetByEmail(ctx, ext.TenantID, email)
	switch {
	case errors.Is(err, identity.ErrUserNotFound):
		user, err = s.provisionExternal(ctx, ext.TenantID, email)
		if err != nil {
			return nil, err
		}
		s.logger.Info("provisioned federated user",
			"user_id", user.ID, "tenant_id", user.TenantID, "provider", ext.Provider)
	case err != nil:
		return nil, apperr.Database("failed to load user", err)
	case !user.Active:
		return nil, apperr.Unauthenticated()
	}

	if err := s.users.UpdateLastLogin(ctx, user.TenantID, user.ID); err != nil {
		s.logger.Warn("failed to update last_login",
			"user_id", user.ID, "tenant_id", user.TenantID, "error", err)
		metrics.LastLoginFailures.Inc()
	}

	sess, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, apperr.Internal("failed to create session", err)
	}
	return sess, nil
}

func (s *Service) provisionExternal(ctx context.Context, tenantID uuid.UUID, email string) (*identity.User, error) {
	// The account authenticates only through the external provider; the
	// password exists to satisfy the schema and is never disclosed.
	hash, err := s.hasher.Hash(uuid.NewString() + uuid.NewString())
	if err != nil {
		return nil, apperr.Internal("failed to hash placeholder password", err)
	}

	user := &identity.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []identity.Role{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			// Lost a race against a concurrent first login; use theirs.
			existing, getErr := s.users.GetByEmail(ctx, tenantID, email)
			if getErr != nil {
				return nil, apperr.Database("failed to load user", getErr)
			}
			return existing, nil
		}
		return nil, apperr.Database("failed to provision user", err)
	}
	return user, nil
}
