package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

const minPasswordLength = 8

// Register creates an active user with MFA off and no roles.
func (s *Service) Register(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(creds.Password) < minPasswordLength {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	if creds.TenantID == uuid.Nil {
		return nil, apperr.Validation("tenant_id is required")
	}

	if _, err := s.tenants.GetByID(ctx, creds.TenantID); err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, apperr.Validation("unknown tenant")
		}
		return nil, apperr.Database("failed to load tenant", err)
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return nil, apperr.Internal("failed to hash password", err)
	}

	user := &identity.User{
		ID:           uuid.New(),
		TenantID:     creds.TenantID,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		Roles:        []identity.Role{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Database("failed to create user", err)
	}
	return user, nil
}
