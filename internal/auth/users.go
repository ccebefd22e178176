package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
)

// UpdateUserInput carries the mutable user fields. Zero values mean "keep":
// an empty Email leaves the address alone, a nil Active leaves the flag, and
// a nil RoleIDs leaves the assignments (an empty non-nil slice clears them).
type UpdateUserInput struct {
	Email   string
	Active  *bool
	RoleIDs []uuid.UUID
}

// GetUser returns one user of the tenant, roles hydrated.
func (s *Service) GetUser(ctx context.Context, tenantID, userID uuid.UUID) (*identity.User, error) {
	user, err := s.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Database("failed to load user", err)
	}
	return user, nil
}

// ListUsers returns all users of the tenant.
func (s *Service) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]identity.User, error) {
	users, err := s.users.List(ctx, tenantID)
	if err != nil {
		return nil, apperr.Database("failed to list users", err)
	}
	return users, nil
}

// UpdateUser applies the input to the user. Role changes invalidate the
// user's cached permission decisions.
func (s *Service) UpdateUser(ctx context.Context, tenantID, userID uuid.UUID, input UpdateUserInput) (*identity.User, error) {
	user, err := s.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if input.Email != "" {
		email := strings.ToLower(strings.TrimSpace(input.Email))
		if !strings.Contains(email, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		user.Email = email
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	rolesChanged := false
	if input.RoleIDs != nil {
		roles, err := s.resolveRoles(ctx, tenantID, input.RoleIDs)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
		rolesChanged = true
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, identity.ErrUserNotFound):
			return nil, apperr.NotFound("user not found")
		case errors.Is(err, identity.ErrDuplicateEmail):
			return nil, apperr.Conflict("email already registered")
		default:
			return nil, apperr.Database("failed to update user", err)
		}
	}

	if rolesChanged {
		s.rbac.InvalidateUser(user.ID)
	}
	return user, nil
}

// DeleteUser removes the user, their cached permission decisions and every
// session they hold.
func (s *Service) DeleteUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, tenantID, userID); err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Database("failed to delete user", err)
	}

	s.rbac.InvalidateUser(userID)
	if err := s.sessions.RemoveAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to remove sessions of deleted user",
			"user_id", userID, "tenant_id", tenantID, "error", err)
	}
	return nil
}

// CreateRole adds a canonical role of the given type to the tenant catalog.
func (s *Service) CreateRole(ctx context.Context, tenantID uuid.UUID, roleType identity.RoleType) (*identity.Role, error) {
	role, err := rbac.RoleByType(roleType)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if err := s.users.CreateRole(ctx, tenantID, role); err != nil {
		return nil, apperr.Database("failed to create role", err)
	}
	return &role, nil
}

// ListRoles returns the tenant's role catalog.
func (s *Service) ListRoles(ctx context.Context, tenantID uuid.UUID) ([]identity.Role, error) {
	roles, err := s.users.ListRoles(ctx, tenantID)
	if err != nil {
		return nil, apperr.Database("failed to list roles", err)
	}
	return roles, nil
}

// resolveRoles maps role ids onto the tenant catalog.
func (s *Service) resolveRoles(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]identity.Role, error) {
	catalog, err := s.users.ListRoles(ctx, tenantID)
	if err != nil {
		return nil, apperr.Database("failed to list roles", err)
	}

	byID := make(map[uuid.UUID]identity.Role, len(catalog))
	for _, role := range catalog {
		byID[role.ID] = role
	}

	roles := make([]identity.Role, 0, len(ids))
	for _, id := range ids {
		role, ok := byID[id]
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("unknown role %s", id))
		}
		roles = append(roles, role)
	}
	return roles, nil
}
