package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
)

// Service wraps the repository with input validation and error mapping.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput defines the input for creating a new tenant.
type CreateInput struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// UpdateInput defines the input for updating a tenant. Zero-valued fields
// keep their current value; Active is a pointer so false is expressible.
type UpdateInput struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Active *bool  `json:"active"`
}

// Create registers a new tenant with a normalized domain.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Tenant, error) {
	name := strings.TrimSpace(input.Name)
	domain := normalizeDomain(input.Domain)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if domain == "" {
		return nil, apperr.Validation("domain is required")
	}

	t := New(name, domain)
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, ErrDuplicateDomain) {
			return nil, apperr.Conflict("domain already registered")
		}
		return nil, apperr.Database("failed to create tenant", err)
	}
	return t, nil
}

// Get returns the tenant by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("tenant not found")
		}
		return nil, apperr.Database("failed to load tenant", err)
	}
	return t, nil
}

// GetByDomain resolves the tenant owning a domain.
func (s *Service) GetByDomain(ctx context.Context, domain string) (*Tenant, error) {
	t, err := s.repo.GetByDomain(ctx, normalizeDomain(domain))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("tenant not found")
		}
		return nil, apperr.Database("failed to load tenant", err)
	}
	return t, nil
}

// Update applies the given fields to the tenant and persists it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*Tenant, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		t.Name = name
	}
	if domain := normalizeDomain(input.Domain); domain != "" {
		t.Domain = domain
	}
	if input.Active != nil {
		t.Active = *input.Active
	}
	t.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, apperr.NotFound("tenant not found")
		case errors.Is(err, ErrDuplicateDomain):
			return nil, apperr.Conflict("domain already registered")
		default:
			return nil, apperr.Database("failed to update tenant", err)
		}
	}
	return t, nil
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Database("failed to list tenants", err)
	}
	return tenants, nil
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}
