package tenant_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// fakeRepository keeps tenants in memory and enforces domain uniqueness.
type fakeRepository struct {
	tenants map[uuid.UUID]tenant.Tenant
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{tenants: make(map[uuid.UUID]tenant.Tenant)}
}

func (f *fakeRepository) Create(_ context.Context, t *tenant.Tenant) error {
	for _, existing := range f.tenants {
		if existing.Domain == t.Domain {
			return tenant.ErrDuplicateDomain
		}
	}
	f.tenants[t.ID] = *t
	return nil
}

func (f *fakeRepository) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, ok := f.tenants[id]
	if !ok {
		return nil, tenant.ErrNotFound
	}
	return &t, nil
}

func (f *fakeRepository) GetByDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	for _, t := range f.tenants {
		if t.Domain == domain {
			return &t, nil
		}
	}
	return nil, tenant.ErrNotFound
}

func (f *fakeRepository) Update(_ context.Context, t *tenant.Tenant) error {
	if _, ok := f.tenants[t.ID]; !ok {
		return tenant.ErrNotFound
	}
	for id, existing := range f.tenants {
		if id != t.ID && existing.Domain == t.Domain {
			return tenant.ErrDuplicateDomain
		}
	}
	f.tenants[t.ID] = *t
	return nil
}

func (f *fakeRepository) List(_ context.Context) ([]tenant.Tenant, error) {
	out := make([]tenant.Tenant, 0, len(f.tenants))
	for _, t := range f.tenants {
		out = append(out, t)
	}
	return out, nil
}

func TestServiceCreateNormalizesDomain(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())

	ten, err := svc.Create(context.Background(), tenant.CreateInput{
		Name:   "  Acme  ",
		Domain: " ACME.Test ",
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme", ten.Name)
	assert.Equal(t, "acme.test", ten.Domain)
	assert.True(t, ten.Active)
	assert.NotEqual(t, uuid.Nil, ten.ID)
}

func TestServiceCreateValidation(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())

	_, err := svc.Create(context.Background(), tenant.CreateInput{Domain: "acme.test"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), tenant.CreateInput{Name: "Acme"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestServiceCreateDuplicateDomain(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenant.CreateInput{Name: "Acme", Domain: "acme.test"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, tenant.CreateInput{Name: "Other", Domain: "ACME.test"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestServiceGetUnknownTenant(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestServiceUpdateAppliesFields(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, tenant.CreateInput{Name: "Acme", Domain: "acme.test"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, created.ID, tenant.UpdateInput{
		Name:   "Acme Corp",
		Active: &inactive,
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.Equal(t, "acme.test", updated.Domain, "unset domain keeps current value")
	assert.False(t, updated.Active)
}

func TestServiceGetByDomainNormalizes(t *testing.T) {
	svc := tenant.NewService(newFakeRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, tenant.CreateInput{Name: "Acme", Domain: "acme.test"})
	require.NoError(t, err)

	found, err := svc.GetByDomain(ctx, "  ACME.TEST ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
