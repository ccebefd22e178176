package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
)

func TestRegisterCreatesActiveUser(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.svc.Register(context.Background(), identity.Credentials{
		Email:    "  New@X.io ",
		Password: "p1-secret",
		TenantID: env.tenantA,
	})
	require.NoError(t, err)

	assert.Equal(t, "new@x.io", user.Email)
	assert.True(t, user.Active)
	assert.False(t, user.MFAEnabled)
	assert.Empty(t, user.Roles)
	assert.NotEqual(t, "p1-secret", user.PasswordHash)

	// The registered credentials authenticate.
	_, err = env.svc.Authenticate(context.Background(), identity.Credentials{
		Email:    "new@x.io",
		Password: "p1-secret",
		TenantID: env.tenantA,
	})
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, env.tenantA, "dup@x.io", "p1-secret")

	_, err := env.svc.Register(context.Background(), identity.Credentials{
		Email:    "dup@x.io",
		Password: "p2-secret",
		TenantID: env.tenantA,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

// The same email in another tenant is a different account.
func TestRegisterSameEmailOtherTenant(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, env.tenantA, "dup@x.io", "p1-secret")

	_, err := env.svc.Register(context.Background(), identity.Credentials{
		Email:    "dup@x.io",
		Password: "p2-secret",
		TenantID: env.tenantB,
	})
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name  string
		creds identity.Credentials
	}{
		{"no email", identity.Credentials{Password: "p1-secret", TenantID: env.tenantA}},
		{"bad email", identity.Credentials{Email: "not-an-email", Password: "p1-secret", TenantID: env.tenantA}},
		{"short password", identity.Credentials{Email: "a@x.io", Password: "short", TenantID: env.tenantA}},
		{"no tenant", identity.Credentials{Email: "a@x.io", Password: "p1-secret"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Register(context.Background(), tc.creds)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}
