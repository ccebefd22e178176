package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/auth"
	"github.com/halcyonlabs/halcyon/internal/identity"
)

func TestAuthenticateExternalProvisionsOnFirstLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, err := env.svc.AuthenticateExternal(ctx, auth.ExternalIdentity{
		Provider: "okta-saml",
		Subject:  "ext-123",
		Email:    "SSO@x.io",
		TenantID: env.tenantA,
	})
	require.NoError(t, err)
	assert.Equal(t, env.tenantA, sess.TenantID)

	// The provisioned account exists, is active and has no roles.
	user, err := env.users.GetByEmail(ctx, env.tenantA, "sso@x.io")
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Empty(t, user.Roles)
	assert.Equal(t, sess.UserID, user.ID)

	// A second federated login reuses the account.
	again, err := env.svc.AuthenticateExternal(ctx, auth.ExternalIdentity{
		Provider: "okta-saml",
		Subject:  "ext-123",
		Email:    "sso@x.io",
		TenantID: env.tenantA,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.UserID)
}

func TestAuthenticateExternalExistingUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, env.tenantA, "user@x.io", "p1-secret")

	sess, err := env.svc.AuthenticateExternal(context.Background(), auth.ExternalIdentity{
		Provider: "oidc",
		Subject:  "sub",
		Email:    "user@x.io",
		TenantID: env.tenantA,
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.UserID)
}

func TestAuthenticateExternalInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, env.tenantA, "user@x.io", "p1-secret", func(u *identity.User) {
		u.Active = false
	})

	_, err := env.svc.AuthenticateExternal(context.Background(), auth.ExternalIdentity{
		Provider: "oidc",
		Subject:  "sub",
		Email:    "user@x.io",
		TenantID: env.tenantA,
	})
	assert.ErrorIs(t, err, apperr.Unauthenticated())
}

func TestAuthenticateExternalValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AuthenticateExternal(context.Background(), auth.ExternalIdentity{
		Provider: "oidc",
		Subject:  "sub",
		TenantID: env.tenantA,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
