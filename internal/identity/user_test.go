package identity_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/identity"
)

func TestUserSerializationHidesSecrets(t *testing.T) {
	user := identity.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "alice@acme.test",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Active:       true,
		MFAEnabled:   true,
		MFASecret:    "JBSWY3DPEHPK3PXP",
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	body := string(data)
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "argon2id")
	assert.NotContains(t, body, "mfa_secret")
	assert.NotContains(t, body, "JBSWY3DPEHPK3PXP")
	assert.Contains(t, body, "alice@acme.test")
}

func TestCredentialsMFACodeOmittedWhenEmpty(t *testing.T) {
	creds := identity.Credentials{
		Email:    "alice@acme.test",
		Password: "hunter2!",
		TenantID: uuid.New(),
	}

	data, err := json.Marshal(creds)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "mfa_code")
}
