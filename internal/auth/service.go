// Package auth orchestrates authentication: credential verification, MFA,
// session issuance and user administration. It is agnostic of the HTTP
// transport and of the storage drivers behind its collaborators.
package auth

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/rbac"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// Service wires the authentication flow together.
type Service struct {
	users    identity.Repository
	tenants  tenant.Repository
	hasher   PasswordHasher
	totp     *TOTPEngine
	sessions *session.Manager
	rbac     *rbac.Evaluator
	logger   *slog.Logger

	// dummyHash is verified on the unknown-user and inactive-user branches
	// so their timing matches a real password check.
	dummyHash string
}

func NewService(
	users identity.Repository,
	tenants tenant.Repository,
	hasher PasswordHasher,
	totp *TOTPEngine,
	sessions *session.Manager,
	evaluator *rbac.Evaluator,
	logger *slog.Logger,
) (*Service, error) {
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("compute dummy hash: %w", err)
	}

	return &Service{
		users:     users,
		tenants:   tenants,
		hasher:    hasher,
		totp:      totp,
		sessions:  sessions,
		rbac:      evaluator,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}
