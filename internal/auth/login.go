package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
	"github.com/halcyonlabs/halcyon/internal/identity"
	"github.com/halcyonlabs/halcyon/internal/metrics"
	"github.com/halcyonlabs/halcyon/internal/session"
	"github.com/halcyonlabs/halcyon/internal/tenant"
)

// Authenticate runs the login state machine and returns a live session.
// Every credential failure collapses to Unauthenticated so the response
// never reveals which check rejected the attempt.
func (s *Service) Authenticate(ctx context.Context, creds identity.Credentials) (*session.Session, error) {
	sess, err := s.login(ctx, creds)

	switch {
	case err == nil:
		metrics.LoginAttempts.WithLabelValues(metrics.LoginSuccess).Inc()
	case errors.Is(err, apperr.MFARequired()):
		metrics.LoginAttempts.WithLabelValues(metrics.LoginMFARequired).Inc()
	case errors.Is(err, apperr.Unauthenticated()):
		metrics.LoginAttempts.WithLabelValues(metrics.LoginUnauthenticated).Inc()
	default:
		metrics.LoginAttempts.WithLabelValues(metrics.LoginError).Inc()
	}
	return sess, err
}

// AuthenticateWithMFA is Authenticate with the TOTP code supplied out of
// band, for clients that collect the code in a second step.
func (s *Service) AuthenticateWithMFA(ctx context.Context, creds identity.Credentials, code string) (*session.Session, error) {
	creds.MFACode = code
	return s.Authenticate(ctx, creds)
}

func (s *Service) login(ctx context.Context, creds identity.Credentials) (*session.Session, error) {
	if creds.TenantID == uuid.Nil {
		return nil, apperr.Validation("tenant_id is required")
	}

	// 1. The tenant must exist and be active; an inactive tenant disables
	// all authentication.
	ten, err := s.tenants.GetByID(ctx, creds.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return nil, s.rejectAfterDummyVerify(creds.Password)
		}
		return nil, apperr.Database("failed to load tenant", err)
	}
	if !ten.Active {
		return nil, s.rejectAfterDummyVerify(creds.Password)
	}

	// 2. Resolve the user inside the tenant-bound unit of work.
	user, err := s.users.GetByEmail(ctx, creds.TenantID, creds.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, s.rejectAfterDummyVerify(creds.Password)
		}
		return nil, apperr.Database("failed to load user", err)
	}
	if !user.Active {
		return nil, s.rejectAfterDummyVerify(creds.Password)
	}

	// 3. Verify the password. A parse error means the stored hash is
	// corrupt: the server is broken, not the user.
	ok, err := s.hasher.Verify(creds.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable",
			"user_id", user.ID, "tenant_id", user.TenantID, "error", err)
		return nil, apperr.Internal("credential verification failed", err)
	}
	if !ok {
		return nil, apperr.Unauthenticated()
	}

	// 4. MFA gate. Missing code prompts the client; a wrong code is a
	// credential failure like any other.
	if user.MFAEnabled {
		if creds.MFACode == "" {
			return nil, apperr.MFARequired()
		}
		if !s.totp.Verify(user.MFASecret, creds.MFACode) {
			return nil, apperr.Unauthenticated()
		}
	}

	// 5. Best-effort last_login stamp; never fails the login.
	if err := s.users.UpdateLastLogin(ctx, user.TenantID, user.ID); err != nil {
		s.logger.Warn("failed to update last_login",
			"user_id", user.ID, "tenant_id", user.TenantID, "error", err)
		metrics.LastLoginFailures.Inc()
	}

	// 6. Issue the session.
	sess, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, apperr.Internal("failed to create session", err)
	}
	return sess, nil
}

// rejectAfterDummyVerify burns a verification against a fixed hash so the
// unknown-user branch takes as long as a wrong-password one.
func (s *Service) rejectAfterDummyVerify(password string) error {
	_, _ = s.hasher.Verify(password, s.dummyHash)
	return apperr.Unauthenticated()
}
