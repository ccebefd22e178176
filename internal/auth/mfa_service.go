package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/halcyonlabs/halcyon/internal/apperr"
)

// MFASetup is handed to the user exactly once; the secret and backup codes
// are never shown again.
type MFASetup struct {
	Secret      string   `json:"secret"`
	OtpauthURL  string   `json:"otpauth_url"`
	QRPNG       []byte   `json:"qr_png"`
	BackupCodes []string `json:"backup_codes"`
}

// SetupMFA stores a fresh pending secret on the user and returns the
// provisioning material. MFA stays off until EnableMFA proves the user
// enrolled the secret.
func (s *Service) SetupMFA(ctx context.Context, tenantID, userID uuid.UUID) (*MFASetup, error) {
	user, err := s.GetUser(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if user.MFAEnabled {
		return nil, apperr.Conflict("mfa is already enabled")
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		return nil, apperr.Internal("failed to generate mfa secret", err)
	}

	user.MFASecret = secret
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Database("failed to store mfa secret", err)
	}

	qr, err := s.totp.QRCode(user.Email, secret)
	if err != nil {
		return nil, apperr.Internal("failed to render qr code", err)
	}
	codes, err := s.totp.GenerateBackupCodes()
	if err != nil {
		return nil, apperr.Internal("failed to generate backup codes", err)
	}

	return &MFASetup{
		Secret:      secret,
		OtpauthURL:  s.totp.ProvisioningURI(user.Email, secret),
		QRPNG:       qr,
		BackupCodes: codes,
	}, nil
}

// EnableMFA turns MFA on once the user proves possession of the pending
// secret with a valid code.
func (s *Service) EnableMFA(ctx context.Context, tenantID, userID uuid.UUID, code string) error {
	user, err := s.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if user.MFAEnabled {
		return apperr.Conflict("mfa is already enabled")
	}
	if user.MFASecret == "" {
		return apperr.Validation("mfa setup has not been started")
	}
	if !s.totp.Verify(user.MFASecret, code) {
		return apperr.Validation("invalid mfa code")
	}

	user.MFAEnabled = true
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Database("failed to enable mfa", err)
	}
	return nil
}

// DisableMFA turns MFA off and clears the secret. Requires a valid current
// code.
func (s *Service) DisableMFA(ctx context.Context, tenantID, userID uuid.UUID, code string) error {
	user, err := s.GetUser(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !user.MFAEnabled {
		return apperr.Validation("mfa is not enabled")
	}
	if !s.totp.Verify(user.MFASecret, code) {
		return apperr.Validation("invalid mfa code")
	}

	user.MFAEnabled = false
	user.MFASecret = ""
	if err := s.users.Update(ctx, user); err != nil {
		return apperr.Database("failed to disable mfa", err)
	}
	return nil
}
