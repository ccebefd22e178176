package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod  = 30
	totpSkew    = 1
	secretBytes = 20 // 160-bit secret per RFC 4226
	backupCodes = 10
	backupBytes = 4 // 8 hex characters
	qrImageSize = 200
)

// TOTPEngine handles TOTP secret generation and code validation.
type TOTPEngine struct {
	issuer string
}

func NewTOTPEngine(issuer string) *TOTPEngine {
	return &TOTPEngine{
		issuer: issuer,
	}
}

// GenerateSecret creates a new 160-bit TOTP secret, base32 encoded.
func (e *TOTPEngine) GenerateSecret() (string, error) {
	secret := make([]byte, secretBytes)
	if _, err := rand.Read(secret); err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return base32.StdEncoding.EncodeToString(secret), nil
}

// Verify checks the code against the secret, accepting the current step
// plus one step of clock drift either side. Any failure, including a secret
// that is not valid base32, reads as an invalid code.
func (e *TOTPEngine) Verify(secret, code string) bool {
	return e.verifyAt(secret, code, time.Now().UTC())
}

func (e *TOTPEngine) verifyAt(secret, code string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// ProvisioningURI builds the otpauth URL an authenticator app enrolls from.
func (e *TOTPEngine) ProvisioningURI(email, secret string) string {
	params := url.Values{}
	params.Set("secret", secret)
	params.Set("issuer", e.issuer)
	params.Set("digits", "6")
	params.Set("period", fmt.Sprintf("%d", totpPeriod))

	return fmt.Sprintf("otpauth://totp/%s:%s?%s",
		url.PathEscape(e.issuer), url.PathEscape(email), params.Encode())
}

// QRCode renders the provisioning URI as a PNG for display during setup.
func (e *TOTPEngine) QRCode(email, secret string) ([]byte, error) {
	key, err := otp.NewKeyFromURL(e.ProvisioningURI(email, secret))
	if err != nil {
		return nil, fmt.Errorf("failed to build provisioning key: %w", err)
	}

	img, err := key.Image(qrImageSize, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateBackupCodes creates single-use recovery codes, 8 hex characters
// each. Returns the raw codes; the caller enforces single use.
func (e *TOTPEngine) GenerateBackupCodes() ([]string, error) {
	codes := make([]string, backupCodes)
	buf := make([]byte, backupBytes)
	for i := range codes {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = hex.EncodeToString(buf)
	}
	return codes, nil
}

// GenerateCode produces the current code for a secret (helper for testing
// and provisioning tooling).
func (e *TOTPEngine) GenerateCode(secret string) (string, error) {
	return totp.GenerateCode(secret, time.Now().UTC())
}
