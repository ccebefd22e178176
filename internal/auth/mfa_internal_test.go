package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The skew contract: codes from the current step and exactly one step
// either side verify, anything further out does not. Pinning the clock
// keeps the assertions exact.
func TestVerifyAtSkewWindow(t *testing.T) {
	engine := NewTOTPEngine("Halcyon")
	secret := "JBSWY3DPEHPK3PXP"
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	codeAt := func(offset time.Duration) string {
		code, err := totp.GenerateCodeCustom(secret, at.Add(offset), totp.ValidateOpts{
			Period:    30,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)
		return code
	}

	inWindow := make(map[string]bool)
	for _, offset := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		inWindow[codeAt(offset)] = true
	}

	for code := range inWindow {
		assert.True(t, engine.verifyAt(secret, code, at))
	}

	// Distinct counters can, rarely, emit the same six digits; only assert
	// rejection for codes that do not collide with the accepted window.
	for _, offset := range []time.Duration{-60 * time.Second, 60 * time.Second} {
		if code := codeAt(offset); !inWindow[code] {
			assert.False(t, engine.verifyAt(secret, code, at))
		}
	}
}
