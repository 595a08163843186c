// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"crypto/subtle"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/morganforge/studypal/internal/config"
)

// =============================================================================
// UNLOCK VERIFIER
// =============================================================================

// Verifier checks unlock codes against the configured gate. Three methods
/// are supported, tried in order: a static PIN compared in constant time, a
// bcrypt PIN hash, and a TOTP secret for one-time codes.
type Verifier struct {
	pin        string
	pinHash    string
	totpSecret string
}

// NewVerifier builds a verifier from the security configuration.
func NewVerifier(cfg config.SecurityConfig) *Verifier {
	return &Verifier{
		pin:        cfg.PIN,
		pinHash:    cfg.PINHash,
		totpSecret: cfg.TOTPSecret,
	}
}

// Verify reports whether code unlocks the chat interface.
func (v *Verifier) Verify(code string) bool {
	if code == "" {
		return false
	}
	if v.pin != "" &&
		subtle.ConstantTimeCompare([]byte(code), []byte(v.pin)) == 1 {
		return true
	}
	if v.pinHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(v.pinHash), []byte(code)) == nil {
		return true
	}
	if v.totpSecret != "" &&
		totp.Validate(code, v.totpSecret) {
		return true
	}
	return false
}

// ValidateTOTPAt exists for tests that need a deterministic clock.
func (v *Verifier) ValidateTOTPAt(code string, t time.Time) bool {
	if v.totpSecret == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, v.totpSecret, t, totp.ValidateOpts{
		Period: 30,
		Skew:   1,
		Digits: otp.DigitsSix,
	})
	return err == nil && ok
}
