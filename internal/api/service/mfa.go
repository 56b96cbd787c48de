package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/lockout"
	"github.com/crewtask/crewtask/pkg/slogx"
	"github.com/crewtask/crewtask/pkg/totpx"
)

// MFAService manages authenticator enrollment for existing accounts.
// Registration already provisions a secret, so Setup is mostly for
// accounts created before enrollment was mandatory; Reset rotates the
// secret when a user loses their device.
type MFAService struct {
	Store  store.Store
	Issuer string

	// CodeAttempts throttles standalone code verification. Shared with
	// AuthService so standalone checks and login drain the same budget.
	CodeAttempts *lockout.Tracker
}

// Setup returns the provisioning URI for the user's current secret,
// generating and storing one first if the account has none.
func (s *MFAService) Setup(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("user lookup: %w", err)
	}

	secret := user.TOTPSecret
	if secret == "" {
		secret, err = totpx.GenerateSecret()
		if err != nil {
			return "", fmt.Errorf("secret generation: %w", err)
		}
		if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, secret); err != nil {
			return "", fmt.Errorf("secret storage: %w", err)
		}
	}

	return totpx.ProvisioningURI(secret, user.Username, s.Issuer)
}

// VerifyCode reports whether the submitted code is currently valid for the
// user's secret. Used to confirm enrollment after scanning the QR code.
// Failures count toward the same 2FA lockout budget as the login flow.
func (s *MFAService) VerifyCode(ctx context.Context, userID, code string) (bool, error) {
	if err := ValidateTOTPCode(code); err != nil {
		return false, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("user lookup: %w", err)
	}
	if user.TOTPSecret == "" {
		return false, ErrNotProvisioned
	}

	if s.CodeAttempts.Locked(user.Username) {
		return false, ErrTooMany2FAAttempts
	}

	if !totpx.Verify(user.TOTPSecret, code) {
		s.CodeAttempts.Fail(user.Username)
		return false, nil
	}

	s.CodeAttempts.Clear(user.Username)
	return true, nil
}

// Reset unconditionally replaces the user's secret and returns the new
// provisioning URI. Codes from the old secret stop working immediately.
func (s *MFAService) Reset(ctx context.Context, userID string) (string, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("user lookup: %w", err)
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return "", fmt.Errorf("secret generation: %w", err)
	}
	if err := s.Store.Users().UpdateTOTPSecret(ctx, userID, secret); err != nil {
		return "", fmt.Errorf("secret storage: %w", err)
	}

	slogx.FromContext(ctx).Info("totp secret rotated", "user_id", userID)

	return totpx.ProvisioningURI(secret, user.Username, s.Issuer)
}
