package service

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 128
	passwordSpecials  = "@$!%*?&"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)
	totpCodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// ValidateUsername checks the raw (pre-normalization) username against the
// allowed character set and length bounds.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 characters of letters, digits, dot, underscore or hyphen", ErrValidation)
	}
	return nil
}

// NormalizeUsername lowercases a username for storage, lookup and rate
// limit keys.
func NormalizeUsername(username string) string {
	return strings.ToLower(username)
}

// ValidatePassword enforces the password policy: length bounds, at least
// one uppercase, lowercase, digit and special character, and no characters
// outside the allowed set. Checked with a single pass since RE2 has no
// lookaheads.
func ValidatePassword(password string) error {
	if len(password) < passwordMinLength || len(password) > passwordMaxLength {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrValidation, passwordMinLength, passwordMaxLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
		case c >= 'a' && c <= 'z':
			hasLower = true
		case c >= '0' && c <= '9':
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, c):
			hasSpecial = true
		default:
			return fmt.Errorf("%w: password contains a disallowed character", ErrValidation)
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return fmt.Errorf("%w: password must contain an uppercase letter, a lowercase letter, a digit and one of %q", ErrValidation, passwordSpecials)
	}
	return nil
}

// ValidateTOTPCode checks the code shape before any cryptographic work.
func ValidateTOTPCode(code string) error {
	if !totpCodePattern.MatchString(code) {
		return fmt.Errorf("%w: verification code must be exactly 6 digits", ErrValidation)
	}
	return nil
}
