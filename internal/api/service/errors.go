package service

import "errors"

var (
	// ErrValidation means the request payload failed input validation.
	ErrValidation = errors.New("validation_failed")

	// ErrUsernameTaken means registration was attempted with an existing username.
	ErrUsernameTaken = errors.New("username_taken")

	// ErrRegistrationFailed wraps unexpected storage failures during signup.
	ErrRegistrationFailed = errors.New("registration_failed")

	// ErrAuthenticationFailed is the single failure reported for bad
	// credentials. Unknown user, wrong password and wrong code all map to
	// it so the response does not leak which part was wrong.
	ErrAuthenticationFailed = errors.New("authentication_failed")

	// ErrRateLimited means the identity has exceeded the allowed login
	// failures and is temporarily locked out.
	ErrRateLimited = errors.New("too_many_attempts")

	// ErrTooMany2FAAttempts means the identity has exceeded the allowed
	// verification code failures.
	ErrTooMany2FAAttempts = errors.New("too_many_code_attempts")

	// ErrNotProvisioned means the account has no TOTP secret enrolled yet.
	ErrNotProvisioned = errors.New("mfa_not_provisioned")

	// ErrForbidden means the caller is authenticated but not allowed to
	// perform the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the requested resource does not exist.
	ErrNotFound = errors.New("not_found")
)
