package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/cryptox"
	"github.com/crewtask/crewtask/pkg/idx"
	"github.com/crewtask/crewtask/pkg/jwtx"
	"github.com/crewtask/crewtask/pkg/lockout"
	"github.com/crewtask/crewtask/pkg/slogx"
	"github.com/crewtask/crewtask/pkg/totpx"
)

const (
	// DefaultMinAuthDuration is the wall-clock floor for Login. Every call
	// takes at least this long, so response time does not reveal where in
	// the credential checks a request failed.
	DefaultMinAuthDuration = 1 * time.Second

	// DefaultLoginAttempts is how many password failures an identity may
	// accumulate before being locked out.
	DefaultLoginAttempts = 3

	// DefaultCodeAttempts is how many verification code failures an
	// identity may accumulate before being locked out.
	DefaultCodeAttempts = 3

	// DefaultLockoutWindow is how long a lockout lasts.
	DefaultLockoutWindow = 10 * time.Minute
)

// AuthService orchestrates registration and the two-factor login flow.
// Login reports every credential failure as ErrAuthenticationFailed and
// holds responses to a minimum duration, so callers cannot distinguish an
// unknown username from a wrong password or a wrong code.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Issuer string

	AccessTTL       time.Duration
	MinAuthDuration time.Duration

	// LoginAttempts tracks password failures, CodeAttempts tracks
	// verification code failures. The two counters are independent and
	// keyed by the normalized username; only shape failures that never
	// reach normalization are recorded against the submitted form.
	LoginAttempts *lockout.Tracker
	CodeAttempts  *lockout.Tracker
}

// NewAuthService builds an AuthService with the default limits.
func NewAuthService(st store.Store, signer *jwtx.Signer, issuer string) *AuthService {
	return &AuthService{
		Store:           st,
		Signer:          signer,
		Issuer:          issuer,
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		MinAuthDuration: DefaultMinAuthDuration,
		LoginAttempts:   lockout.New(DefaultLoginAttempts, DefaultLockoutWindow),
		CodeAttempts:    lockout.New(DefaultCodeAttempts, DefaultLockoutWindow),
	}
}

// Register creates a user with the default role, a fresh TOTP secret and an
// Argon2id password hash, and returns the provisioning URI the user needs
// to enroll their authenticator.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.RegisterResult, error) {
	if err := ValidateUsername(username); err != nil {
		return domain.RegisterResult{}, err
	}
	if err := ValidatePassword(password); err != nil {
		return domain.RegisterResult{}, err
	}

	normalized := NormalizeUsername(username)

	// Reject duplicates early for a friendlier error; the unique index
	// still backstops races.
	if _, err := s.Store.Users().GetUserByUsername(ctx, normalized); err == nil {
		return domain.RegisterResult{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	salt, err := cryptox.GenerateSalt()
	if err != nil {
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	secret, err := totpx.GenerateSecret()
	if err != nil {
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     normalized,
		PasswordHash: hash,
		PasswordSalt: salt,
		TOTPSecret:   secret,
	}

	// Create the user and assign the default role atomically
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrUsernameTaken
			}
			return err
		}

		role, err := tx.Roles().GetSystemRoleByName(ctx, domain.RoleTodoUser)
		if err != nil {
			return fmt.Errorf("default role lookup: %w", err)
		}
		return tx.Roles().AssignSystemRole(ctx, user.ID, role.ID)
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return domain.RegisterResult{}, ErrUsernameTaken
		}
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	uri, err := totpx.ProvisioningURI(secret, normalized, s.Issuer)
	if err != nil {
		return domain.RegisterResult{}, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", normalized)

	return domain.RegisterResult{
		User:            user.Public(domain.RoleTodoUser),
		ProvisioningURI: uri,
	}, nil
}

// Login checks username, password and verification code in a single call
// and returns a signed access token. The call always takes at least
// MinAuthDuration regardless of outcome.
func (s *AuthService) Login(ctx context.Context, username, password, code string) (domain.LoginResult, error) {
	start := time.Now()

	result, err := s.login(ctx, username, password, code)

	// Pad to the minimum duration so the failure point is not observable
	// from response latency. The wait is unconditional; a client that
	// disconnects still waits out the floor.
	if elapsed := time.Since(start); elapsed < s.MinAuthDuration {
		time.Sleep(s.MinAuthDuration - elapsed)
	}

	return result, err
}

func (s *AuthService) login(ctx context.Context, username, password, code string) (domain.LoginResult, error) {
	log := slogx.FromContext(ctx)

	// Shape checks run first and fail closed into the generic error so the
	// response does not reveal the validation rules to a probing client.
	// A malformed username may not normalize to anything real, so this
	// failure alone is recorded against the submitted form.
	if ValidateUsername(username) != nil || ValidatePassword(password) != nil || ValidateTOTPCode(code) != nil {
		s.LoginAttempts.Fail(username)
		return domain.LoginResult{}, ErrAuthenticationFailed
	}

	// Everything past this point keys the trackers by the normalized
	// username, so "Alice" and "alice" drain the same failure budget.
	normalized := NormalizeUsername(username)

	if s.LoginAttempts.Locked(normalized) {
		log.Warn("login rejected, identity locked out", "username", normalized)
		return domain.LoginResult{}, ErrRateLimited
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same hashing work an existing user would cost
			_ = cryptox.VerifyPassword(password, cryptox.DummyHash)
			s.LoginAttempts.Fail(normalized)
			return domain.LoginResult{}, ErrAuthenticationFailed
		}
		return domain.LoginResult{}, fmt.Errorf("user lookup: %w", err)
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		s.LoginAttempts.Fail(normalized)
		return domain.LoginResult{}, ErrAuthenticationFailed
	}

	if user.TOTPSecret == "" {
		return domain.LoginResult{}, ErrNotProvisioned
	}

	if s.CodeAttempts.Locked(normalized) {
		log.Warn("login rejected, code attempts locked out", "username", normalized)
		return domain.LoginResult{}, ErrTooMany2FAAttempts
	}

	if !totpx.Verify(user.TOTPSecret, code) {
		s.CodeAttempts.Fail(normalized)
		return domain.LoginResult{}, ErrAuthenticationFailed
	}

	// Full success clears both counters
	s.LoginAttempts.Clear(normalized)
	s.CodeAttempts.Clear(normalized)

	role, err := s.primaryRole(ctx, user.ID)
	if err != nil {
		return domain.LoginResult{}, err
	}

	claims := jwtx.NewAccessClaims(user.ID, role, user.Username, s.AccessTTL, s.Issuer, time.Now())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("token signing: %w", err)
	}

	log.Info("login succeeded", "user_id", user.ID, "username", user.Username)

	return domain.LoginResult{
		Token: token,
		Role:  role,
		User:  user.Public(role),
	}, nil
}

// primaryRole returns the user's first assigned system role, falling back
// to the default role when no assignment exists.
func (s *AuthService) primaryRole(ctx context.Context, userID string) (string, error) {
	roles, err := s.Store.Roles().ListUserSystemRoles(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("role lookup: %w", err)
	}
	if len(roles) == 0 {
		return domain.RoleTodoUser, nil
	}
	return roles[0].Name, nil
}
