package service

import (
	"context"
	"testing"
	"time"

	"github.com/crewtask/crewtask/internal/api/domain"
	"github.com/crewtask/crewtask/internal/api/store/drivers/sqlite"
	"github.com/crewtask/crewtask/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const (
	testUsername = "alice"
	testPassword = "Sup3rSecret!"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()

	pemKey, err := jwtx.LoadOrGenerateKey("")
	require.NoError(t, err)
	signer, err := jwtx.NewSigner("test-key", pemKey)
	require.NoError(t, err)

	svc := NewAuthService(newTestStore(t), signer, "crewtask-test")
	svc.MinAuthDuration = 10 * time.Millisecond // keep tests fast
	return svc
}

// currentCode derives the code an authenticator app would display right now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()

	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func registerTestUser(t *testing.T, svc *AuthService) (domain.RegisterResult, string) {
	t.Helper()

	ctx := context.Background()
	res, err := svc.Register(ctx, testUsername, testPassword)
	require.NoError(t, err)

	user, err := svc.Store.Users().GetUserByUsername(ctx, testUsername)
	require.NoError(t, err)
	require.NotEmpty(t, user.TOTPSecret)

	return res, user.TOTPSecret
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user with default role and provisioning uri", func(t *testing.T) {
		svc := newTestAuth(t)

		res, secret := registerTestUser(t, svc)
		require.Equal(t, testUsername, res.User.Username)
		require.Equal(t, domain.RoleTodoUser, res.User.Role)
		require.Contains(t, res.ProvisioningURI, "otpauth://totp/")
		require.Contains(t, res.ProvisioningURI, "crewtask-test")
		require.NotEmpty(t, secret)

		user, err := svc.Store.Users().GetUserByUsername(ctx, testUsername)
		require.NoError(t, err)
		require.NotEqual(t, testPassword, user.PasswordHash)
	})

	t.Run("normalizes username to lowercase", func(t *testing.T) {
		svc := newTestAuth(t)

		res, err := svc.Register(ctx, "Bob.Smith", testPassword)
		require.NoError(t, err)
		require.Equal(t, "bob.smith", res.User.Username)
	})

	t.Run("rejects duplicates case-insensitively", func(t *testing.T) {
		svc := newTestAuth(t)
		registerTestUser(t, svc)

		_, err := svc.Register(ctx, "ALICE", testPassword)
		require.ErrorIs(t, err, ErrUsernameTaken)
	})

	t.Run("rejects malformed usernames", func(t *testing.T) {
		svc := newTestAuth(t)

		for _, username := range []string{"ab", "has space", "way@bad", ""} {
			_, err := svc.Register(ctx, username, testPassword)
			require.ErrorIs(t, err, ErrValidation, "username %q", username)
		}
	})

	t.Run("rejects weak passwords", func(t *testing.T) {
		svc := newTestAuth(t)

		for _, password := range []string{
			"short1!",     // too short
			"alllower1!",  // no uppercase
			"ALLUPPER1!",  // no lowercase
			"NoDigits!!",  // no digit
			"NoSpecial11", // no special
			"Bad Space1!", // disallowed character
		} {
			_, err := svc.Register(ctx, testUsername, password)
			require.ErrorIs(t, err, ErrValidation, "password %q", password)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a verifiable token on success", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		res, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.NoError(t, err)
		require.Equal(t, domain.RoleTodoUser, res.Role)
		require.Equal(t, testUsername, res.User.Username)

		verifier := jwtx.NewVerifier(svc.Signer.PublicKey(), svc.Issuer)
		claims, err := verifier.Verify(res.Token)
		require.NoError(t, err)
		require.Equal(t, res.User.ID, claims.Subject)
		require.Equal(t, domain.RoleTodoUser, claims.Role)
		require.Equal(t, testUsername, claims.Username)
	})

	t.Run("accepts any username casing", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		_, err := svc.Login(ctx, "Alice", testPassword, currentCode(t, secret))
		require.NoError(t, err)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)
		code := currentCode(t, secret)

		_, errUnknown := svc.Login(ctx, "nobody", testPassword, code)
		_, errWrongPass := svc.Login(ctx, testUsername, "Wr0ngPass!", code)

		require.ErrorIs(t, errUnknown, ErrAuthenticationFailed)
		require.ErrorIs(t, errWrongPass, ErrAuthenticationFailed)
		require.EqualError(t, errUnknown, errWrongPass.Error())
	})

	t.Run("rejects wrong and malformed codes", func(t *testing.T) {
		svc := newTestAuth(t)
		registerTestUser(t, svc)

		_, err := svc.Login(ctx, testUsername, testPassword, "000000")
		require.ErrorIs(t, err, ErrAuthenticationFailed)

		_, err = svc.Login(ctx, testUsername, testPassword, "not-a-code")
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("rejects stale codes", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		stale, err := totp.GenerateCodeCustom(secret, time.Now().UTC().Add(-5*time.Minute), totp.ValidateOpts{
			Period:    30,
			Skew:      1,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		require.NoError(t, err)

		_, err = svc.Login(ctx, testUsername, testPassword, stale)
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("takes at least the minimum duration", func(t *testing.T) {
		svc := newTestAuth(t)
		svc.MinAuthDuration = 150 * time.Millisecond
		registerTestUser(t, svc)

		for name, attempt := range map[string]func() error{
			"unknown user": func() error {
				_, err := svc.Login(ctx, "nobody", testPassword, "123456")
				return err
			},
			"wrong password": func() error {
				_, err := svc.Login(ctx, testUsername, "Wr0ngPass!", "123456")
				return err
			},
		} {
			start := time.Now()
			require.Error(t, attempt(), name)
			require.GreaterOrEqual(t, time.Since(start), svc.MinAuthDuration, name)
		}
	})

	t.Run("latency floor holds when the caller cancels", func(t *testing.T) {
		svc := newTestAuth(t)
		svc.MinAuthDuration = 150 * time.Millisecond
		registerTestUser(t, svc)

		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		_, err := svc.Login(cancelCtx, testUsername, "Wr0ngPass!", "123456")
		require.ErrorIs(t, err, ErrAuthenticationFailed)
		require.GreaterOrEqual(t, time.Since(start), svc.MinAuthDuration)
	})
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()

	t.Run("locks out after repeated password failures", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		for range DefaultLoginAttempts {
			_, err := svc.Login(ctx, testUsername, "Wr0ngPass!", "123456")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		// Correct credentials no longer help
		_, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("locks out codes separately from passwords", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		for range DefaultCodeAttempts {
			_, err := svc.Login(ctx, testUsername, testPassword, "000000")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		_, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.ErrorIs(t, err, ErrTooMany2FAAttempts)
	})

	t.Run("case rotation drains a single failure budget", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		for _, username := range []string{"ALICE", "Alice", "aLice"} {
			_, err := svc.Login(ctx, username, "Wr0ngPass!", "123456")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		// All variants hit the same counter, so the account is locked
		_, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("malformed codes count against the login budget", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		for range DefaultLoginAttempts {
			_, err := svc.Login(ctx, testUsername, testPassword, "12345")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		_, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("malformed input on a locked identity stays generic", func(t *testing.T) {
		svc := newTestAuth(t)
		registerTestUser(t, svc)

		for range DefaultLoginAttempts {
			_, err := svc.Login(ctx, testUsername, "Wr0ngPass!", "123456")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		// Validation runs before the lockout check, so a malformed
		// request never learns whether the identity is locked
		_, err := svc.Login(ctx, testUsername, "short", "123456")
		require.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("success clears accumulated failures", func(t *testing.T) {
		svc := newTestAuth(t)
		_, secret := registerTestUser(t, svc)

		for range DefaultLoginAttempts - 1 {
			_, err := svc.Login(ctx, testUsername, "Wr0ngPass!", "123456")
			require.ErrorIs(t, err, ErrAuthenticationFailed)
		}

		_, err := svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.NoError(t, err)

		// A fresh failure starts counting from one again
		_, err = svc.Login(ctx, testUsername, "Wr0ngPass!", "123456")
		require.ErrorIs(t, err, ErrAuthenticationFailed)
		_, err = svc.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.NoError(t, err)
	})
}

func TestMFAService(t *testing.T) {
	ctx := context.Background()

	t.Run("reset rotates the secret", func(t *testing.T) {
		auth := newTestAuth(t)
		_, oldSecret := registerTestUser(t, auth)

		user, err := auth.Store.Users().GetUserByUsername(ctx, testUsername)
		require.NoError(t, err)

		mfa := &MFAService{Store: auth.Store, Issuer: auth.Issuer, CodeAttempts: auth.CodeAttempts}
		uri, err := mfa.Reset(ctx, user.ID)
		require.NoError(t, err)
		require.Contains(t, uri, "otpauth://totp/")

		updated, err := auth.Store.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotEqual(t, oldSecret, updated.TOTPSecret)

		// Codes from the old secret stop working; new ones succeed
		_, err = auth.Login(ctx, testUsername, testPassword, currentCode(t, oldSecret))
		require.ErrorIs(t, err, ErrAuthenticationFailed)
		_, err = auth.Login(ctx, testUsername, testPassword, currentCode(t, updated.TOTPSecret))
		require.NoError(t, err)
	})

	t.Run("verify confirms enrollment", func(t *testing.T) {
		auth := newTestAuth(t)
		_, secret := registerTestUser(t, auth)

		user, err := auth.Store.Users().GetUserByUsername(ctx, testUsername)
		require.NoError(t, err)

		mfa := &MFAService{Store: auth.Store, Issuer: auth.Issuer, CodeAttempts: auth.CodeAttempts}

		ok, err := mfa.VerifyCode(ctx, user.ID, currentCode(t, secret))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = mfa.VerifyCode(ctx, user.ID, "000000")
		require.NoError(t, err)
		require.False(t, ok)

		_, err = mfa.VerifyCode(ctx, user.ID, "abc")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("verify locks out after repeated failures", func(t *testing.T) {
		auth := newTestAuth(t)
		_, secret := registerTestUser(t, auth)

		user, err := auth.Store.Users().GetUserByUsername(ctx, testUsername)
		require.NoError(t, err)

		mfa := &MFAService{Store: auth.Store, Issuer: auth.Issuer, CodeAttempts: auth.CodeAttempts}

		for range DefaultCodeAttempts {
			ok, err := mfa.VerifyCode(ctx, user.ID, "000000")
			require.NoError(t, err)
			require.False(t, ok)
		}

		// Locked for standalone verification and login alike
		_, err = mfa.VerifyCode(ctx, user.ID, currentCode(t, secret))
		require.ErrorIs(t, err, ErrTooMany2FAAttempts)
		_, err = auth.Login(ctx, testUsername, testPassword, currentCode(t, secret))
		require.ErrorIs(t, err, ErrTooMany2FAAttempts)
	})

	t.Run("setup fails for unknown users", func(t *testing.T) {
		auth := newTestAuth(t)
		mfa := &MFAService{Store: auth.Store, Issuer: auth.Issuer, CodeAttempts: auth.CodeAttempts}

		_, err := mfa.Setup(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}
