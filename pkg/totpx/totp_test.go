package totpx

import (
	"testing"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

func TestGenerateSecret(t *testing.T) {
	a, err := GenerateSecret()
	require.NoError(t, err)
	require.Len(t, a, 32) // 20 bytes base32 without padding

	b, err := GenerateSecret()
	require.NoError(t, err)
	require.NotEqual(t, a, b, "secrets must be independent per call")
}

func TestVerify_CurrentStep(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	code := codeAt(t, secret, time.Now().UTC())
	require.True(t, Verify(secret, code))
}

func TestVerify_AdjacentSteps(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	now := time.Now().UTC()

	require.True(t, Verify(secret, codeAt(t, secret, now.Add(-Period*time.Second))),
		"previous step should be accepted within skew")
	require.True(t, Verify(secret, codeAt(t, secret, now.Add(Period*time.Second))),
		"next step should be accepted within skew")
}

func TestVerify_StaleCode(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	stale := codeAt(t, secret, time.Now().UTC().Add(-5*time.Minute))
	require.False(t, Verify(secret, stale), "a code from 10 steps ago must be rejected")
}

func TestVerify_MalformedInput(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	for _, code := range []string{"", "12345", "1234567", "12345a", "abcdef", "12 456"} {
		require.False(t, Verify(secret, code), "code %q should not verify", code)
	}

	require.False(t, Verify("not-base32!", "123456"))
}

func TestProvisioningURI(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri, err := ProvisioningURI(secret, "alice", "crewtask")
	require.NoError(t, err)
	require.Contains(t, uri, "otpauth://totp/")
	require.Contains(t, uri, "secret="+secret)
	require.Contains(t, uri, "issuer=crewtask")
	require.Contains(t, uri, "alice")
}

func TestProvisioningURI_RequiresAllInputs(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	_, err = ProvisioningURI("", "alice", "crewtask")
	require.Error(t, err)
	_, err = ProvisioningURI(secret, "", "crewtask")
	require.Error(t, err)
	_, err = ProvisioningURI(secret, "alice", "")
	require.Error(t, err)
}
