// Package totpx wraps time-based one-time password generation and
// verification. Codes are 6-digit, SHA-1 HMAC over 30-second steps, the
// parameters every authenticator app ships with.
package totpx

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"regexp"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// secretSize is the raw secret length in bytes (160 bits, RFC 4226).
	secretSize = 20

	// Period is the code validity window in seconds.
	Period = 30

	// Skew is how many adjacent time steps are accepted on either side of
	// now. One step of tolerance avoids false rejections near step
	// boundaries without meaningfully widening the brute-force surface.
	Skew = 1
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh random shared secret, base32 encoded.
// Each identity gets its own secret, generated exactly once at registration.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totpx: failed to generate secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// Verify reports whether code is valid for secret at the current time,
// tolerating Skew adjacent steps. Malformed input (non-6-digit, non-numeric
// code, undecodable secret) is simply not valid.
func Verify(secret, code string) bool {
	if !codePattern.MatchString(code) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

// ProvisioningURI builds the otpauth:// enrollment URI for an existing
// secret. Pure function of its inputs; nothing is generated or stored.
func ProvisioningURI(secret, account, issuer string) (string, error) {
	if secret == "" || account == "" || issuer == "" {
		return "", fmt.Errorf("totpx: secret, account, and issuer are all required")
	}

	raw, err := b32.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("totpx: invalid secret encoding: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Secret:      raw,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("totpx: failed to build provisioning uri: %w", err)
	}

	return key.URL(), nil
}
