// Package totpx implements time-based one-time password generation and
// verification with clock-drift tolerance. It wraps github.com/pquerna/otp
// for the RFC 6238 code computation and adds fixed-width code normalization,
// a bounded verification window, and a constant-structure comparison that
// does not leak which time step matched.
package totpx

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the TOTP time step. Fixed at 30 seconds.
	Period = 30 * time.Second

	// Digits is the fixed code width. Shorter submitted codes are
	// left-padded with zeros before comparison.
	Digits = 6

	// SecretBytes is the raw secret length: 160 bits of entropy.
	SecretBytes = 20

	// DefaultWindow tolerates codes up to 2 steps (60s) away from the
	// server clock, absorbing drift between server and authenticator.
	DefaultWindow = 2
)

var (
	// ErrInvalidSecret reports a structurally invalid secret (empty or
	// not valid base32).
	ErrInvalidSecret = errors.New("totpx: invalid secret")

	// ErrInvalidCode reports a structurally invalid code (empty, too
	// long, or containing non-digits).
	ErrInvalidCode = errors.New("totpx: invalid code")
)

// Result is the outcome of a verification attempt. Offset records which
// time step matched, relative to the reference time. It is diagnostic
// only and carries no trust.
type Result struct {
	Verified bool
	Offset   int
}

// b32 is the secret alphabet: standard base32, no padding. This matches
// what authenticator apps expect in provisioning URIs.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh random TOTP secret, base32 encoded.
func GenerateSecret() (string, error) {
	buf := make([]byte, SecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("totpx: generate secret: %w", err)
	}
	return b32.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// key URI for the given identity and
// issuer. The construction is deterministic: same inputs, same URI. The URI
// is the only artifact that ever carries the secret out of the service.
func ProvisioningURI(identity, secret, issuer string) (string, error) {
	if err := validateSecret(secret); err != nil {
		return "", err
	}
	if identity == "" || issuer == "" {
		return "", errors.New("totpx: identity and issuer are required")
	}

	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", otp.AlgorithmSHA1.String())
	v.Set("digits", fmt.Sprintf("%d", Digits))
	v.Set("period", fmt.Sprintf("%d", int(Period.Seconds())))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + identity,
		RawQuery: v.Encode(),
	}
	return u.String(), nil
}

// NormalizeCode trims and left-pads a submitted code to the fixed width.
// Leading zeros are significant: "42" becomes "000042". Codes that are
// empty, longer than the fixed width, or not purely decimal digits are
// rejected with ErrInvalidCode.
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > Digits {
		return "", ErrInvalidCode
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return "", ErrInvalidCode
		}
	}
	return strings.Repeat("0", Digits-len(code)) + code, nil
}

// GenerateCode computes the code valid for the secret at the given time.
func GenerateCode(secret string, at time.Time) (string, error) {
	if err := validateSecret(secret); err != nil {
		return "", err
	}
	code, err := totp.GenerateCodeCustom(secret, at, validateOpts())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return code, nil
}

// Verify checks a submitted code against the secret at the given time,
// accepting codes up to window steps away in either direction. Every
// candidate in the window is compared; there is no early exit, so timing
// does not reveal which offset matched. A mismatch is a clean
// not-verified result, not an error; errors are reserved for structurally
// invalid secrets or codes.
func Verify(secret, code string, at time.Time, window uint) (Result, error) {
	if err := validateSecret(secret); err != nil {
		return Result{}, err
	}

	normalized, err := NormalizeCode(code)
	if err != nil {
		return Result{}, err
	}

	opts := validateOpts()
	res := Result{}
	for off := -int(window); off <= int(window); off++ {
		candidate, err := totp.GenerateCodeCustom(secret, at.Add(time.Duration(off)*Period), opts)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
		}
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(normalized)) == 1 && !res.Verified {
			res.Verified = true
			res.Offset = off
		}
	}
	return res, nil
}

func validateSecret(secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ErrInvalidSecret
	}
	// Accept padded and unpadded base32 the way authenticator apps do.
	padded := strings.ToUpper(secret)
	if n := len(padded) % 8; n != 0 {
		padded += strings.Repeat("=", 8-n)
	}
	if _, err := base32.StdEncoding.DecodeString(padded); err != nil {
		return ErrInvalidSecret
	}
	return nil
}

func validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(Period.Seconds()),
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
