package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSignerEdDSA("test-key-1")
	require.NoError(t, err)
	require.Equal(t, "EdDSA", signer.Alg())

	claims := NewAccessClaims(
		"01JACCOUNTID", "a@b.com", "user",
		[]string{"pwd", "otp"},
		DefaultAccessTokenTTL,
		"FileFortress",
		time.Now(),
	)

	tok, err := signer.Sign(claims)
	require.NoError(t, err)

	verifier := NewVerifierEdDSA("FileFortress", signer)
	got, err := verifier.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "01JACCOUNTID", got.Subject)
	require.Equal(t, "a@b.com", got.Email)
	require.Equal(t, "user", got.Role)
	require.Contains(t, got.AMR, "otp")
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSignerEdDSA("test-key-1")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "", "user", nil, time.Minute, "other-issuer", time.Now())
	tok, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = NewVerifierEdDSA("FileFortress", signer).Verify(tok)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSignerEdDSA("test-key-1")
	require.NoError(t, err)

	claims := NewAccessClaims("sub", "", "user", nil, time.Minute, "FileFortress", time.Now().Add(-time.Hour))
	tok, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = NewVerifierEdDSA("FileFortress", signer).Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralSignerEdDSA("key-a")
	require.NoError(t, err)
	other, err := NewEphemeralSignerEdDSA("key-b")
	require.NoError(t, err)

	tok, err := signer.Sign(NewAccessClaims("sub", "", "user", nil, time.Minute, "FileFortress", time.Now()))
	require.NoError(t, err)

	_, err = NewVerifierEdDSA("FileFortress", other).Verify(tok)
	require.Error(t, err)
}
