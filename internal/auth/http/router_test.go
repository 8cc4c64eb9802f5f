package http

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/filefortress/fortress/internal/auth/service"
	"github.com/filefortress/fortress/internal/auth/store/drivers/sqlite"
	"github.com/filefortress/fortress/pkg/authsdk"
	"github.com/filefortress/fortress/pkg/cryptox"
	"github.com/filefortress/fortress/pkg/jwtx"
	"github.com/filefortress/fortress/pkg/totpx"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *authsdk.Client) {
	t.Helper()
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewEphemeralSignerEdDSA("test-key")
	require.NoError(t, err)
	verifier := jwtx.NewVerifierEdDSA("FileFortress", signer)

	tokens := &service.TokenService{Store: st, Signer: signer, Issuer: "FileFortress"}
	router := NewRouter(verifier, "test", st, slog.Default())
	router.EnrollmentService = &service.EnrollmentService{Store: st, Issuer: "FileFortress"}
	router.AuthService = &service.AuthService{Store: st, Tokens: tokens}
	router.TokenService = tokens
	router.AccountService = &service.AccountService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, authsdk.NewClient(srv.URL)
}

func beginRequest() authsdk.BeginRegistrationRequest {
	return authsdk.BeginRegistrationRequest{
		Email:     "dana@example.com",
		Password:  "correct horse battery",
		FirstName: "Dana",
		LastName:  "Diaz",
	}
}

func TestFullAuthenticationFlow(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	// Begin enrollment: the challenge is disclosed once.
	begin, err := client.BeginRegistration(ctx, beginRequest())
	require.NoError(t, err)
	require.NotEmpty(t, begin.SessionKey)
	require.NotEmpty(t, begin.Secret)
	require.Contains(t, begin.ProvisioningURI, "otpauth://totp/")
	require.NotEmpty(t, begin.QRCodePNG)

	// Complete with a current code from the provisioned secret.
	code, err := totpx.GenerateCode(begin.Secret, time.Now())
	require.NoError(t, err)
	complete, err := client.CompleteRegistration(ctx, code)
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", complete.Account.Email)
	require.True(t, complete.Account.Active)

	// Password step only acknowledges the MFA demand.
	login, err := client.Login(ctx, "dana@example.com", "correct horse battery")
	require.NoError(t, err)
	require.True(t, login.MFARequired)
	require.Equal(t, complete.Account.ID, login.AccountID)

	// TOTP step mints the session tokens.
	code, err = totpx.GenerateCode(begin.Secret, time.Now())
	require.NoError(t, err)
	tokens, err := client.VerifyMFA(ctx, login.AccountID, code)
	require.NoError(t, err)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Positive(t, tokens.ExpiresIn)

	// The access token opens the authenticated surface.
	info, err := client.UserInfo(ctx, tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", info.Email)

	// Refresh rotates; the spent token dies.
	fresh, err := client.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)
	require.Equal(t, "dana@example.com", fresh.Account.Email)

	_, err = client.Refresh(ctx, tokens.RefreshToken)
	requireAPIError(t, err, authsdk.ErrorKindInvalidRefreshToken)

	// Logout revokes; a revoked token cannot refresh.
	require.NoError(t, client.Logout(ctx, fresh.RefreshToken))
	_, err = client.Refresh(ctx, fresh.RefreshToken)
	requireAPIError(t, err, authsdk.ErrorKindInvalidRefreshToken)
}

func TestBeginRejectsBadProfile(t *testing.T) {
	_, client := newTestServer(t)

	req := beginRequest()
	req.Email = "not-an-email"
	_, err := client.BeginRegistration(context.Background(), req)
	requireAPIError(t, err, authsdk.ErrorKindProfileInvalid)
}

func TestCompleteWithoutSession(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.CompleteRegistration(context.Background(), "123456")
	requireAPIError(t, err, authsdk.ErrorKindNoPendingRegistration)
}

func TestCompleteWrongCodeIsRetryable(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	begin, err := client.BeginRegistration(ctx, beginRequest())
	require.NoError(t, err)

	good, err := totpx.GenerateCode(begin.Secret, time.Now())
	require.NoError(t, err)
	wrong := "000000"
	if wrong == good {
		wrong = "000001"
	}

	_, err = client.CompleteRegistration(ctx, wrong)
	requireAPIError(t, err, authsdk.ErrorKindInvalidMFAToken)

	// Registration is still open; the right code completes it.
	_, err = client.CompleteRegistration(ctx, good)
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	registerAccount(t, client)

	_, err := client.Login(ctx, "dana@example.com", "wrong password!")
	requireAPIError(t, err, authsdk.ErrorKindInvalidCredentials)

	_, err = client.Login(ctx, "ghost@example.com", "correct horse battery")
	requireAPIError(t, err, authsdk.ErrorKindInvalidCredentials)
}

func TestVerifyMFAUnknownAccount(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.VerifyMFA(context.Background(), "01JUNKJUNKJUNKJUNKJUNKJUNK", "123456")
	requireAPIError(t, err, authsdk.ErrorKindUserNotFound)
}

func TestUserInfoRequiresToken(t *testing.T) {
	_, client := newTestServer(t)

	_, err := client.UserInfo(context.Background(), "garbage-token")
	apiErr := asAPIError(t, err)
	require.Equal(t, 401, apiErr.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	_, client := newTestServer(t)
	ctx := context.Background()

	live, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
}

// registerAccount runs the whole enrollment flow and returns the TOTP secret.
func registerAccount(t *testing.T, client *authsdk.Client) string {
	t.Helper()
	ctx := context.Background()

	begin, err := client.BeginRegistration(ctx, beginRequest())
	require.NoError(t, err)
	code, err := totpx.GenerateCode(begin.Secret, time.Now())
	require.NoError(t, err)
	_, err = client.CompleteRegistration(ctx, code)
	require.NoError(t, err)
	return begin.Secret
}

func asAPIError(t *testing.T, err error) *authsdk.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*authsdk.APIError)
	require.True(t, ok, "expected *authsdk.APIError, got %T: %v", err, err)
	return apiErr
}

func requireAPIError(t *testing.T, err error, kind string) {
	t.Helper()
	require.Equal(t, kind, asAPIError(t, err).Kind)
}
