package auth_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/filefortress/fortress/pkg/authsdk"
	"github.com/filefortress/fortress/pkg/totpx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "fortress-auth-test:latest"

	testEmail     = "erin@example.com"
	testPassword  = "correct horse battery"
	testFirstName = "Erin"
	testLastName  = "Evans"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Auth Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Auth Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/auth/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// setupAuthContainer starts the auth service in a container and returns the
// base URL. Rate limits are raised so rapid test requests don't trip the
// production profiles; rate limit behavior has its own setup below.
func setupAuthContainer(t *testing.T) (string, func()) {
	return startContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupAuthContainerWithDefaultRateLimits starts the auth service with the
// production rate limit profiles, for testing that limiting actually works.
func setupAuthContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	return startContainer(t, nil)
}

func startContainer(t *testing.T, extraEnv map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"AUTH_DATABASE_FILE": "/tmp/auth.db",
		"AUTH_PEPPER_FILE":   "/tmp/pepper",
		"AUTH_ISSUER":        "FileFortress",
		"ENV":                "test",
		"LOG_LEVEL":          "info",
		"LOG_FORMAT":         "json",
	}
	for k, v := range extraEnv {
		env[k] = v
	}

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// registerTestAccount runs the whole enrollment flow against the container
// and returns the account id and the provisioned TOTP secret.
func registerTestAccount(t *testing.T, client *authsdk.Client, email string) (string, string) {
	t.Helper()
	ctx := context.Background()

	begin, err := client.BeginRegistration(ctx, authsdk.BeginRegistrationRequest{
		Email:     email,
		Password:  testPassword,
		FirstName: testFirstName,
		LastName:  testLastName,
	})
	require.NoError(t, err)
	require.NotEmpty(t, begin.Secret)

	code, err := totpx.GenerateCode(begin.Secret, time.Now())
	require.NoError(t, err)

	complete, err := client.CompleteRegistration(ctx, code)
	require.NoError(t, err)
	require.Equal(t, email, complete.Account.Email)

	return complete.Account.ID, begin.Secret
}

// loginWithMFA performs both login steps and returns the token pair.
func loginWithMFA(t *testing.T, client *authsdk.Client, email, password, secret string) *authsdk.TokenResponse {
	t.Helper()
	ctx := context.Background()

	login, err := client.Login(ctx, email, password)
	require.NoError(t, err)
	require.True(t, login.MFARequired)

	code, err := totpx.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	tokens, err := client.VerifyMFA(ctx, login.AccountID, code)
	require.NoError(t, err)
	return tokens
}

func requireAPIErrorKind(t *testing.T, err error, kind string) {
	t.Helper()
	require.Error(t, err)
	apiErr, ok := err.(*authsdk.APIError)
	require.True(t, ok, "expected *authsdk.APIError, got %T: %v", err, err)
	require.Equal(t, kind, apiErr.Kind)
}
