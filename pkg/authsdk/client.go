// Package authsdk provides a client SDK for the FileFortress authentication
// service. It is shared by the service itself, which uses the request and
// response types and the APIError envelope, and by Go programs that talk to
// the service over HTTP.
package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for the FileFortress authentication service. The zero
// value is not usable; construct one with NewClient.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// sessionKey is remembered from the last BeginRegistration call so
	// CompleteRegistration can ride the same enrollment session.
	sessionKey string
}

// NewClient creates a new auth service client.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// BeginRegistration starts enrollment. The returned challenge holds the TOTP
// secret and provisioning URI; they are disclosed only once. The session key
// is remembered on the client for the follow-up CompleteRegistration call.
func (c *Client) BeginRegistration(ctx context.Context, req BeginRegistrationRequest) (*BeginRegistrationResponse, error) {
	headers := map[string]string{}
	if c.sessionKey != "" {
		headers[SessionKeyHeader] = c.sessionKey
	}

	var resp BeginRegistrationResponse
	if err := c.postJSON(ctx, "/v1/auth/register", req, headers, &resp); err != nil {
		return nil, err
	}
	c.sessionKey = resp.SessionKey
	return &resp, nil
}

// CompleteRegistration proves control of the authenticator and creates the
// account. It uses the session key from the preceding BeginRegistration.
func (c *Client) CompleteRegistration(ctx context.Context, code string) (*CompleteRegistrationResponse, error) {
	if c.sessionKey == "" {
		return nil, ErrNoPendingRegistration
	}

	var resp CompleteRegistrationResponse
	err := c.postJSON(ctx, "/v1/auth/register/complete",
		CompleteRegistrationRequest{Code: code},
		map[string]string{SessionKeyHeader: c.sessionKey},
		&resp,
	)
	if err != nil {
		return nil, err
	}
	c.sessionKey = ""
	return &resp, nil
}

// Login performs the password step. It never returns tokens; carry the
// returned account id into VerifyMFA.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyMFA completes login with a current TOTP code and returns the session
// token pair.
func (c *Client) VerifyMFA(ctx context.Context, accountID, code string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.postJSON(ctx, "/v1/auth/mfa/verify", VerifyMFARequest{AccountID: accountID, Code: code}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh redeems a refresh token for a fresh token pair. The presented
// token is revoked server-side.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes a refresh token. Revoking an already-revoked or unknown
// token is not an error.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.postJSON(ctx, "/v1/auth/logout", LogoutRequest{RefreshToken: refreshToken}, nil, nil)
}

// UserInfo returns the account behind an access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*AccountInfo, error) {
	var resp AccountInfo
	err := c.doJSON(ctx, http.MethodGet, "/v1/userinfo", nil,
		map[string]string{"Authorization": "Bearer " + accessToken}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLiveness checks the liveness endpoint.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/livez", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetReadiness checks the readiness endpoint, which includes the database.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	return c.doJSON(ctx, http.MethodPost, path, bytes.NewReader(payload), headers, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
