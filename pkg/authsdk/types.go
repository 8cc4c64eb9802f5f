package authsdk

import "time"

// SessionKeyHeader carries the opaque registration session key. The server
// mints one on the first begin call when the client does not supply its own.
const SessionKeyHeader = "X-Registration-Session"

// BeginRegistrationRequest is the applicant profile submitted to start
// enrollment.
type BeginRegistrationRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role,omitempty"`
}

// BeginRegistrationResponse carries the one-time TOTP provisioning
// challenge. The secret and URI are never disclosed again.
type BeginRegistrationResponse struct {
	SessionKey      string    `json:"session_key"`
	Secret          string    `json:"secret"`
	ProvisioningURI string    `json:"provisioning_uri"`
	QRCodePNG       string    `json:"qr_code_png,omitempty"` // base64-encoded PNG
	ExpiresAt       time.Time `json:"expires_at"`
}

// CompleteRegistrationRequest proves control of the authenticator.
type CompleteRegistrationRequest struct {
	Code string `json:"code"`
}

// CompleteRegistrationResponse confirms account creation.
type CompleteRegistrationResponse struct {
	Account AccountInfo `json:"account"`
}

// LoginRequest is the password step of login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse acknowledges the password and demands MFA. No session
// material is issued at this step.
type LoginResponse struct {
	AccountID   string `json:"account_id"`
	MFARequired bool   `json:"mfa_required"`
}

// VerifyMFARequest is the second step of login.
type VerifyMFARequest struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
}

// TokenResponse carries a freshly minted session token pair.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int64       `json:"expires_in"` // seconds until the access token expires
	Account      AccountInfo `json:"account"`
}

// RefreshRequest redeems a refresh token for a fresh pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest revokes a refresh token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AccountInfo is the public shape of an account. It never includes the
// password hash or the MFA secret.
type AccountInfo struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is returned by the liveness and readiness endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}
