package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/filefortress/fortress/pkg/httpx"
)

// Error kinds returned by the service. Clients can switch on these without
// parsing the human-readable hint.
const (
	ErrorKindInvalidRequest         = "invalid_request"
	ErrorKindProfileInvalid         = "profile_invalid"
	ErrorKindEmailAlreadyRegistered = "email_already_registered"
	ErrorKindNoPendingRegistration  = "no_pending_registration"
	ErrorKindInvalidCode            = "invalid_code"
	ErrorKindInvalidMFAToken        = "invalid_mfa_token"
	ErrorKindInvalidCredentials     = "invalid_credentials"
	ErrorKindUserNotFound           = "user_not_found"
	ErrorKindAccountCreationFailed  = "account_creation_failed"
	ErrorKindInvalidRefreshToken    = "invalid_refresh_token"
	ErrorKindInvalidToken           = "invalid_token"
	ErrorKindRateLimited            = "rate_limit_exceeded"
	ErrorKindServerError            = "server_error"
)

// APIError is the error envelope the service writes on every failed request.
// It implements the error interface and is shared by the HTTP handlers (to
// write responses) and the SDK client (to represent them).
type APIError struct {
	// StatusCode is the HTTP status code for this error.
	StatusCode int `json:"-"`

	// Kind is the machine-readable error kind (e.g. "invalid_mfa_token").
	Kind string `json:"error"`

	// Hint is a human-readable description. It never carries secrets,
	// codes or submitted field values.
	Hint string `json:"hint"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Hint)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// Predefined errors for each kind the service emits.
var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       ErrorKindInvalidRequest,
		Hint:       "the request is malformed or missing required parameters",
	}

	ErrProfileInvalid = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       ErrorKindProfileInvalid,
		Hint:       "the registration profile failed validation",
	}

	ErrEmailAlreadyRegistered = &APIError{
		StatusCode: http.StatusConflict,
		Kind:       ErrorKindEmailAlreadyRegistered,
		Hint:       "an account already exists for this email",
	}

	ErrNoPendingRegistration = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       ErrorKindNoPendingRegistration,
		Hint:       "no registration in progress for this session; it may have expired",
	}

	ErrInvalidCode = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       ErrorKindInvalidCode,
		Hint:       "the code must be six digits",
	}

	ErrInvalidMFAToken = &APIError{
		StatusCode: http.StatusBadRequest,
		Kind:       ErrorKindInvalidMFAToken,
		Hint:       "the code did not match; check your authenticator app and try again",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       ErrorKindInvalidCredentials,
		Hint:       "email or password is incorrect",
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Kind:       ErrorKindUserNotFound,
		Hint:       "no account matches this identifier",
	}

	ErrAccountCreationFailed = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       ErrorKindAccountCreationFailed,
		Hint:       "the account could not be created; the registration remains open for retry",
	}

	ErrInvalidRefreshToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       ErrorKindInvalidRefreshToken,
		Hint:       "the refresh token is unknown, expired or revoked",
	}

	ErrInvalidToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Kind:       ErrorKindInvalidToken,
		Hint:       "the access token is missing, malformed or expired",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Kind:       ErrorKindServerError,
		Hint:       "an unexpected error occurred",
	}
)

// parseAPIError decodes an error envelope from a failed response body. If
// the body is not a valid envelope, a generic APIError carrying the status
// code is returned so callers always get an *APIError on non-2xx.
func parseAPIError(statusCode int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Kind == "" {
		return &APIError{
			StatusCode: statusCode,
			Kind:       ErrorKindServerError,
			Hint:       fmt.Sprintf("unexpected response (status %d)", statusCode),
		}
	}
	apiErr.StatusCode = statusCode
	return &apiErr
}
