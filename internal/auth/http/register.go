package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/service"
	"github.com/filefortress/fortress/pkg/authsdk"
	"github.com/filefortress/fortress/pkg/httpx"
	"github.com/filefortress/fortress/pkg/idx"
	"github.com/filefortress/fortress/pkg/qrx"
	"github.com/filefortress/fortress/pkg/slogx"
)

// RegistrationHandler handles the two-phase enrollment endpoints.
type RegistrationHandler struct {
	Enrollment *service.EnrollmentService
}

// HandleBegin handles POST /v1/auth/register
//
//	@Summary		Begin registration
//	@Description	Validates the profile, parks a provisional registration and returns
//	@Description	a one-time TOTP provisioning challenge (secret, otpauth URI and QR code).
//	@Description	No account exists until the challenge is completed. The session key is
//	@Description	taken from the X-Registration-Session header, or minted when absent,
//	@Description	and echoed back in both the header and the body.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			X-Registration-Session	header		string								false	"Registration session key"
//	@Param			request					body		authsdk.BeginRegistrationRequest	true	"Applicant profile"
//	@Success		200						{object}	authsdk.BeginRegistrationResponse	"Provisioning challenge"
//	@Failure		400						{object}	authsdk.APIError					"Invalid profile"
//	@Failure		409						{object}	authsdk.APIError					"Email already registered"
//	@Failure		429						{object}	authsdk.APIError					"Rate limited"
//	@Failure		500						{object}	authsdk.APIError					"Internal server error"
//	@Router			/v1/auth/register [post].
func (h *RegistrationHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.BeginRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sessionKey := r.Header.Get(authsdk.SessionKeyHeader)
	if sessionKey == "" {
		sessionKey = idx.New().String()
	}

	challenge, err := h.Enrollment.Begin(ctx, sessionKey, domain.RegistrationProfile{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		writeEnrollmentError(w, log, err)
		return
	}

	// QR rendering is presentation only; a failure degrades to URI-only.
	qrPNG, err := qrx.EncodeBase64PNG(challenge.ProvisioningURI, qrx.DefaultSize)
	if err != nil {
		log.Warn("failed to render provisioning QR code", "err", err)
		qrPNG = ""
	}

	httpx.NoCache(w)
	w.Header().Set(authsdk.SessionKeyHeader, challenge.SessionKey)
	httpx.WriteJSON(w, http.StatusOK, authsdk.BeginRegistrationResponse{
		SessionKey:      challenge.SessionKey,
		Secret:          challenge.Secret,
		ProvisioningURI: challenge.ProvisioningURI,
		QRCodePNG:       qrPNG,
		ExpiresAt:       challenge.ExpiresAt,
	})
}

// HandleComplete handles POST /v1/auth/register/complete
//
//	@Summary		Complete registration
//	@Description	Verifies a current TOTP code against the pending registration under
//	@Description	the X-Registration-Session key and creates the account. A wrong code
//	@Description	leaves the pending registration open for retry until it expires.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			X-Registration-Session	header		string									true	"Registration session key"
//	@Param			request					body		authsdk.CompleteRegistrationRequest		true	"TOTP code"
//	@Success		201						{object}	authsdk.CompleteRegistrationResponse	"Created account"
//	@Failure		400						{object}	authsdk.APIError						"No pending registration or wrong code"
//	@Failure		409						{object}	authsdk.APIError						"Email already registered"
//	@Failure		429						{object}	authsdk.APIError						"Rate limited"
//	@Failure		500						{object}	authsdk.APIError						"Internal server error"
//	@Router			/v1/auth/register/complete [post].
func (h *RegistrationHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.CompleteRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sessionKey := r.Header.Get(authsdk.SessionKeyHeader)
	if sessionKey == "" {
		authsdk.ErrNoPendingRegistration.WriteError(w)
		return
	}

	account, err := h.Enrollment.Complete(ctx, sessionKey, req.Code)
	if err != nil {
		writeEnrollmentError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, authsdk.CompleteRegistrationResponse{
		Account: accountInfo(account),
	})
}

func writeEnrollmentError(w http.ResponseWriter, log logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingSessionKey):
		authsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrProfileInvalid):
		authsdk.ErrProfileInvalid.WriteError(w)
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		authsdk.ErrEmailAlreadyRegistered.WriteError(w)
	case errors.Is(err, service.ErrNoPendingRegistration):
		authsdk.ErrNoPendingRegistration.WriteError(w)
	case errors.Is(err, service.ErrMalformedMFACode):
		authsdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrInvalidMFACode):
		authsdk.ErrInvalidMFAToken.WriteError(w)
	case errors.Is(err, service.ErrAccountCreationFailed):
		log.Error("account creation failed", "err", err)
		authsdk.ErrAccountCreationFailed.WriteError(w)
	default:
		log.Error("enrollment request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

// logger is the slice of *slog.Logger the handlers need; it keeps the error
// writers testable.
type logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

func accountInfo(a domain.Account) authsdk.AccountInfo {
	return authsdk.AccountInfo{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
		Active:    a.Active,
		CreatedAt: a.CreatedAt.UTC().Truncate(time.Second),
	}
}
