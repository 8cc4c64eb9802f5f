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
	"github.com/filefortress/fortress/pkg/slogx"
)

// LoginHandler handles the two-step login endpoints.
type LoginHandler struct {
	Auth *service.AuthService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Login (password step)
//	@Description	Verifies email and password. On success the response carries only the
//	@Description	account id and an MFA demand; no session tokens are issued until a
//	@Description	TOTP code is verified.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse	"MFA required"
//	@Failure		401		{object}	authsdk.APIError		"Invalid credentials"
//	@Failure		429		{object}	authsdk.APIError		"Rate limited"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	accountID, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		AccountID:   accountID,
		MFARequired: true,
	})
}

// HandleVerifyMFA handles POST /v1/auth/mfa/verify
//
//	@Summary		Verify MFA (token step)
//	@Description	Verifies a current TOTP code for the account and mints the session
//	@Description	token pair. A wrong code consumes nothing and can be retried.
//	@Tags			Login
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyMFARequest	true	"Account id and TOTP code"
//	@Success		200		{object}	authsdk.TokenResponse		"Session tokens"
//	@Failure		400		{object}	authsdk.APIError			"Wrong or malformed code"
//	@Failure		404		{object}	authsdk.APIError			"Unknown account"
//	@Failure		429		{object}	authsdk.APIError			"Rate limited"
//	@Failure		500		{object}	authsdk.APIError			"Internal server error"
//	@Router			/v1/auth/mfa/verify [post].
func (h *LoginHandler) HandleVerifyMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.VerifyMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.AccountID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, account, err := h.Auth.VerifyMFA(ctx, req.AccountID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			authsdk.ErrUserNotFound.WriteError(w)
		case errors.Is(err, service.ErrAccountInactive):
			authsdk.ErrInvalidCredentials.WriteError(w)
		case errors.Is(err, service.ErrMalformedMFACode):
			authsdk.ErrInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrInvalidMFACode):
			authsdk.ErrInvalidMFAToken.WriteError(w)
		default:
			log.Error("mfa verification failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair, account))
}

func tokenResponse(pair domain.TokenPair, account domain.Account) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int64(time.Until(pair.ExpiresAt).Seconds()),
		Account:      accountInfo(account),
	}
}
