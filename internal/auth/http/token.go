package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filefortress/fortress/internal/auth/service"
	"github.com/filefortress/fortress/pkg/authsdk"
	"github.com/filefortress/fortress/pkg/httpx"
	"github.com/filefortress/fortress/pkg/slogx"
)

// TokenHandler handles refresh token redemption and revocation.
type TokenHandler struct {
	Tokens *service.TokenService
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Refresh session tokens
//	@Description	Redeems a refresh token for a fresh pair. The presented token is
//	@Description	revoked in the same transaction that records its replacement.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse	"Fresh session tokens"
//	@Failure		401		{object}	authsdk.APIError		"Unknown, expired or revoked token"
//	@Failure		429		{object}	authsdk.APIError		"Rate limited"
//	@Failure		500		{object}	authsdk.APIError		"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *TokenHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, account, err := h.Tokens.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			authsdk.ErrInvalidRefreshToken.WriteError(w)
			return
		}
		log.Error("refresh request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair, account))
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Logout
//	@Description	Revokes a refresh token. Revoking an unknown or already revoked
//	@Description	token succeeds, so logout is idempotent.
//	@Tags			Tokens
//	@Accept			json
//	@Produce		json
//	@Param			request	body	authsdk.LogoutRequest	true	"Refresh token"
//	@Success		204		"Token revoked"
//	@Failure		400		{object}	authsdk.APIError	"Malformed request"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Failure		500		{object}	authsdk.APIError	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *TokenHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Tokens.Revoke(ctx, req.RefreshToken); err != nil {
		log.Error("logout request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
