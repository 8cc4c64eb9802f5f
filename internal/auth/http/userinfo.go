package http

import (
	"errors"
	"net/http"

	"github.com/filefortress/fortress/internal/auth/service"
	"github.com/filefortress/fortress/pkg/authsdk"
	"github.com/filefortress/fortress/pkg/httpx"
	"github.com/filefortress/fortress/pkg/slogx"
)

// UserInfoHandler serves the authenticated account lookup.
type UserInfoHandler struct {
	Accounts *service.AccountService
}

// HandleGet handles GET /v1/userinfo
//
//	@Summary		Get account info
//	@Description	Returns the account behind the presented access token. The password
//	@Description	hash and MFA secret are never included.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.AccountInfo	"Account"
//	@Failure		401	{object}	authsdk.APIError	"Invalid or missing access token"
//	@Failure		404	{object}	authsdk.APIError	"Account no longer exists"
//	@Failure		500	{object}	authsdk.APIError	"Internal server error"
//	@Router			/v1/userinfo [get].
func (h *UserInfoHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	accountID, ok := httpx.AccountIDFromContext(ctx)
	if !ok || accountID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	account, err := h.Accounts.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			authsdk.ErrUserNotFound.WriteError(w)
			return
		}
		log.Error("userinfo request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, accountInfo(account))
}
