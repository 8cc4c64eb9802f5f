package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/store"
	"github.com/filefortress/fortress/pkg/cryptox"
	"github.com/filefortress/fortress/pkg/slogx"
	"github.com/filefortress/fortress/pkg/totpx"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
)

// AuthService owns the two-step login: Login checks the password and, when
// it holds, only acknowledges that MFA is now required. Session tokens are
// minted exclusively by VerifyMFA.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService

	// Window is the TOTP step tolerance in either direction. Zero means
	// totpx.DefaultWindow.
	Window uint
}

func (s *AuthService) window() uint {
	if s.Window > 0 {
		return s.Window
	}
	return totpx.DefaultWindow
}

// Login verifies the password for email and returns the account id that the
// caller must carry into VerifyMFA. Unknown emails, inactive accounts and
// wrong passwords all collapse into ErrInvalidCredentials so the response
// does not leak which part failed.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to load account: %w", err)
	}

	if !account.Active {
		return "", ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Info("password check failed",
				slog.String("account_id", account.ID),
			)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to verify password: %w", err)
	}

	return account.ID, nil
}

// VerifyMFA checks a current TOTP code for the account and, when it holds,
// mints the session token pair. A wrong code returns ErrInvalidMFACode and
// consumes nothing; an unknown account id returns ErrAccountNotFound.
func (s *AuthService) VerifyMFA(ctx context.Context, accountID, code string) (domain.TokenPair, domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Account{}, ErrAccountNotFound
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}

	if !account.Active {
		return domain.TokenPair{}, domain.Account{}, ErrAccountInactive
	}

	res, err := totpx.Verify(account.MFASecret, code, time.Now().UTC(), s.window())
	if err != nil {
		if errors.Is(err, totpx.ErrInvalidCode) {
			return domain.TokenPair{}, domain.Account{}, ErrMalformedMFACode
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to verify TOTP code: %w", err)
	}
	if !res.Verified {
		slogx.FromContext(ctx).Info("mfa check failed",
			slog.String("account_id", account.ID),
		)
		return domain.TokenPair{}, domain.Account{}, ErrInvalidMFACode
	}

	pair, err := s.Tokens.Issue(ctx, account, []string{AMRPassword, AMROTP})
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("login completed",
		slog.String("account_id", account.ID),
		slog.Int("totp_offset", res.Offset),
	)

	return pair, account, nil
}
