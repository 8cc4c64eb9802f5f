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
	"github.com/filefortress/fortress/pkg/idx"
	"github.com/filefortress/fortress/pkg/jwtx"
	"github.com/filefortress/fortress/pkg/slogx"
)

// Authentication method references carried in access token claims.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
	AMRRefresh  = "refresh"
)

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// TokenService mints and rotates session material. Access tokens are signed
// JWTs; refresh tokens are opaque 256-bit values stored by fingerprint only.
type TokenService struct {
	Store  store.Store
	Signer jwtx.Signer
	Issuer string

	// Zero TTLs fall back to the jwtx defaults.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

// Issue mints a fresh token pair for the account. amr records how the
// holder authenticated and rides inside the access token claims.
func (s *TokenService) Issue(ctx context.Context, account domain.Account, amr []string) (domain.TokenPair, error) {
	now := time.Now().UTC()

	claims := jwtx.NewAccessClaims(account.ID, account.Email, account.Role, amr, s.accessTTL(), s.Issuer, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		AccountID: account.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
		return domain.TokenPair{}, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresAt:    now.Add(s.accessTTL()),
	}, nil
}

// Refresh redeems an opaque refresh token for a fresh pair, revoking the
// presented token in the same transaction that records the new one. The
// owning account rides along for response shaping. Revoked, expired and
// unknown tokens all collapse into ErrInvalidRefreshToken.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, domain.Account, error) {
	now := time.Now().UTC()

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if !record.Usable(now) {
		return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
	}

	account, err := s.Store.Accounts().GetAccountByID(ctx, record.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
		}
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	if !account.Active {
		return domain.TokenPair{}, domain.Account{}, ErrInvalidRefreshToken
	}

	claims := jwtx.NewAccessClaims(account.ID, account.Email, account.Role, []string{AMRRefresh}, s.accessTTL(), s.Issuer, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	next, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, record.ID); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			AccountID: account.ID,
			TokenHash: cryptox.FingerprintToken(next),
			ExpiresAt: now.Add(s.refreshTTL()),
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return domain.TokenPair{}, domain.Account{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	slogx.FromContext(ctx).Info("refresh token rotated",
		slog.String("account_id", account.ID),
	)

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: next,
		TokenType:    "Bearer",
		ExpiresAt:    now.Add(s.accessTTL()),
	}, account, nil
}

// Revoke invalidates a single refresh token. Unknown tokens are not an
// error so logout stays idempotent.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load refresh token: %w", err)
	}
	if record.Revoked {
		return nil
	}
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, record.ID)
}

// RevokeAll invalidates every live refresh token for an account.
func (s *TokenService) RevokeAll(ctx context.Context, accountID string) error {
	return s.Store.RefreshTokens().RevokeRefreshTokensForAccount(ctx, accountID)
}
