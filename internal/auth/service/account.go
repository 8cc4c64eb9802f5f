package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/filefortress/fortress/internal/auth/domain"
	"github.com/filefortress/fortress/internal/auth/store"
)

// AccountService serves account lookups for authenticated surfaces such as
// the userinfo endpoint.
type AccountService struct {
	Store store.Store
}

// GetAccount returns the account for id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// Deactivate disables authentication for an account and revokes its live
// refresh tokens in the same transaction.
func (s *AccountService) Deactivate(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().SetActive(ctx, id, false); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeRefreshTokensForAccount(ctx, id)
	})
	if errors.Is(err, store.ErrNotFound) {
		return ErrAccountNotFound
	}
	return err
}
