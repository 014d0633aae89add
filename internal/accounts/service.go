// Package accounts creates and reads accounts. Balances are never written
// here; every balance change goes through the ledger engine.
package accounts

import (
	"context"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/shopspring/decimal"
)

type Store interface {
	ListByUser(ctx context.Context, userID string) ([]account.Account, error)
	GetByID(ctx context.Context, accountID string) (account.Account, error)
}

// Opener is satisfied by *ledger.Engine.
type Opener interface {
	OpenAccount(ctx context.Context, a account.Account, openingBalance decimal.Decimal) (account.Account, error)
}

type Service struct {
	store  Store
	opener Opener
}

func NewService(store Store, opener Opener) *Service {
	return &Service{store: store, opener: opener}
}

// Create validates the type and currency, then opens the account. A non-zero
// initial balance becomes the account's first transaction.
func (s *Service) Create(ctx context.Context, userID, name, typ string, initialBalance decimal.Decimal, currency string) (account.Account, error) {
	a, err := account.New(userID, name, typ, currency)
	if err != nil {
		return account.Account{}, err
	}
	return s.opener.OpenAccount(ctx, a, initialBalance)
}

// List returns the user's accounts, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]account.Account, error) {
	items, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []account.Account{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, accountID string) (account.Account, error) {
	return s.store.GetByID(ctx, accountID)
}
