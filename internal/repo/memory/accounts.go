package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
)

type AccountsRepo struct {
	s *Store
}

// ListByUser orders by creation time, newest first.
func (r *AccountsRepo) ListByUser(ctx context.Context, userID string) ([]account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]account.Account, 0)
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, accountID string) (account.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[accountID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}
