package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/identity"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx identity.Tx) error) error {
	return r.s.run(ctx, func(u *unit) error { return fn(ctx, u) })
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = user.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.withRoles(u), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(ctx context.Context, userID string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.withRoles(u), nil
}

// List orders by creation time, newest first.
func (r *UsersRepo) List(ctx context.Context, limit, offset int) ([]user.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, r.s.withRoles(u))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	return window(all, limit, offset), len(all), nil
}

func (r *UsersRepo) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("memory.users.delete", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[userID]; !ok {
		return user.ErrNotFound
	}

	owned := make(map[string]struct{})
	for id, a := range r.s.accounts {
		if a.UserID == userID {
			owned[id] = struct{}{}
			delete(r.s.accounts, id)
		}
	}

	kept := r.s.txns[:0]
	for _, row := range r.s.txns {
		if _, gone := owned[row.t.AccountID]; !gone {
			kept = append(kept, row)
		}
	}
	r.s.txns = kept

	delete(r.s.roles, userID)
	delete(r.s.users, userID)
	return nil
}

func (r *UsersRepo) Overview(ctx context.Context) (user.Overview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return user.Overview{
		TotalUsers:        len(r.s.users),
		TotalAccounts:     len(r.s.accounts),
		TotalTransactions: len(r.s.txns),
	}, nil
}

func window[T any](all []T, limit, offset int) []T {
	if offset < 0 || limit <= 0 || offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end < offset || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}
