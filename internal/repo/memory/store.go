// Package memory is the dev/test storage driver. One Store holds every table;
// Users, Accounts and Ledger are views over it sharing a single lock, so a
// unit of work sees a consistent snapshot of all of them.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
)

type txRow struct {
	t   transaction.Transaction
	seq int64
}

type Store struct {
	mu       sync.RWMutex
	users    map[string]user.User // roles are kept in roles, not on the struct
	roles    map[string]role.Set
	accounts map[string]account.Account
	txns     []txRow
	seq      int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]user.User),
		roles:    make(map[string]role.Set),
		accounts: make(map[string]account.Account),
	}
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }

func (s *Store) Accounts() *AccountsRepo { return &AccountsRepo{s: s} }

func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

// Ping is used by the health handlers.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// run serializes units of work. Writes are staged on u and applied only when
// fn returns nil, so an error or panic leaves the store untouched.
func (s *Store) run(ctx context.Context, fn func(u *unit) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Persistence("memory.tx.begin", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := newUnit(s)
	if err := fn(u); err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return apperr.Persistence("memory.tx", err)
		}
		return err
	}

	if err := ctx.Err(); err != nil {
		return apperr.Persistence("memory.tx.commit", err)
	}

	u.apply()
	return nil
}

func (s *Store) rolesOf(userID string) []role.Role {
	return s.roles[userID].Slice()
}

func (s *Store) withRoles(u user.User) user.User {
	u.Roles = s.rolesOf(u.ID)
	return u
}
