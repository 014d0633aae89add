package memory

import (
	"context"
	"time"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/shopspring/decimal"
)

// unit is the staged view of one unit of work. It satisfies both ledger.Tx
// and identity.Tx. Callers hold s.mu for its whole lifetime.
type unit struct {
	s *Store

	users      map[string]user.User
	roleResets map[string]bool
	roleAdds   map[string]role.Set
	accounts   map[string]account.Account
	txns       []transaction.Transaction
	deltas     map[string]decimal.Decimal
}

func newUnit(s *Store) *unit {
	return &unit{
		s:          s,
		users:      make(map[string]user.User),
		roleResets: make(map[string]bool),
		roleAdds:   make(map[string]role.Set),
		accounts:   make(map[string]account.Account),
		deltas:     make(map[string]decimal.Decimal),
	}
}

func (u *unit) account(id string) (account.Account, bool) {
	if a, ok := u.accounts[id]; ok {
		return a, true
	}
	a, ok := u.s.accounts[id]
	return a, ok
}

func (u *unit) InsertAccount(ctx context.Context, a account.Account) error {
	if _, ok := u.userByID(a.UserID); !ok {
		return user.ErrNotFound
	}
	u.accounts[a.ID] = a
	return ctx.Err()
}

func (u *unit) InsertTransaction(ctx context.Context, t transaction.Transaction) error {
	if _, ok := u.account(t.AccountID); !ok {
		return account.ErrNotFound
	}
	u.txns = append(u.txns, t)
	return ctx.Err()
}

func (u *unit) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	a, ok := u.account(accountID)
	if !ok {
		return decimal.Zero, account.ErrNotFound
	}
	d := u.deltas[accountID].Add(delta)
	balance := a.Balance.Add(d)
	if !transaction.InRange(balance) {
		return decimal.Zero, transaction.ErrBalanceOutOfRange
	}
	u.deltas[accountID] = d
	return balance, ctx.Err()
}

func (u *unit) userByID(id string) (user.User, bool) {
	if usr, ok := u.users[id]; ok {
		return usr, true
	}
	usr, ok := u.s.users[id]
	return usr, ok
}

func (u *unit) EmailExists(ctx context.Context, email string) (bool, error) {
	email = user.NormalizeEmail(email)
	for _, usr := range u.users {
		if usr.Email == email {
			return true, nil
		}
	}
	for _, usr := range u.s.users {
		if usr.Email == email {
			return true, nil
		}
	}
	return false, ctx.Err()
}

func (u *unit) InsertUser(ctx context.Context, usr user.User) error {
	exists, err := u.EmailExists(ctx, usr.Email)
	if err != nil {
		return err
	}
	if exists {
		return user.ErrDuplicateEmail
	}
	usr.Roles = nil
	u.users[usr.ID] = usr
	return nil
}

func (u *unit) UserExists(ctx context.Context, id string) (bool, error) {
	_, ok := u.userByID(id)
	return ok, ctx.Err()
}

func (u *unit) DeleteRoles(ctx context.Context, userID string) error {
	u.roleResets[userID] = true
	delete(u.roleAdds, userID)
	return ctx.Err()
}

func (u *unit) AddRole(ctx context.Context, userID string, r role.Role) error {
	if !r.Valid() {
		return role.ErrUnknownRole
	}
	if _, ok := u.userByID(userID); !ok {
		return user.ErrNotFound
	}
	set, ok := u.roleAdds[userID]
	if !ok {
		set = role.NewSet()
		u.roleAdds[userID] = set
	}
	set[r] = struct{}{}
	return ctx.Err()
}

func (u *unit) apply() {
	now := time.Now().UTC()
	s := u.s
	for id, usr := range u.users {
		s.users[id] = usr
	}
	for id := range u.roleResets {
		s.roles[id] = role.NewSet()
	}
	for id, set := range u.roleAdds {
		cur, ok := s.roles[id]
		if !ok {
			cur = role.NewSet()
			s.roles[id] = cur
		}
		for r := range set {
			cur[r] = struct{}{}
		}
	}
	for id, a := range u.accounts {
		s.accounts[id] = a
	}
	for _, t := range u.txns {
		s.seq++
		s.txns = append(s.txns, txRow{t: t, seq: s.seq})
	}
	for id, d := range u.deltas {
		a := s.accounts[id]
		a.Balance = a.Balance.Add(d)
		a.UpdatedAt = now
		s.accounts[id] = a
	}
}
