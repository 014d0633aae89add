package identity_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/identity"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/geocoder89/ledgerhub/internal/repo/memory"
	"github.com/geocoder89/ledgerhub/internal/security"
	"github.com/shopspring/decimal"
)

// plainHasher keeps the tests fast; bcrypt is covered in the security package.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "h:"+p {
		return security.ErrInvalidCredentials
	}
	return nil
}

func newService(t *testing.T) (*identity.Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	return identity.NewService(st.Users(), plainHasher{}, nil), st
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Alice@Example.com ", "secret1", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	got, err := svc.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("expected normalized email, got %q", got.Email)
	}
	if len(got.Roles) != 1 || got.Roles[0] != role.User {
		t.Fatalf("expected [ROLE_USER], got %v", got.Roles)
	}

	_, err = svc.Register(ctx, "ALICE@example.com", "other12", "Alice 2")
	if !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

var errInjected = errors.New("injected fault")

type faultyStore struct {
	identity.Store
	failAddRole bool
}

func (s faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx identity.Tx) error) error {
	return s.Store.InTx(ctx, func(ctx context.Context, tx identity.Tx) error {
		return fn(ctx, faultyTx{Tx: tx, failAddRole: s.failAddRole})
	})
}

type faultyTx struct {
	identity.Tx
	failAddRole bool
}

func (t faultyTx) AddRole(ctx context.Context, userID string, r role.Role) error {
	if t.failAddRole {
		return errInjected
	}
	return t.Tx.AddRole(ctx, userID, r)
}

func TestRegister_RoleFailureAbortsUser(t *testing.T) {
	st := memory.NewStore()
	svc := identity.NewService(faultyStore{Store: st.Users(), failAddRole: true}, plainHasher{}, nil)

	_, err := svc.Register(context.Background(), "bob@example.com", "secret1", "Bob")
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected fault, got %v", err)
	}

	if _, err := st.Users().FindByEmail(context.Background(), "bob@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected no user after failed registration, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "carol@example.com", "secret1", "Carol"); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"ok", "carol@example.com", "secret1", nil},
		{"case insensitive email", "CAROL@example.com", "secret1", nil},
		{"wrong password", "carol@example.com", "nope", security.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "secret1", security.ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tc.email, tc.password)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("authenticate: %v", err)
			}
			if u.FullName != "Carol" || len(u.Roles) == 0 {
				t.Fatalf("unexpected user %+v", u)
			}
		})
	}
}

func TestAuthenticate_Bcrypt(t *testing.T) {
	st := memory.NewStore()
	svc := identity.NewService(st.Users(), security.Hasher{}, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dan@example.com", "secret1", "Dan"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "dan@example.com", "secret1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestSetRoles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "erin@example.com", "secret1", "Erin")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	roles, err := svc.SetRoles(ctx, u.ID, []string{"ROLE_CLIENT", "ROLE_ADMIN", "ROLE_CLIENT"})
	if err != nil {
		t.Fatalf("set roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected duplicates collapsed, got %v", roles)
	}

	got, _ := svc.Get(ctx, u.ID)
	set := got.RoleSet()
	if set.Has(role.User) || !set.Has(role.Client) || !set.Has(role.Admin) {
		t.Fatalf("expected exactly CLIENT+ADMIN, got %v", got.Roles)
	}
	if got.PrimaryRole() != role.Admin {
		t.Fatalf("expected primary role admin, got %s", got.PrimaryRole())
	}
}

func TestSetRoles_Rejects(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "frank@example.com", "secret1", "Frank")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.SetRoles(ctx, u.ID, []string{"ROLE_CLIENT", "ROLE_ROOT"}); !errors.Is(err, role.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := svc.SetRoles(ctx, "missing", []string{"ROLE_CLIENT"}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, _ := svc.Get(ctx, u.ID)
	if len(got.Roles) != 1 || got.Roles[0] != role.User {
		t.Fatalf("expected roles untouched, got %v", got.Roles)
	}
}

func TestSetRoles_FaultKeepsPreviousRoles(t *testing.T) {
	st := memory.NewStore()
	ctx := context.Background()

	u, err := identity.NewService(st.Users(), plainHasher{}, nil).Register(ctx, "gina@example.com", "secret1", "Gina")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	broken := identity.NewService(faultyStore{Store: st.Users(), failAddRole: true}, plainHasher{}, nil)
	if _, err := broken.SetRoles(ctx, u.ID, []string{"ROLE_ADMIN"}); !errors.Is(err, errInjected) {
		t.Fatalf("expected injected fault, got %v", err)
	}

	got, err := st.Users().GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Roles) != 1 || got.Roles[0] != role.User {
		t.Fatalf("expected the delete to be rolled back, got %v", got.Roles)
	}
}

func TestListDeleteOverview(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		u, err := svc.Register(ctx, fmt.Sprintf("u%d@example.com", i), "secret1", "U")
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		ids = append(ids, u.ID)
	}

	res, err := svc.List(ctx, page.Request{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(res.Items) != 2 || res.TotalCount != 5 || res.TotalPages != 3 {
		t.Fatalf("unexpected page %+v", res)
	}

	eng := ledger.New(st.Ledger(), nil)
	a, err := account.New(ids[0], "Main", string(account.Checking), "")
	if err != nil {
		t.Fatalf("new account: %v", err)
	}
	if _, err := eng.OpenAccount(ctx, a, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("open: %v", err)
	}

	ov, err := svc.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov != (user.Overview{TotalUsers: 5, TotalAccounts: 1, TotalTransactions: 1}) {
		t.Fatalf("unexpected overview %+v", ov)
	}

	if err := svc.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, ids[0]); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}

	ov, _ = svc.Overview(ctx)
	if ov != (user.Overview{TotalUsers: 4}) {
		t.Fatalf("expected cascade to remove accounts and transactions, got %+v", ov)
	}
	if _, err := st.Accounts().GetByID(ctx, a.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected account gone, got %v", err)
	}
}
