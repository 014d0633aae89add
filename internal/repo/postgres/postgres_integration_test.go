package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/ledgerhub/internal/accounts"
	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/db"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/identity"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/geocoder89/ledgerhub/internal/observability"
	"github.com/geocoder89/ledgerhub/internal/repo/postgres"
	"github.com/geocoder89/ledgerhub/internal/security"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func (plainHasher) Compare(hash, p string) error {
	if hash != "h:"+p {
		return security.ErrInvalidCredentials
	}
	return nil
}

type fixture struct {
	pool     *pgxpool.Pool
	users    *identity.Service
	accounts *accounts.Service
	engine   *ledger.Engine
	prom     *observability.Prom
}

func setup(t *testing.T) fixture {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 10)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE transactions, accounts, user_roles, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	prom := observability.NewProm()
	pg := postgres.NewDB(pool, prom, 5*time.Second)
	engine := ledger.New(postgres.NewLedgerRepo(pg), nil)

	return fixture{
		pool:     pool,
		users:    identity.NewService(postgres.NewUsersRepo(pg), plainHasher{}, nil),
		accounts: accounts.NewService(postgres.NewAccountsRepo(pg), engine),
		engine:   engine,
		prom:     prom,
	}
}

func (f fixture) register(t *testing.T, email string) user.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), email, "secret123", "Test User")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestRegisterAndRoles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.register(t, "ada@example.com")

	got, err := f.users.FindByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.RoleSet().Has(role.User) {
		t.Fatalf("expected ROLE_USER, got %v", got.Roles)
	}

	if _, err := f.users.Register(ctx, "ada@example.com", "secret123", "Again"); !errors.Is(err, user.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	if _, err := f.users.SetRoles(ctx, u.ID, []string{"ROLE_CLIENT", "ROLE_ADMIN"}); err != nil {
		t.Fatalf("set roles: %v", err)
	}
	got, _ = f.users.Get(ctx, u.ID)
	if s := got.RoleSet(); !s.Has(role.Client) || !s.Has(role.Admin) || s.Has(role.User) {
		t.Fatalf("roles not replaced: %v", got.Roles)
	}

	if _, err := f.users.SetRoles(ctx, "00000000-0000-0000-0000-000000000000", []string{"ROLE_USER"}); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.register(t, "ada@example.com")
	a, err := f.accounts.Create(ctx, u.ID, "Everyday", "Checking", decimal.Zero, "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	for _, amt := range []string{"100.00", "-30.00", "5.50"} {
		if _, err := f.engine.AppendTransaction(ctx, a.ID, dec(amt), "entry", nil); err != nil {
			t.Fatalf("append %s: %v", amt, err)
		}
	}

	got, err := f.accounts.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(dec("75.50")) {
		t.Fatalf("balance = %s, want 75.50", got.Balance)
	}

	d, err := f.engine.ComputeDashboard(ctx, u.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !d.TotalIncome.Equal(dec("105.50")) || !d.TotalSpending.Equal(dec("30")) || !d.NetWorth.Equal(dec("75.50")) {
		t.Fatalf("unexpected dashboard: %+v", d)
	}
	if len(d.RecentTransactions) != 3 || !d.RecentTransactions[0].Amount.Equal(dec("5.50")) || d.RecentTransactions[0].AccountName != "Everyday" {
		t.Fatalf("unexpected recent: %+v", d.RecentTransactions)
	}

	res, err := f.engine.ListTransactions(ctx, a.ID, page.Request{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.TotalCount != 3 || res.TotalPages != 2 || len(res.Items) != 1 || !res.Items[0].Amount.Equal(dec("100")) {
		t.Fatalf("unexpected page: %+v", res)
	}
}

func TestBalanceOverflowIsRejected(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.register(t, "ada@example.com")
	a, err := f.accounts.Create(ctx, u.ID, "Full", "Savings", dec("9999999999999.99"), "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err = f.engine.AppendTransaction(ctx, a.ID, dec("0.01"), "one cent too many", nil)
	if !errors.Is(err, transaction.ErrBalanceOutOfRange) {
		t.Fatalf("expected ErrBalanceOutOfRange, got %v", err)
	}
	if errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("overflow surfaced as a persistence failure: %v", err)
	}

	got, err := f.accounts.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(transaction.MaxAmount) {
		t.Fatalf("balance moved to %s", got.Balance)
	}

	var n int
	if err := f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, a.ID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("transactions = %d, want only the opening row", n)
	}
}

func TestListUsersPastEndIsObserved(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.register(t, "ada@example.com")
	f.register(t, "bob@example.com")

	if _, err := f.users.List(ctx, page.Request{Page: 0, Size: 1}); err != nil {
		t.Fatalf("first page: %v", err)
	}
	before := testutil.CollectAndCount(f.prom.DbQueryDuration)

	res, err := f.users.List(ctx, page.Request{Page: 10, Size: 1})
	if err != nil {
		t.Fatalf("past end: %v", err)
	}
	if len(res.Items) != 0 || res.TotalCount != 2 {
		t.Fatalf("unexpected page past the end: %+v", res)
	}

	// the fallback count reports under its own op label
	if after := testutil.CollectAndCount(f.prom.DbQueryDuration); after != before+1 {
		t.Fatalf("query duration series = %d, want %d", after, before+1)
	}
}

func TestAppendUnknownAccountLeavesNoRow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.engine.AppendTransaction(ctx, "00000000-0000-0000-0000-000000000000", dec("1"), "ghost", nil)
	if !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected account.ErrNotFound, got %v", err)
	}

	var n int
	if err := f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("transactions = %d, want 0", n)
	}
}

func TestConcurrentAppends(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.register(t, "ada@example.com")
	a, err := f.accounts.Create(ctx, u.ID, "Busy", "Savings", decimal.Zero, "USD")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.engine.AppendTransaction(ctx, a.ID, dec("2.25"), "tick", nil); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("append: %v", err)
	}

	got, _ := f.accounts.Get(ctx, a.ID)
	if want := dec("2.25").Mul(decimal.NewFromInt(n)); !got.Balance.Equal(want) {
		t.Fatalf("balance = %s, want %s", got.Balance, want)
	}

	var rows int
	if err := f.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, a.ID).Scan(&rows); err != nil {
		t.Fatalf("count: %v", err)
	}
	if rows != n {
		t.Fatalf("rows = %d, want %d", rows, n)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u := f.register(t, "ada@example.com")
	if _, err := f.accounts.Create(ctx, u.ID, "Everyday", "Checking", dec("40"), "USD"); err != nil {
		t.Fatalf("create account: %v", err)
	}

	if err := f.users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ov, err := f.users.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov != (user.Overview{}) {
		t.Fatalf("expected empty overview after cascade, got %+v", ov)
	}

	if err := f.users.Delete(ctx, u.ID); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStoreTimeoutSurfacesAsPersistence(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.users.FindByEmail(ctx, "ada@example.com")
	if !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}
