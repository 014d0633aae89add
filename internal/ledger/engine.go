// Package ledger owns the only write path that touches an account balance:
// a transaction row and its balance adjustment commit together or not at all.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/ledgerhub/internal/actorctx"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Tx is the storage handle scoped to one unit of work. It is only valid
// inside the callback passed to Store.InTx.
type Tx interface {
	InsertAccount(ctx context.Context, a account.Account) error
	InsertTransaction(ctx context.Context, t transaction.Transaction) error
	// AdjustBalance adds delta to the stored balance (balance = balance + delta)
	// and returns the new balance. It fails with account.ErrNotFound when no
	// row matched.
	AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
}

type Store interface {
	// InTx runs fn in a single unit of work. Any error returned by fn, or any
	// panic, rolls the whole unit back.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]transaction.Transaction, int, error)
	AccountTotals(ctx context.Context, userID string) (netWorth decimal.Decimal, count int, err error)
	FlowSince(ctx context.Context, userID string, since time.Time) (income, spending decimal.Decimal, err error)
	RecentForUser(ctx context.Context, userID string, limit int) ([]transaction.Recent, error)
}

// Observer receives append outcomes; observability.Prom implements it.
type Observer interface {
	ObserveAppend(result string, d time.Duration)
}

const (
	DashboardWindow = 30 * 24 * time.Hour
	RecentLimit     = 10
)

type Engine struct {
	store Store
	log   *slog.Logger
	obs   Observer
	now   func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.obs = obs }
}

func New(store Store, log *slog.Logger, opts ...Option) *Engine {
	if log == nil {
		log = slog.Default()
	}
	e := &Engine{
		store: store,
		log:   log,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var tracer = otel.Tracer("github.com/geocoder89/ledgerhub/internal/ledger")

// Appended is the committed transaction plus the balance it produced.
type Appended struct {
	Transaction transaction.Transaction `json:"transaction"`
	Balance     decimal.Decimal         `json:"balance"`
}

// AppendTransaction records amount against accountID. Ownership must already
// have been checked by the caller.
func (e *Engine) AppendTransaction(ctx context.Context, accountID string, amount decimal.Decimal, description string, category *string) (Appended, error) {
	ctx, span := tracer.Start(ctx, "ledger.append_transaction")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))
	actor, _ := actorctx.UserIDFrom(ctx)
	if actor != "" {
		span.SetAttributes(attribute.String("enduser.id", actor))
	}

	start := time.Now()

	t, err := transaction.New(accountID, amount, description, category, e.now())
	if err != nil {
		e.observe("invalid", start)
		return Appended{}, err
	}

	var balance decimal.Decimal
	err = e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}

		b, err := tx.AdjustBalance(ctx, accountID, t.Amount)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		e.observe("failed", start)
		e.log.WarnContext(ctx, "ledger append failed", "account_id", accountID, "actor", actor, "err", err)
		return Appended{}, err
	}

	e.observe("committed", start)
	e.log.DebugContext(ctx, "ledger append committed",
		"account_id", accountID,
		"transaction_id", t.ID,
		"amount", t.Amount.String(),
		"actor", actor,
	)

	return Appended{Transaction: t, Balance: balance}, nil
}

// OpenAccount inserts a new zero-balance account and, when openingBalance is
// non-zero, an opening transaction in the same unit of work, so the balance
// always equals the sum of the account's transactions.
func (e *Engine) OpenAccount(ctx context.Context, a account.Account, openingBalance decimal.Decimal) (account.Account, error) {
	ctx, span := tracer.Start(ctx, "ledger.open_account")
	defer span.End()

	a.Balance = decimal.Zero
	openingBalance = openingBalance.Round(transaction.Scale)

	err := e.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertAccount(ctx, a); err != nil {
			return err
		}

		if openingBalance.IsZero() {
			return nil
		}

		t, err := transaction.New(a.ID, openingBalance, transaction.OpeningBalanceDescription, nil, e.now())
		if err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}

		b, err := tx.AdjustBalance(ctx, a.ID, t.Amount)
		if err != nil {
			return err
		}
		a.Balance = b
		return nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open account failed")
		return account.Account{}, err
	}

	return a, nil
}

// ListTransactions returns one zero-based page of the account's history,
// newest first.
func (e *Engine) ListTransactions(ctx context.Context, accountID string, req page.Request) (page.Result[transaction.Transaction], error) {
	if err := req.Validate(); err != nil {
		return page.Result[transaction.Transaction]{}, err
	}

	items, total, err := e.store.ListTransactions(ctx, accountID, req.Limit(), req.Offset())
	if err != nil {
		return page.Result[transaction.Transaction]{}, err
	}

	return page.NewResult(items, req, total), nil
}

func (e *Engine) observe(result string, start time.Time) {
	if e.obs != nil {
		e.obs.ObserveAppend(result, time.Since(start))
	}
}
