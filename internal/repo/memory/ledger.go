package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/shopspring/decimal"
)

type LedgerRepo struct {
	s *Store
}

func (r *LedgerRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return r.s.run(ctx, func(u *unit) error { return fn(ctx, u) })
}

// newestFirst orders by transaction time, then by insertion sequence.
func newestFirst(rows []txRow) {
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].t.OccurredAt.Equal(rows[j].t.OccurredAt) {
			return rows[i].t.OccurredAt.After(rows[j].t.OccurredAt)
		}
		return rows[i].seq > rows[j].seq
	})
}

func (r *LedgerRepo) ListTransactions(ctx context.Context, accountID string, limit, offset int) ([]transaction.Transaction, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]txRow, 0)
	for _, row := range r.s.txns {
		if row.t.AccountID == accountID {
			rows = append(rows, row)
		}
	}
	newestFirst(rows)

	page := window(rows, limit, offset)
	out := make([]transaction.Transaction, len(page))
	for i, row := range page {
		out[i] = row.t
	}
	return out, len(rows), nil
}

func (r *LedgerRepo) AccountTotals(ctx context.Context, userID string) (decimal.Decimal, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := decimal.Zero
	n := 0
	for _, a := range r.s.accounts {
		if a.UserID == userID {
			total = total.Add(a.Balance)
			n++
		}
	}
	return total, n, nil
}

func (r *LedgerRepo) FlowSince(ctx context.Context, userID string, since time.Time) (decimal.Decimal, decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	income, spending := decimal.Zero, decimal.Zero
	for _, row := range r.s.txns {
		a, ok := r.s.accounts[row.t.AccountID]
		if !ok || a.UserID != userID || row.t.OccurredAt.Before(since) {
			continue
		}
		if row.t.IsCredit() {
			income = income.Add(row.t.Amount)
		} else {
			spending = spending.Add(row.t.Amount.Abs())
		}
	}
	return income, spending, nil
}

func (r *LedgerRepo) RecentForUser(ctx context.Context, userID string, limit int) ([]transaction.Recent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]txRow, 0)
	for _, row := range r.s.txns {
		if a, ok := r.s.accounts[row.t.AccountID]; ok && a.UserID == userID {
			rows = append(rows, row)
		}
	}
	newestFirst(rows)

	rows = window(rows, limit, 0)
	out := make([]transaction.Recent, len(rows))
	for i, row := range rows {
		out[i] = transaction.Recent{
			Transaction: row.t,
			AccountName: r.s.accounts[row.t.AccountID].Name,
		}
	}
	return out, nil
}
