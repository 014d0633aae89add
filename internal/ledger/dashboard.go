package ledger

import (
	"context"

	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"golang.org/x/sync/errgroup"
)

// ComputeDashboard aggregates every account owned by userID. The income and
// spending window ends at the engine clock's current reading, so the result is
// not reproducible across calls made at different times. The three reads run
// concurrently on separate connections, so they may observe different commits.
func (e *Engine) ComputeDashboard(ctx context.Context, userID string) (transaction.Dashboard, error) {
	ctx, span := tracer.Start(ctx, "ledger.compute_dashboard")
	defer span.End()

	end := e.now().UTC()
	d := transaction.Dashboard{
		WindowStart: end.Add(-DashboardWindow),
		WindowEnd:   end,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		d.NetWorth, d.TotalAccounts, err = e.store.AccountTotals(gctx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		d.TotalIncome, d.TotalSpending, err = e.store.FlowSince(gctx, userID, d.WindowStart)
		return err
	})

	g.Go(func() error {
		var err error
		d.RecentTransactions, err = e.store.RecentForUser(gctx, userID, RecentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return transaction.Dashboard{}, err
	}

	if d.RecentTransactions == nil {
		d.RecentTransactions = []transaction.Recent{}
	}

	return d, nil
}
