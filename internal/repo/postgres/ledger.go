package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type LedgerRepo struct {
	db *DB
}

func NewLedgerRepo(db *DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

func (r *LedgerRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	return r.db.inTx(ctx, "ledger.tx", func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &ledgerTx{db: r.db, tx: tx})
	})
}

const txnCols = `t.id, t.account_id, t.amount, t.description, t.category, t.transaction_time, t.created_at`

func (r *LedgerRepo) ListTransactions(ctx context.Context, accountID string, limit, offset int) (out []transaction.Transaction, total int, err error) {
	const op = "ledger.list_transactions"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		return r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&total)
	})
	if err != nil {
		return nil, 0, translate(op, err)
	}

	var rows pgx.Rows
	err = r.db.observe(op, func() error {
		rows, err = r.db.pool.Query(ctx, `
			SELECT `+txnCols+`
			FROM transactions t
			WHERE t.account_id = $1
			ORDER BY t.transaction_time DESC, t.seq DESC
			LIMIT $2 OFFSET $3`,
			accountID, limit, offset,
		)
		return err
	})
	if err != nil {
		return nil, 0, translate(op, err)
	}
	defer rows.Close()

	out = make([]transaction.Transaction, 0, limit)
	for rows.Next() {
		var t transaction.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Description, &t.Category, &t.OccurredAt, &t.CreatedAt); err != nil {
			return nil, 0, translate(op, err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, translate(op, err)
	}
	return out, total, nil
}

func (r *LedgerRepo) AccountTotals(ctx context.Context, userID string) (netWorth decimal.Decimal, count int, err error) {
	const op = "ledger.account_totals"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		return r.db.pool.QueryRow(ctx, `
			SELECT COALESCE(SUM(balance), 0), COUNT(*)
			FROM accounts
			WHERE user_id = $1`,
			userID,
		).Scan(&netWorth, &count)
	})
	if err != nil {
		return decimal.Zero, 0, translate(op, err)
	}
	return netWorth, count, nil
}

func (r *LedgerRepo) FlowSince(ctx context.Context, userID string, since time.Time) (income, spending decimal.Decimal, err error) {
	const op = "ledger.flow_since"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		return r.db.pool.QueryRow(ctx, `
			SELECT
				COALESCE(SUM(CASE WHEN t.amount > 0 THEN t.amount ELSE 0 END), 0),
				COALESCE(SUM(CASE WHEN t.amount < 0 THEN ABS(t.amount) ELSE 0 END), 0)
			FROM transactions t
			JOIN accounts a ON a.id = t.account_id
			WHERE a.user_id = $1 AND t.transaction_time >= $2`,
			userID, since,
		).Scan(&income, &spending)
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, translate(op, err)
	}
	return income, spending, nil
}

func (r *LedgerRepo) RecentForUser(ctx context.Context, userID string, limit int) (out []transaction.Recent, err error) {
	const op = "ledger.recent_for_user"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	var rows pgx.Rows
	err = r.db.observe(op, func() error {
		rows, err = r.db.pool.Query(ctx, `
			SELECT `+txnCols+`, a.account_name
			FROM transactions t
			JOIN accounts a ON a.id = t.account_id
			WHERE a.user_id = $1
			ORDER BY t.transaction_time DESC, t.seq DESC
			LIMIT $2`,
			userID, limit,
		)
		return err
	})
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out = make([]transaction.Recent, 0, limit)
	for rows.Next() {
		var t transaction.Recent
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Description, &t.Category, &t.OccurredAt, &t.CreatedAt, &t.AccountName); err != nil {
			return nil, translate(op, err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return out, nil
}

type ledgerTx struct {
	db *DB
	tx pgx.Tx
}

func (t *ledgerTx) InsertAccount(ctx context.Context, a account.Account) error {
	return t.db.observe("ledger.tx.insert_account", func() error {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO accounts (id, user_id, account_name, account_type, balance, currency, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			a.ID, a.UserID, a.Name, string(a.Type), a.Balance, a.Currency, a.CreatedAt, a.UpdatedAt,
		)
		return err
	})
}

func (t *ledgerTx) InsertTransaction(ctx context.Context, txn transaction.Transaction) error {
	if !validID(txn.AccountID) {
		return account.ErrNotFound
	}
	return t.db.observe("ledger.tx.insert_transaction", func() error {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO transactions (id, account_id, amount, description, category, transaction_time, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			txn.ID, txn.AccountID, txn.Amount, txn.Description, txn.Category, txn.OccurredAt, txn.CreatedAt,
		)
		return err
	})
}

// AdjustBalance is a relative update: the row lock it takes serializes
// concurrent appends to the same account without a read-modify-write race.
func (t *ledgerTx) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal) (balance decimal.Decimal, err error) {
	err = t.db.observe("ledger.tx.adjust_balance", func() error {
		return t.tx.QueryRow(ctx, `
			UPDATE accounts
			SET balance = balance + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING balance`,
			accountID, delta,
		).Scan(&balance)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, account.ErrNotFound
	}
	return balance, err
}
