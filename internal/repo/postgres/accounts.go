package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/jackc/pgx/v5"
)

type AccountsRepo struct {
	db *DB
}

func NewAccountsRepo(db *DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

const accountCols = `id, user_id, account_name, account_type, balance, currency, created_at, updated_at`

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *AccountsRepo) ListByUser(ctx context.Context, userID string) (out []account.Account, err error) {
	const op = "accounts.list_by_user"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	var rows pgx.Rows
	err = r.db.observe(op, func() error {
		rows, err = r.db.pool.Query(ctx, `
			SELECT `+accountCols+`
			FROM accounts
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC`,
			userID,
		)
		return err
	})
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out = make([]account.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, translate(op, err)
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, translate(op, err)
	}
	return out, nil
}

func (r *AccountsRepo) GetByID(ctx context.Context, accountID string) (a account.Account, err error) {
	const op = "accounts.get_by_id"

	if !validID(accountID) {
		return account.Account{}, account.ErrNotFound
	}

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		a, err = scanAccount(r.db.pool.QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = $1`, accountID))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, translate(op, err)
	}
	return a, nil
}
