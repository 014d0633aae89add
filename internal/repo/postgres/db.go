package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is shared by every repo: the pool, the metrics sink and the deadline each
// storage call runs under.
type DB struct {
	pool    *pgxpool.Pool
	prom    *observability.Prom
	timeout time.Duration
}

func NewDB(pool *pgxpool.Pool, prom *observability.Prom, timeout time.Duration) *DB {
	return &DB{pool: pool, prom: prom, timeout: timeout}
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Now returns the database clock; the health endpoint reports it.
func (db *DB) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	err := db.pool.QueryRow(ctx, `SELECT NOW()`).Scan(&now)
	return now, err
}

func (db *DB) observe(op string, fn func() error) error {
	if db.prom != nil {
		return db.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (db *DB) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.timeout)
}

// inTx runs fn inside one database transaction. The deferred rollback is a
// no-op after a successful commit, so every early return undoes the work.
func (db *DB) inTx(ctx context.Context, op string, fn func(ctx context.Context, tx pgx.Tx) error) (err error) {
	ctx, cancel := db.bound(ctx)
	defer cancel()

	tx, err := db.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return translate(op+".begin", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err = fn(ctx, tx); err != nil {
		return translate(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return translate(op+".commit", err)
	}

	return nil
}

// validID reports whether id can name a row. Ids are UUID columns, so
// anything else cannot match and would only trip a cast error in postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// translate maps driver failures onto domain errors. Errors that already
// carry a domain kind pass through untouched.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	for _, kind := range []error{apperr.ErrValidation, apperr.ErrNotFound, apperr.ErrConflict, apperr.ErrForbidden, apperr.ErrPersistence} {
		if errors.Is(err, kind) {
			return err
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22003":
			// numeric field overflow; amounts are range checked before insert,
			// so only the running balance can reach it.
			return transaction.ErrBalanceOutOfRange
		case "23505":
			if pgErr.ConstraintName == "users_email_key" {
				return user.ErrDuplicateEmail
			}
			return apperr.New(apperr.ErrConflict, pgErr.ConstraintName)
		case "23503":
			switch pgErr.ConstraintName {
			case "transactions_account_id_fkey":
				return account.ErrNotFound
			case "accounts_user_id_fkey", "user_roles_user_id_fkey":
				return user.ErrNotFound
			}
		}
	}

	return apperr.Persistence(op, err)
}
