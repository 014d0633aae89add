package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate email", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}, user.ErrDuplicateEmail},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"}, apperr.ErrConflict},
		{"missing account", &pgconn.PgError{Code: "23503", ConstraintName: "transactions_account_id_fkey"}, account.ErrNotFound},
		{"missing user", &pgconn.PgError{Code: "23503", ConstraintName: "accounts_user_id_fkey"}, user.ErrNotFound},
		{"numeric overflow", &pgconn.PgError{Code: "22003"}, transaction.ErrBalanceOutOfRange},
		{"domain error passes", transaction.ErrAmountOutOfRange, transaction.ErrAmountOutOfRange},
		{"deadline", context.DeadlineExceeded, apperr.ErrPersistence},
		{"unknown sqlstate", &pgconn.PgError{Code: "40P01"}, apperr.ErrPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate("test.op", tt.err)
			if !errors.Is(got, tt.want) {
				t.Fatalf("translate(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	if translate("test.op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}

func TestNumericOverflowIsValidation(t *testing.T) {
	err := translate("ledger.append", &pgconn.PgError{Code: "22003"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("overflow must not surface as a persistence failure")
	}
}
