package db

import (
	"context"
	"fmt"

	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Constraint names are load-bearing: the postgres repos map them to domain
// errors.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		full_name     TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id   SMALLSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id UUID NOT NULL,
		role_id SMALLINT NOT NULL,
		PRIMARY KEY (user_id, role_id),
		CONSTRAINT user_roles_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT user_roles_role_id_fkey FOREIGN KEY (role_id) REFERENCES roles (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL,
		account_name TEXT NOT NULL,
		account_type TEXT NOT NULL CHECK (account_type IN ('Savings', 'Checking', 'Credit', 'Investment')),
		balance      NUMERIC(15,2) NOT NULL DEFAULT 0,
		currency     CHAR(3) NOT NULL DEFAULT 'USD',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT accounts_user_id_fkey FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS accounts_user_created_idx ON accounts (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id               UUID PRIMARY KEY,
		seq              BIGSERIAL NOT NULL,
		account_id       UUID NOT NULL,
		amount           NUMERIC(15,2) NOT NULL CHECK (amount <> 0),
		description      TEXT NOT NULL CHECK (description <> ''),
		category         TEXT,
		transaction_time TIMESTAMPTZ NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT transactions_account_id_fkey FOREIGN KEY (account_id) REFERENCES accounts (id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS transactions_account_time_idx ON transactions (account_id, transaction_time DESC, seq DESC)`,
}

// EnsureSchema creates missing tables and seeds the role vocabulary. It is
// idempotent and runs on every start.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	for _, r := range role.All() {
		if _, err := pool.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, string(r)); err != nil {
			return fmt.Errorf("seed role %s: %w", r, err)
		}
	}

	return nil
}
