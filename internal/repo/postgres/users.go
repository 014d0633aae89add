package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/identity"
	"github.com/jackc/pgx/v5"
)

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

// userCols selects a user row with its role names aggregated in one pass.
const userCols = `
	u.id, u.email, u.password_hash, u.full_name, u.created_at, u.updated_at,
	COALESCE(
		(SELECT array_agg(r.name ORDER BY r.name)
		 FROM user_roles ur JOIN roles r ON r.id = ur.role_id
		 WHERE ur.user_id = u.id),
		'{}'
	)`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var roles []string

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt, &roles)
	if err != nil {
		return user.User{}, err
	}

	u.Roles = role.SetFromStrings(roles).Slice()
	return u, nil
}

func (r *UsersRepo) InTx(ctx context.Context, fn func(ctx context.Context, tx identity.Tx) error) error {
	return r.db.inTx(ctx, "users.tx", func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &usersTx{db: r.db, tx: tx})
	})
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.find_by_email", `SELECT `+userCols+` FROM users u WHERE u.email = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) GetByID(ctx context.Context, userID string) (user.User, error) {
	if !validID(userID) {
		return user.User{}, user.ErrNotFound
	}
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userCols+` FROM users u WHERE u.id = $1`, userID)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg string) (u user.User, err error) {
	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		u, err = scanUser(r.db.pool.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, translate(op, err)
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, limit, offset int) (users []user.User, total int, err error) {
	const op = "users.list"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	var rows pgx.Rows
	err = r.db.observe(op, func() error {
		rows, err = r.db.pool.Query(ctx, `
			SELECT `+userCols+`, COUNT(*) OVER() AS total
			FROM users u
			ORDER BY u.created_at DESC, u.id ASC
			LIMIT $1 OFFSET $2`,
			limit, offset,
		)
		return err
	})
	if err != nil {
		return nil, 0, translate(op, err)
	}
	defer rows.Close()

	users = make([]user.User, 0, limit)
	for rows.Next() {
		var u user.User
		var roles []string

		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt, &roles, &total); err != nil {
			return nil, 0, translate(op, err)
		}
		u.Roles = role.SetFromStrings(roles).Slice()
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, translate(op, err)
	}

	// COUNT(*) OVER() yields nothing when the page is past the end.
	if len(users) == 0 && offset > 0 {
		err = r.db.observe(op+".count", func() error {
			return r.db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total)
		})
		if err != nil {
			return nil, 0, translate(op, err)
		}
	}

	return users, total, nil
}

// Delete relies on ON DELETE CASCADE to remove roles, accounts and
// transactions.
func (r *UsersRepo) Delete(ctx context.Context, userID string) error {
	const op = "users.delete"

	if !validID(userID) {
		return user.ErrNotFound
	}

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	var affected int64
	err := r.db.observe(op, func() error {
		tag, err := r.db.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return translate(op, err)
	}

	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) Overview(ctx context.Context) (ov user.Overview, err error) {
	const op = "users.overview"

	ctx, cancel := r.db.bound(ctx)
	defer cancel()

	err = r.db.observe(op, func() error {
		return r.db.pool.QueryRow(ctx, `
			SELECT
				(SELECT COUNT(*) FROM users),
				(SELECT COUNT(*) FROM accounts),
				(SELECT COUNT(*) FROM transactions)`,
		).Scan(&ov.TotalUsers, &ov.TotalAccounts, &ov.TotalTransactions)
	})
	if err != nil {
		return user.Overview{}, translate(op, err)
	}
	return ov, nil
}

type usersTx struct {
	db *DB
	tx pgx.Tx
}

func (t *usersTx) EmailExists(ctx context.Context, email string) (exists bool, err error) {
	err = t.db.observe("users.tx.email_exists", func() error {
		return t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, user.NormalizeEmail(email)).Scan(&exists)
	})
	return exists, err
}

func (t *usersTx) InsertUser(ctx context.Context, u user.User) error {
	return t.db.observe("users.tx.insert", func() error {
		_, err := t.tx.Exec(ctx, `
			INSERT INTO users (id, email, password_hash, full_name, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Email, u.PasswordHash, u.FullName, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
}

// UserExists locks the user row so a concurrent delete cannot interleave with
// a role replacement.
func (t *usersTx) UserExists(ctx context.Context, userID string) (bool, error) {
	if !validID(userID) {
		return false, nil
	}

	var id string
	err := t.db.observe("users.tx.lock", func() error {
		return t.tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (t *usersTx) DeleteRoles(ctx context.Context, userID string) error {
	return t.db.observe("users.tx.delete_roles", func() error {
		_, err := t.tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID)
		return err
	})
}

func (t *usersTx) AddRole(ctx context.Context, userID string, r role.Role) error {
	if !r.Valid() {
		return role.ErrUnknownRole
	}

	var affected int64
	err := t.db.observe("users.tx.add_role", func() error {
		tag, err := t.tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE name = $2
			ON CONFLICT DO NOTHING`,
			userID, string(r),
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	// the roles table is seeded at startup; a missing row is a schema fault
	if affected == 0 {
		var present bool
		if err := t.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 AND r.name = $2)`, userID, string(r)).Scan(&present); err != nil {
			return err
		}
		if !present {
			return apperr.Persistence("users.tx.add_role", fmt.Errorf("role %s is not seeded", r))
		}
	}
	return nil
}
