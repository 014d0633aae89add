package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/ledgerhub/internal/config"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
)

// Identity is the slice of identity.Service the seed needs.
type Identity interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Register(ctx context.Context, email, password, fullName string) (user.User, error)
	SetRoles(ctx context.Context, userID string, names []string) ([]role.Role, error)
}

// EnsureAdminUser creates the configured admin account on first start. An
// existing user with that email is promoted rather than recreated.
func EnsureAdminUser(ctx context.Context, ids Identity, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	u, err := ids.FindByEmail(ctx, cfg.AdminEmail)
	switch {
	case err == nil:
		if u.RoleSet().Has(role.Admin) {
			return nil
		}
	case errors.Is(err, user.ErrNotFound):
		u, err = ids.Register(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return err
		}
	default:
		return err
	}

	names := append(u.RoleSet().Strings(), string(role.Admin))
	if _, err := ids.SetRoles(ctx, u.ID, names); err != nil {
		return err
	}

	log.InfoContext(ctx, "admin user ensured", "user_id", u.ID, "email", u.Email)
	return nil
}
