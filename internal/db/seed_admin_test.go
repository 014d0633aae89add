package db

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/ledgerhub/internal/config"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/identity"
	"github.com/geocoder89/ledgerhub/internal/repo/memory"
	"github.com/geocoder89/ledgerhub/internal/security"
)

func TestEnsureAdminUser(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ids := identity.NewService(memory.NewStore().Users(), security.Hasher{}, log)

	cfg := config.Config{AdminEmail: "Admin@Example.com", AdminPassword: "secret1", AdminName: "Admin"}

	if err := EnsureAdminUser(ctx, ids, config.Config{}, log); err != nil {
		t.Fatalf("expected no-op without credentials, got %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := EnsureAdminUser(ctx, ids, cfg, log); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	u, err := ids.Authenticate(ctx, "admin@example.com", "secret1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	set := u.RoleSet()
	if !set.Has(role.Admin) || !set.Has(role.User) {
		t.Fatalf("expected ADMIN and USER roles, got %v", u.Roles)
	}
}
