package authz

import (
	"testing"

	"github.com/geocoder89/ledgerhub/internal/domain/role"
)

func TestAuthorize(t *testing.T) {
	const ownerX, callerY = "owner-x", "caller-y"

	tests := []struct {
		name     string
		caller   role.Set
		required role.Set
		owner    string
		callerID string
		want     Decision
	}{
		{
			name:     "user_on_admin_route",
			caller:   role.NewSet(role.User),
			required: role.NewSet(role.Admin),
			owner:    ownerX,
			callerID: ownerX,
			want:     DenyMissingRole,
		},
		{
			name:     "admin_bypasses_role_and_ownership",
			caller:   role.NewSet(role.Admin),
			required: role.NewSet(role.User, role.Client),
			owner:    ownerX,
			callerID: callerY,
			want:     Allow,
		},
		{
			name:     "owner_allowed",
			caller:   role.NewSet(role.User),
			required: role.NewSet(role.User),
			owner:    ownerX,
			callerID: ownerX,
			want:     Allow,
		},
		{
			name:     "non_owner_denied",
			caller:   role.NewSet(role.User),
			required: role.NewSet(role.User),
			owner:    ownerX,
			callerID: callerY,
			want:     DenyNotOwner,
		},
		{
			name:     "client_role_satisfies_user_or_client",
			caller:   role.NewSet(role.Client),
			required: role.NewSet(role.User, role.Client),
			owner:    ownerX,
			callerID: ownerX,
			want:     Allow,
		},
		{
			name:     "no_roles_locked_out",
			caller:   role.NewSet(),
			required: role.NewSet(role.User),
			owner:    ownerX,
			callerID: ownerX,
			want:     DenyMissingRole,
		},
		{
			name:     "empty_caller_id_never_owns",
			caller:   role.NewSet(role.User),
			required: role.NewSet(role.User),
			owner:    "",
			callerID: "",
			want:     DenyNotOwner,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Authorize(tt.caller, tt.required, tt.owner, tt.callerID)
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
			if got.Allowed() != (tt.want == Allow) {
				t.Fatalf("Allowed() inconsistent with %s", got)
			}
		})
	}
}

func TestAuthorizeAdmin(t *testing.T) {
	if !AuthorizeAdmin(role.NewSet(role.Admin, role.User)).Allowed() {
		t.Fatalf("admin should be allowed")
	}
	if AuthorizeAdmin(role.NewSet(role.User, role.Client)).Allowed() {
		t.Fatalf("non-admin should be denied")
	}
}
