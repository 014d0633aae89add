package role

import (
	"errors"
	"testing"

	"github.com/geocoder89/ledgerhub/internal/apperr"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Role
		wantErr bool
	}{
		{name: "user", in: "ROLE_USER", want: User},
		{name: "admin_with_spaces", in: "  ROLE_ADMIN ", want: Admin},
		{name: "lowercase_rejected", in: "role_admin", wantErr: true},
		{name: "unknown", in: "ROLE_ROOT", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRole) {
					t.Fatalf("expected ErrUnknownRole, got %v", err)
				}
				if !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("expected validation kind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseAll_RejectsWholeListOnUnknown(t *testing.T) {
	_, err := ParseAll([]string{"ROLE_USER", "ROLE_GOD"})
	if !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}

	roles, err := ParseAll([]string{"ROLE_CLIENT", "ROLE_USER", "ROLE_CLIENT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected duplicates to collapse, got %v", roles)
	}
}

func TestSetFromStrings_DropsUnknown(t *testing.T) {
	s := SetFromStrings([]string{"ROLE_USER", "ROLE_SUPERUSER"})
	if !s.Has(User) || len(s) != 1 {
		t.Fatalf("unexpected set: %v", s.Strings())
	}
}
