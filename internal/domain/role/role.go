package role

import (
	"fmt"
	"sort"
	"strings"

	"github.com/geocoder89/ledgerhub/internal/apperr"
)

type Role string

const (
	User   Role = "ROLE_USER"
	Client Role = "ROLE_CLIENT"
	Admin  Role = "ROLE_ADMIN"
)

// Default is attached to every newly registered user.
const Default = User

var ErrUnknownRole = apperr.New(apperr.ErrValidation, "unknown role")

// All lists the vocabulary in a stable order (also the seed order of the roles table).
func All() []Role {
	return []Role{User, Client, Admin}
}

func (r Role) Valid() bool {
	switch r {
	case User, Client, Admin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

func Parse(name string) (Role, error) {
	r := Role(strings.TrimSpace(name))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return r, nil
}

// ParseAll rejects the whole list if any name is outside the vocabulary.
// Duplicates collapse.
func ParseAll(names []string) ([]Role, error) {
	set := make(Set, len(names))
	for _, n := range names {
		r, err := Parse(n)
		if err != nil {
			return nil, err
		}
		set[r] = struct{}{}
	}
	return set.Slice(), nil
}

type Set map[Role]struct{}

func NewSet(roles ...Role) Set {
	s := make(Set, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// SetFromStrings is used on trusted claim bundles: names outside the
// vocabulary are dropped rather than granted.
func SetFromStrings(names []string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		if r := Role(n); r.Valid() {
			s[r] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s Set) Intersects(other Set) bool {
	for r := range s {
		if other.Has(r) {
			return true
		}
	}
	return false
}

func (s Set) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
