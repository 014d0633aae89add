package user

import (
	"strings"
	"time"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/google/uuid"
)

type User struct {
	ID           string      `json:"userId"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // never expose hash in JSON
	FullName     string      `json:"fullName"`
	Roles        []role.Role `json:"roles"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

var (
	ErrNotFound       = apperr.New(apperr.ErrNotFound, "user not found")
	ErrDuplicateEmail = apperr.New(apperr.ErrConflict, "email already registered")
)

type RegisterRequest struct {
	FullName string `json:"fullName" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" binding:"required,min=1,dive,role_name"`
}

// New builds a user row ready for insertion. Emails are compared
// case-insensitively, so they are stored lowered.
func New(email, passwordHash, fullName string) User {
	now := time.Now().UTC()
	return User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(fullName),
		Roles:        []role.Role{role.Default},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RoleSet returns the user's roles as a set for authorization.
func (u User) RoleSet() role.Set {
	return role.NewSet(u.Roles...)
}

// PrimaryRole mirrors what the login response advertises to the client.
func (u User) PrimaryRole() role.Role {
	s := u.RoleSet()
	for _, r := range []role.Role{role.Admin, role.Client, role.User} {
		if s.Has(r) {
			return r
		}
	}
	return ""
}

// Overview is the admin analytics snapshot.
type Overview struct {
	TotalUsers        int `json:"totalUsers"`
	TotalAccounts     int `json:"totalAccounts"`
	TotalTransactions int `json:"totalTransactions"`
}
