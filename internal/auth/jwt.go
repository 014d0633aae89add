package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the bundle the guard trusts for the lifetime of the token.
// Role changes take effect on the next login.
type Claims struct {
	UserID   string   `json:"userId"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// RoleSet drops any name outside the role vocabulary.
func (c *Claims) RoleSet() role.Set {
	return role.SetFromStrings(c.Roles)
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Issue(u user.User) (string, error) {
	now := m.now().UTC()

	claims := Claims{
		UserID:   u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Roles:    u.RoleSet().Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			Subject:   u.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
