// Package identity owns users and their role sets.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/security"
)

// Tx is valid only inside Store.InTx.
type Tx interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	InsertUser(ctx context.Context, u user.User) error
	UserExists(ctx context.Context, userID string) (bool, error)
	DeleteRoles(ctx context.Context, userID string) error
	AddRole(ctx context.Context, userID string, r role.Role) error
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	FindByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, userID string) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, int, error)
	Delete(ctx context.Context, userID string) error
	Overview(ctx context.Context) (user.Overview, error)
}

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
}

type Service struct {
	store  Store
	hasher Hasher
	log    *slog.Logger
}

func NewService(store Store, hasher Hasher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, hasher: hasher, log: log}
}

// Register creates the user and attaches ROLE_USER in the same unit of work.
// If the role cannot be attached the user is not created either.
func (s *Service) Register(ctx context.Context, email, password, fullName string) (user.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, err
	}

	u := user.New(email, hash, fullName)

	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		exists, err := tx.EmailExists(ctx, u.Email)
		if err != nil {
			return err
		}
		if exists {
			return user.ErrDuplicateEmail
		}

		if err := tx.InsertUser(ctx, u); err != nil {
			return err
		}

		return tx.AddRole(ctx, u.ID, role.Default)
	})
	if err != nil {
		return user.User{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate returns the user for a valid email/password pair. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.store.FindByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, security.ErrInvalidCredentials
		}
		return user.User{}, err
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return user.User{}, security.ErrInvalidCredentials
	}

	return u, nil
}

func (s *Service) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return s.store.FindByEmail(ctx, user.NormalizeEmail(email))
}

func (s *Service) Get(ctx context.Context, userID string) (user.User, error) {
	return s.store.GetByID(ctx, userID)
}

// SetRoles replaces the user's whole role set. Names are checked before any
// write; the delete and inserts share one unit of work.
func (s *Service) SetRoles(ctx context.Context, userID string, names []string) ([]role.Role, error) {
	roles, err := role.ParseAll(names)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		exists, err := tx.UserExists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return user.ErrNotFound
		}

		if err := tx.DeleteRoles(ctx, userID); err != nil {
			return err
		}

		for _, r := range roles {
			if err := tx.AddRole(ctx, userID, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user roles replaced", "user_id", userID, "roles", role.NewSet(roles...).Strings())
	return roles, nil
}

func (s *Service) List(ctx context.Context, req page.Request) (page.Result[user.User], error) {
	if err := req.Validate(); err != nil {
		return page.Result[user.User]{}, err
	}

	items, total, err := s.store.List(ctx, req.Limit(), req.Offset())
	if err != nil {
		return page.Result[user.User]{}, err
	}
	return page.NewResult(items, req, total), nil
}

// Delete removes the user with every account and transaction they own.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.log.WarnContext(ctx, "user deleted with all accounts and transactions", "user_id", userID)
	return nil
}

func (s *Service) Overview(ctx context.Context) (user.Overview, error) {
	return s.store.Overview(ctx)
}
