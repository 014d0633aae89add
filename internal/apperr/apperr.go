// Package apperr holds the error kinds shared by every layer. Domain packages
// declare their own sentinels wrapping one of these kinds, so handlers can map
// any failure to a response without knowing which package produced it.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrConflict    = errors.New("conflict")
	ErrPersistence = errors.New("persistence failure")
)

// New declares a domain sentinel of the given kind.
func New(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

// Persistence wraps a storage fault. The unit of work has already been rolled
// back by the time this reaches a caller, so retrying is safe.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// IsTimeout reports whether err came from the per-call storage deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
