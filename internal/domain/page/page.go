package page

import (
	"math"

	"github.com/geocoder89/ledgerhub/internal/apperr"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

var ErrInvalidPage = apperr.New(apperr.ErrValidation, "page must be >= 0 and size between 1 and 100")

// Request is zero-based.
type Request struct {
	Page int
	Size int
}

func (r Request) Validate() error {
	if r.Page < 0 || r.Size < 1 || r.Size > MaxSize {
		return ErrInvalidPage
	}
	// Offset must stay representable.
	if r.Page > math.MaxInt/r.Size {
		return ErrInvalidPage
	}
	return nil
}

func (r Request) Offset() int { return r.Page * r.Size }

func (r Request) Limit() int { return r.Size }

type Result[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

func NewResult[T any](items []T, req Request, total int) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.Size,
		TotalCount: total,
		TotalPages: TotalPages(total, req.Size),
	}
}

// TotalPages is ceil(total/size).
func TotalPages(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
