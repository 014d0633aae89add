package account

import (
	"regexp"
	"strings"
	"time"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	Savings    Type = "Savings"
	Checking   Type = "Checking"
	Credit     Type = "Credit"
	Investment Type = "Investment"
)

const DefaultCurrency = "USD"

var (
	ErrNotFound           = apperr.New(apperr.ErrNotFound, "account not found")
	ErrInvalidAccountType = apperr.New(apperr.ErrValidation, "invalid account type")
	ErrInvalidCurrency    = apperr.New(apperr.ErrValidation, "invalid currency code")
	ErrNameRequired       = apperr.New(apperr.ErrValidation, "account name is required")
)

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

func Types() []Type {
	return []Type{Savings, Checking, Credit, Investment}
}

func ParseType(s string) (Type, error) {
	for _, t := range Types() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidAccountType
}

// ValidCurrency accepts ISO-4217 style codes only.
func ValidCurrency(code string) bool {
	return currencyRe.MatchString(code)
}

type Account struct {
	ID        string          `json:"accountId"`
	UserID    string          `json:"userId"`
	Name      string          `json:"accountName"`
	Type      Type            `json:"accountType"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type CreateAccountRequest struct {
	Name     string           `json:"accountName" binding:"required,max=255"`
	Type     string           `json:"accountType" binding:"required,account_type"`
	Balance  *decimal.Decimal `json:"balance"`
	Currency string           `json:"currency" binding:"omitempty,currency"`
}

// New validates the request fields and returns an account with a zero balance.
// An opening balance is never written here: it goes through the ledger.
func New(userID, name, typ, currency string) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, ErrNameRequired
	}

	t, err := ParseType(typ)
	if err != nil {
		return Account{}, err
	}

	if currency == "" {
		currency = DefaultCurrency
	}
	if !ValidCurrency(currency) {
		return Account{}, ErrInvalidCurrency
	}

	now := time.Now().UTC()
	return Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      t,
		Balance:   decimal.Zero,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
