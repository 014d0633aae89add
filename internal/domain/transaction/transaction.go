package transaction

import (
	"strings"
	"time"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transactions are append-only: nothing in the system updates or deletes a
// single row (only the user cascade removes them).
type Transaction struct {
	ID          string          `json:"transactionId"`
	AccountID   string          `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    *string         `json:"category,omitempty"`
	OccurredAt  time.Time       `json:"transactionDate"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Recent is a dashboard row annotated with the owning account's name.
type Recent struct {
	Transaction
	AccountName string `json:"accountName"`
}

var (
	ErrInvalidAmount       = apperr.New(apperr.ErrValidation, "amount must be a non-zero number")
	ErrDescriptionRequired = apperr.New(apperr.ErrValidation, "description is required")
	ErrAmountOutOfRange    = apperr.New(apperr.ErrValidation, "amount exceeds the supported range")
	ErrBalanceOutOfRange   = apperr.New(apperr.ErrValidation, "resulting balance exceeds the supported range")
)

const OpeningBalanceDescription = "Opening balance"

type AppendRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required,max=500"`
	Category    *string         `json:"category" binding:"omitempty,max=100"`
}

// Amounts and balances are stored as NUMERIC(15,2).
const Scale = 2

// MaxAmount is the largest magnitude NUMERIC(15,2) holds.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// InRange reports whether v fits the amount and balance columns.
func InRange(v decimal.Decimal) bool { return v.Abs().LessThanOrEqual(MaxAmount) }

// New validates the inputs and builds the row the ledger will insert.
func New(accountID string, amount decimal.Decimal, description string, category *string, at time.Time) (Transaction, error) {
	amount = amount.Round(Scale)
	if amount.IsZero() {
		return Transaction{}, ErrInvalidAmount
	}
	if !InRange(amount) {
		return Transaction{}, ErrAmountOutOfRange
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return Transaction{}, ErrDescriptionRequired
	}

	if category != nil {
		c := strings.TrimSpace(*category)
		if c == "" {
			category = nil
		} else {
			category = &c
		}
	}

	at = at.UTC()
	return Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
		Category:    category,
		OccurredAt:  at,
		CreatedAt:   at,
	}, nil
}

// IsCredit reports income (positive amounts).
func (t Transaction) IsCredit() bool { return t.Amount.IsPositive() }

// Dashboard is the read-side aggregate for one user. The window is relative to
// the time of the read, so two calls at different times can disagree.
type Dashboard struct {
	NetWorth           decimal.Decimal `json:"netWorth"`
	TotalAccounts      int             `json:"totalAccounts"`
	TotalIncome        decimal.Decimal `json:"totalIncome"`
	TotalSpending      decimal.Decimal `json:"totalSpending"`
	RecentTransactions []Recent        `json:"recentTransactions"`
	WindowStart        time.Time       `json:"windowStart"`
	WindowEnd          time.Time       `json:"windowEnd"`
}
