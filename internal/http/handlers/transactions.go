package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Ledger interface {
	AppendTransaction(ctx context.Context, accountID string, amount decimal.Decimal, description string, category *string) (ledger.Appended, error)
	ListTransactions(ctx context.Context, accountID string, req page.Request) (page.Result[transaction.Transaction], error)
	ComputeDashboard(ctx context.Context, userID string) (transaction.Dashboard, error)
}

type TransactionsHandler struct {
	accounts accountGetter
	ledger   Ledger
}

func NewTransactionsHandler(accounts accountGetter, l Ledger) *TransactionsHandler {
	return &TransactionsHandler{accounts: accounts, ledger: l}
}

func (h *TransactionsHandler) List(ctx *gin.Context) {
	req, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	a, ok := loadOwnedAccount(ctx, h.accounts, ctx.Param("accountId"))
	if !ok {
		return
	}

	res, err := h.ledger.ListTransactions(ctx.Request.Context(), a.ID, req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *TransactionsHandler) Create(ctx *gin.Context) {
	var req transaction.AppendRequest

	if !BindJSON(ctx, &req) {
		return
	}

	a, ok := loadOwnedAccount(ctx, h.accounts, ctx.Param("accountId"))
	if !ok {
		return
	}

	res, err := h.ledger.AppendTransaction(ctx.Request.Context(), a.ID, req.Amount, req.Description, req.Category)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":       "Transaction added successfully",
		"transactionId": res.Transaction.ID,
		"transaction":   res.Transaction,
		"balance":       res.Balance,
	})
}
