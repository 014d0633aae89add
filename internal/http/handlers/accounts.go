package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/ledgerhub/internal/authz"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AccountService interface {
	Create(ctx context.Context, userID, name, typ string, initialBalance decimal.Decimal, currency string) (account.Account, error)
	List(ctx context.Context, userID string) ([]account.Account, error)
	Get(ctx context.Context, accountID string) (account.Account, error)
}

// accountRoles may touch accounts they own.
var accountRoles = role.NewSet(role.User, role.Client)

type AccountsHandler struct {
	accounts AccountService
}

func NewAccountsHandler(accounts AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accounts}
}

func (h *AccountsHandler) List(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	items, err := h.accounts.List(ctx.Request.Context(), userID)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *AccountsHandler) Create(ctx *gin.Context) {
	var req account.CreateAccountRequest

	if !BindJSON(ctx, &req) {
		return
	}

	opening := decimal.Zero
	if req.Balance != nil {
		opening = *req.Balance
	}

	userID, _ := middlewares.UserIDFromContext(ctx)

	a, err := h.accounts.Create(ctx.Request.Context(), userID, req.Name, req.Type, opening, req.Currency)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message":   "Account created successfully",
		"accountId": a.ID,
		"account":   a,
	})
}

func (h *AccountsHandler) Get(ctx *gin.Context) {
	a, ok := loadOwnedAccount(ctx, h.accounts, ctx.Param("accountId"))
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, a)
}

type accountGetter interface {
	Get(ctx context.Context, accountID string) (account.Account, error)
}

// loadOwnedAccount resolves the account and runs the authorization guard
// against its owner. A caller who does not own the account gets the same 404
// as for a missing one, so account ids cannot be probed.
func loadOwnedAccount(ctx *gin.Context, accounts accountGetter, accountID string) (account.Account, bool) {
	a, err := accounts.Get(ctx.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return account.Account{}, false
		}
		RespondDomainError(ctx, err)
		return account.Account{}, false
	}

	callerID, _ := middlewares.UserIDFromContext(ctx)

	switch authz.Authorize(middlewares.RolesFromContext(ctx), accountRoles, a.UserID, callerID) {
	case authz.Allow:
		return a, true
	case authz.DenyMissingRole:
		RespondForbidden(ctx, "Insufficient role")
	default:
		RespondNotFound(ctx, "Account not found")
	}
	return account.Account{}, false
}
