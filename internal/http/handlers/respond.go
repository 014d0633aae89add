package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/ledgerhub/internal/apperr"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/transaction"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/geocoder89/ledgerhub/internal/security"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := middlewares.RequestIDFromContext(ctx); id != "" {
		return id
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

type knownError struct {
	err     error
	status  int
	code    string
	message string
}

// Checked in order; the first match wins.
var knownErrors = []knownError{
	{account.ErrNotFound, http.StatusNotFound, "not_found", "Account not found"},
	{user.ErrNotFound, http.StatusNotFound, "not_found", "User not found"},
	{user.ErrDuplicateEmail, http.StatusConflict, "email_taken", "User already exists with this email"},
	{security.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password"},
	{transaction.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount", "Amount must be a non-zero number"},
	{transaction.ErrAmountOutOfRange, http.StatusBadRequest, "amount_out_of_range", "Amount must not exceed 9999999999999.99 in magnitude"},
	{transaction.ErrBalanceOutOfRange, http.StatusBadRequest, "balance_out_of_range", "The resulting balance would exceed 9999999999999.99 in magnitude"},
	{transaction.ErrDescriptionRequired, http.StatusBadRequest, "invalid_request", "Description is required"},
	{account.ErrInvalidAccountType, http.StatusBadRequest, "invalid_account_type", "Account type must be one of Savings, Checking, Credit, Investment"},
	{account.ErrInvalidCurrency, http.StatusBadRequest, "invalid_currency", "Currency must be a three-letter ISO code"},
	{account.ErrNameRequired, http.StatusBadRequest, "invalid_request", "Account name is required"},
	{role.ErrUnknownRole, http.StatusBadRequest, "unknown_role", "Unknown role"},
	{page.ErrInvalidPage, http.StatusBadRequest, "invalid_page", "page must be >= 0 and size between 1 and 100"},
}

// RespondDomainError maps any error from the services onto the envelope.
// Storage faults are logged here and never leak their text to the client.
func RespondDomainError(ctx *gin.Context, err error) {
	for _, k := range knownErrors {
		if errors.Is(err, k.err) {
			RespondError(ctx, k.status, k.code, k.message, nil)
			return
		}
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		RespondBadRequest(ctx, err.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		RespondNotFound(ctx, "Resource not found")
	case errors.Is(err, apperr.ErrConflict):
		RespondConflict(ctx, "conflict", "Resource already exists")
	case errors.Is(err, apperr.ErrForbidden):
		RespondForbidden(ctx, "Access denied")
	case apperr.IsTimeout(err):
		slog.Default().ErrorContext(ctx.Request.Context(), "storage timeout", "err", err, "request_id", requestIDFrom(ctx))
		RespondError(ctx, http.StatusServiceUnavailable, "store_timeout", "The data store did not respond in time", nil)
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), "request failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Internal server error")
	}
}
