package handlers

import (
	"net/http"
	"time"

	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	ledger Ledger
}

func NewDashboardHandler(l Ledger) *DashboardHandler {
	return &DashboardHandler{ledger: l}
}

func (h *DashboardHandler) Get(ctx *gin.Context) {
	userID, _ := middlewares.UserIDFromContext(ctx)

	d, err := h.ledger.ComputeDashboard(ctx.Request.Context(), userID)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	// the window moves with every read; only the figures decide freshness
	tag := d
	tag.WindowStart, tag.WindowEnd = time.Time{}, time.Time{}

	RespondJSONWithETag(ctx, http.StatusOK, d, tag)
}
