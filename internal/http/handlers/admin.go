package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/ledgerhub/internal/cache"
	"github.com/geocoder89/ledgerhub/internal/domain/account"
	"github.com/geocoder89/ledgerhub/internal/domain/page"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/geocoder89/ledgerhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type UserAdmin interface {
	List(ctx context.Context, req page.Request) (page.Result[user.User], error)
	Get(ctx context.Context, userID string) (user.User, error)
	SetRoles(ctx context.Context, userID string, names []string) ([]role.Role, error)
	Delete(ctx context.Context, userID string) error
	Overview(ctx context.Context) (user.Overview, error)
}

type accountLister interface {
	List(ctx context.Context, userID string) ([]account.Account, error)
}

type appendStats interface {
	Snapshot() observability.AppendStatsSnapshot
}

// AnalyticsOverview is what the admin dashboard polls.
type AnalyticsOverview struct {
	user.Overview
	Appends observability.AppendStatsSnapshot `json:"appends"`
}

const overviewKey = "admin:overview"

type AdminHandler struct {
	users    UserAdmin
	accounts accountLister
	stats    appendStats
	overview *cache.Cache[user.Overview]
}

func NewAdminHandler(users UserAdmin, accounts accountLister, stats appendStats, overview *cache.Cache[user.Overview]) *AdminHandler {
	return &AdminHandler{users: users, accounts: accounts, stats: stats, overview: overview}
}

func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	req, ok := pageFromQuery(ctx)
	if !ok {
		return
	}

	res, err := h.users.List(ctx.Request.Context(), req)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AdminHandler) GetUser(ctx *gin.Context) {
	u, err := h.users.Get(ctx.Request.Context(), ctx.Param("userId"))
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	accounts, err := h.accounts.List(ctx.Request.Context(), u.ID)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user":     u,
		"accounts": accounts,
	})
}

func (h *AdminHandler) SetRoles(ctx *gin.Context) {
	var req user.SetRolesRequest

	if !BindJSON(ctx, &req) {
		return
	}

	roles, err := h.users.SetRoles(ctx.Request.Context(), ctx.Param("userId"), req.Roles)
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User roles updated successfully",
		"userId":  ctx.Param("userId"),
		"roles":   roles,
	})
}

func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	userID := ctx.Param("userId")

	if callerID, _ := middlewares.UserIDFromContext(ctx); callerID == userID {
		RespondError(ctx, http.StatusBadRequest, "self_delete", "Admins cannot delete their own account", nil)
		return
	}

	if err := h.users.Delete(ctx.Request.Context(), userID); err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if h.overview != nil {
		h.overview.Delete(overviewKey)
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AdminHandler) Overview(ctx *gin.Context) {
	load := h.users.Overview
	var (
		ov     user.Overview
		cached bool
		err    error
	)

	if h.overview != nil {
		ov, cached, err = h.overview.GetOrLoad(ctx.Request.Context(), overviewKey, load)
	} else {
		ov, err = load(ctx.Request.Context())
	}
	if err != nil {
		RespondDomainError(ctx, err)
		return
	}

	if cached {
		ctx.Header("X-Cache", "HIT")
	} else {
		ctx.Header("X-Cache", "MISS")
	}

	resp := AnalyticsOverview{Overview: ov}
	if h.stats != nil {
		resp.Appends = h.stats.Snapshot()
	}
	ctx.JSON(http.StatusOK, resp)
}
