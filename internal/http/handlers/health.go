package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is the storage liveness probe. The postgres DB also reports its
// clock; the memory store does not.
type Pinger interface {
	Ping(ctx context.Context) error
}

type clockReporter interface {
	Now(ctx context.Context) (time.Time, error)
}

type HealthHandler struct {
	store Pinger
	extra map[string]Pinger
}

// NewHealthHandler takes the primary store plus optional named dependencies
// (redis) that readiness also checks.
func NewHealthHandler(store Pinger, extra map[string]Pinger) *HealthHandler {
	return &HealthHandler{store: store, extra: extra}
}

// Health mirrors the database round trip: it reports the store's current
// time when the store can provide one.
func (h *HealthHandler) Health(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(cctx); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "disconnected"})
		return
	}

	resp := gin.H{"status": "healthy", "database": "connected"}
	if c, ok := h.store.(clockReporter); ok {
		if now, err := c.Now(cctx); err == nil {
			resp["timestamp"] = now.UTC()
		}
	}
	ctx.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if err := h.store.Ping(cctx); err != nil {
		checks["database"] = err.Error()
		ready = false
	} else {
		checks["database"] = "ok"
	}

	for name, p := range h.extra {
		if err := p.Ping(cctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}
