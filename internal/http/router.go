package http

import (
	"log/slog"

	"github.com/geocoder89/ledgerhub/internal/cache"
	"github.com/geocoder89/ledgerhub/internal/config"
	"github.com/geocoder89/ledgerhub/internal/domain/role"
	"github.com/geocoder89/ledgerhub/internal/domain/user"
	"github.com/geocoder89/ledgerhub/internal/http/handlers"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/geocoder89/ledgerhub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Identity is everything the auth and admin routes need from the identity
// service.
type Identity interface {
	handlers.Credentials
	handlers.UserAdmin
}

type Deps struct {
	Log    *slog.Logger
	Config config.Config
	Prom   *observability.Prom
	Stats  *observability.AppendStats

	// Store answers the health probes; Extra lists further dependencies
	// (redis) that readiness checks.
	Store handlers.Pinger
	Extra map[string]handlers.Pinger

	Users    Identity
	Accounts handlers.AccountService
	Ledger   handlers.Ledger
	Tokens   interface {
		handlers.TokenIssuer
		middlewares.TokenVerifier
	}

	// RateCounter is the shared rate limit counter. Nil counts per process.
	RateCounter middlewares.Counter
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Prom == nil {
		d.Prom = observability.NewProm()
	}
	if d.Stats == nil {
		d.Stats = observability.NewAppendStats()
	}

	handlers.RegisterValidators()

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders(d.Config.Env != "dev"))
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	if d.Config.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	}
	r.Use(middlewares.RequireJSON())

	// RATE_LIMIT_MAX=0 turns limiting off. Anonymous routes share a budget per
	// client IP; authenticated routes get one per user.
	pass := func(c *gin.Context) { c.Next() }
	limitByIP, limitByUser := gin.HandlerFunc(pass), gin.HandlerFunc(pass)
	if d.Config.RateLimitMax > 0 {
		limiter := middlewares.NewRateLimiter(d.RateCounter, d.Config.RateLimitMax, d.Config.RateLimitWindow, d.Log, d.Prom.ObserveRateLimited)
		limitByIP = limiter.RateLimiterMiddleware(middlewares.KeyByIP)
		limitByUser = limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP)
	}

	authMw := middlewares.NewAuthMiddleware(d.Tokens, d.Prom)

	// health
	h := handlers.NewHealthHandler(d.Store, d.Extra)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", d.Prom.Handler())

	// auth
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	authGroup := r.Group("/auth", limitByIP)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// account owners
	accountsHandler := handlers.NewAccountsHandler(d.Accounts)
	txHandler := handlers.NewTransactionsHandler(d.Accounts, d.Ledger)
	dashboardHandler := handlers.NewDashboardHandler(d.Ledger)

	api := r.Group("/api", authMw.RequireAuth(), limitByUser)

	owners := api.Group("", authMw.RequireAnyRole(role.User, role.Client))
	owners.GET("/dashboard", dashboardHandler.Get)
	owners.GET("/accounts", accountsHandler.List)
	owners.POST("/accounts", accountsHandler.Create)
	owners.GET("/accounts/:accountId", accountsHandler.Get)
	owners.GET("/accounts/:accountId/transactions", txHandler.List)
	owners.POST("/accounts/:accountId/transactions", txHandler.Create)

	// admin
	var overview *cache.Cache[user.Overview]
	if d.Config.AnalyticsCacheTTL > 0 {
		overview = cache.New[user.Overview](d.Config.AnalyticsCacheTTL)
	}
	adminHandler := handlers.NewAdminHandler(d.Users, d.Accounts, d.Stats, overview)

	admin := api.Group("/admin", authMw.RequireAdmin())
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:userId", adminHandler.GetUser)
	admin.PUT("/users/:userId/roles", adminHandler.SetRoles)
	admin.DELETE("/users/:userId", adminHandler.DeleteUser)
	admin.GET("/analytics/overview", adminHandler.Overview)

	return r
}
