package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/ledgerhub/internal/accounts"
	"github.com/geocoder89/ledgerhub/internal/auth"
	"github.com/geocoder89/ledgerhub/internal/config"
	"github.com/geocoder89/ledgerhub/internal/db"
	httpx "github.com/geocoder89/ledgerhub/internal/http"
	"github.com/geocoder89/ledgerhub/internal/http/handlers"
	"github.com/geocoder89/ledgerhub/internal/http/middlewares"
	"github.com/geocoder89/ledgerhub/internal/identity"
	"github.com/geocoder89/ledgerhub/internal/ledger"
	"github.com/geocoder89/ledgerhub/internal/observability"
	"github.com/geocoder89/ledgerhub/internal/redisclient"
	"github.com/geocoder89/ledgerhub/internal/repo/memory"
	"github.com/geocoder89/ledgerhub/internal/repo/postgres"
	"github.com/geocoder89/ledgerhub/internal/security"
	"github.com/joho/godotenv"
)

type storage struct {
	health   handlers.Pinger
	users    identity.Store
	accounts accounts.Store
	ledger   ledger.Store
	close    func()
}

func openStorage(ctx context.Context, cfg config.Config, prom *observability.Prom) (storage, error) {
	if cfg.StorageDriver == config.DriverMemory {
		s := memory.NewStore()
		return storage{
			health:   s,
			users:    s.Users(),
			accounts: s.Accounts(),
			ledger:   s.Ledger(),
			close:    func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		return storage{}, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return storage{}, fmt.Errorf("ensure schema: %w", err)
	}

	pg := postgres.NewDB(pool, prom, cfg.StoreTimeout)
	return storage{
		health:   pg,
		users:    postgres.NewUsersRepo(pg),
		accounts: postgres.NewAccountsRepo(pg),
		ledger:   postgres.NewLedgerRepo(pg),
		close:    pool.Close,
	}, nil
}

func main() {
	// a missing .env is fine; the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	startCtx, cancelStart := config.WithTimeout(15 * time.Second)
	defer cancelStart()

	shutdownTracer, err := observability.InitTracer(startCtx, observability.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()
	stats := observability.NewAppendStats()

	store, err := openStorage(startCtx, cfg, prom)
	if err != nil {
		log.Error("storage init failed", "driver", cfg.StorageDriver, "err", err)
		os.Exit(1)
	}
	defer store.close()

	engine := ledger.New(store.ledger, log, ledger.WithObserver(observability.Observers{prom, stats}))
	identities := identity.NewService(store.users, security.Hasher{}, log)
	accountSvc := accounts.NewService(store.accounts, engine)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	if err := db.EnsureAdminUser(startCtx, identities, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	extra := map[string]handlers.Pinger{}
	var counter middlewares.Counter
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		if err := rdb.Ping(startCtx); err != nil {
			// the limiter falls back to local counting until redis answers
			log.Warn("redis unavailable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		extra["redis"] = rdb
		counter = rdb
	}

	router := httpx.NewRouter(httpx.Deps{
		Log:         log,
		Config:      cfg,
		Prom:        prom,
		Stats:       stats,
		Store:       store.health,
		Extra:       extra,
		Users:       identities,
		Accounts:    accountSvc,
		Ledger:      engine,
		Tokens:      tokens,
		RateCounter: counter,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "storage", cfg.StorageDriver)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
