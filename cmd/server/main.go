package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "gatekeeper/internal/account/handler"
	accountservice "gatekeeper/internal/account/service"
	accountstore "gatekeeper/internal/account/store"
	"gatekeeper/internal/admin"
	"gatekeeper/internal/audit"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/database"
	"gatekeeper/internal/platform/health"
	"gatekeeper/internal/platform/logger"
	"gatekeeper/internal/platform/metrics"
	"gatekeeper/internal/platform/middleware"
	"gatekeeper/internal/seeder"
	"gatekeeper/internal/token"
	"gatekeeper/migrations"
	"gatekeeper/pkg/secrets"
)

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)

	log.Info("initializing gatekeeper",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
		"persistent_storage", cfg.Database.URL != "",
	)

	pool, err := database.New(database.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close() //nolint:errcheck // best-effort close on exit

	if pool != nil {
		if err := pool.Migrate(context.Background(), migrations.FS); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	var (
		accounts accountstore.Directory
		events   audit.Store
	)
	if pool != nil {
		accounts = accountstore.NewPostgres(pool.DB())
		events = audit.NewPostgres(pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, running on in-memory stores")
		accounts = accountstore.NewInMemory()
		events = audit.NewInMemoryStore()
	}

	m := metrics.New()
	recorder := audit.NewRecorder(events,
		audit.WithLogger(log),
		audit.WithWriteFailureHook(m.IncrementAuditWriteFailures),
	)
	hasher := secrets.NewHasher(cfg.Secrets.BcryptCost)
	issuer := token.NewIssuer(cfg.Session.SigningKey, cfg.Session.TokenTTL)

	accountSvc := accountservice.New(accounts, hasher, issuer, recorder,
		accountservice.WithLogger(log),
		accountservice.WithMetrics(m),
	)
	adminSvc := admin.New(accounts, hasher, recorder, events,
		admin.WithLogger(log),
		admin.WithMetrics(m),
	)

	ctx := context.Background()
	seed := seeder.New(accounts, hasher, recorder, log)
	generated, err := seed.EnsureAdmin(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword)
	if err != nil {
		log.Error("bootstrap admin failed", "error", err)
		os.Exit(1)
	}
	if generated != "" {
		// Shown once at startup; rotated on first login via the
		// force-secret-reset flag.
		log.Warn("generated bootstrap admin password",
			"username", cfg.Bootstrap.AdminUsername,
			"password", generated,
		)
	}

	router := newRouter(cfg, log, m, issuer, accountSvc, adminSvc, pool)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting http server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// newRouter assembles the middleware chain and mounts all routes.
func newRouter(
	cfg config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	issuer *token.Issuer,
	accountSvc *accountservice.Service,
	adminSvc *admin.Service,
	pool *database.Pool,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))
	r.Use(middleware.ContentTypeJSON)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ReadTimeout)
			defer cancel()
			return pool.Health(checkCtx)
		})
	}
	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	accounts := accounthandler.New(accountSvc, log)
	adminHandler := admin.NewHandler(adminSvc, log)

	r.Route("/api", func(api chi.Router) {
		accounts.RegisterPublic(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireSession(issuer, log))
			accounts.RegisterProtected(protected)

			protected.Route("/admin", func(adminRoutes chi.Router) {
				adminRoutes.Use(middleware.RequirePrivileged(log))
				adminHandler.Register(adminRoutes)
			})
		})
	})

	return r
}
