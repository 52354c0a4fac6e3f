package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"compass/internal/audit"
	"compass/internal/currency"
	"compass/internal/ingest"
	"compass/internal/join"
	"compass/internal/platform/config"
	"compass/internal/platform/httpserver"
	"compass/internal/platform/logger"
	"compass/internal/platform/metrics"
	platformredis "compass/internal/platform/redis"
	"compass/internal/policy"
	"compass/internal/proposal"
	"compass/internal/session"
	httptransport "compass/internal/transport/http"
)

// main wires config, stores, and services into the router and keeps the
// server lifecycle small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("redis connected")
	}

	stores, db, err := buildStores(cfg, redisClient)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		log.Info("postgres connected")
	}

	rateCache := currency.NewMemoryCache(cfg.Currency.CacheTTL)
	if redisClient != nil {
		rateCache = currency.NewRedisCache(redisClient, cfg.Currency.CacheTTL)
	}
	rates := currency.NewService(cfg.Currency, rateCache,
		currency.WithLogger(log), currency.WithMetrics(m))

	handler := httptransport.NewHandler(httptransport.Deps{
		Ingest: ingest.NewService(
			ingest.WithLogger(log),
			ingest.WithMetrics(m),
			ingest.WithMaxFileBytes(cfg.Ingest.MaxFileBytes),
		),
		Join:      join.NewService(join.WithLogger(log), join.WithMetrics(m)),
		Policy:    policy.NewService(policy.WithLogger(log), policy.WithMetrics(m)),
		Converter: currency.NewConverter(rates, log),
		Rates:     rates,
		Proposals: proposal.NewService(proposal.WithLogger(log)),
		Employees: stores.employees,
		Sessions:  stores.sessions,
		Files:     stores.files,
		Audit:     audit.NewPublisher(audit.NewMemoryStore()),
	}, httptransport.WithLogger(log), httptransport.WithMaxUploadBytes(cfg.Ingest.MaxFileBytes))

	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler))

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type stores struct {
	employees session.EmployeeStore
	sessions  session.SessionStore
	files     session.FileCache
}

// buildStores picks postgres-backed stores when a URL is configured and
// memory stores otherwise, plus a redis file cache when redis is up.
func buildStores(cfg config.Config, redisClient *platformredis.Client) (stores, *sql.DB, error) {
	s := stores{
		employees: session.NewMemoryEmployeeStore(),
		sessions:  session.NewMemorySessionStore(),
		files:     session.NewMemoryFileCache(cfg.Ingest.FileCacheTTL),
	}
	if redisClient != nil {
		s.files = session.NewRedisFileCache(redisClient, cfg.Ingest.FileCacheTTL)
	}
	if cfg.Postgres.URL == "" {
		return s, nil, nil
	}

	db, err := sql.Open("pgx", cfg.Postgres.URL)
	if err != nil {
		return stores{}, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	if err := session.EnsureSchema(context.Background(), db); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	s.employees = session.NewPostgresEmployeeStore(db)
	s.sessions = session.NewPostgresSessionStore(db)
	return s, db, nil
}
