package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mia/internal/audit"
	"mia/internal/conversation/handler"
	"mia/internal/conversation/service"
	"mia/internal/conversation/store"
	"mia/internal/platform/config"
	"mia/internal/platform/httpserver"
	"mia/internal/platform/logger"
	"mia/internal/platform/metrics"
	"mia/internal/platform/postgres"
	platformredis "mia/internal/platform/redis"
	"mia/internal/render"
	httptransport "mia/internal/transport/http"
	"mia/internal/validation"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()

	// Backends and templates come up in parallel; any failure aborts startup.
	var (
		db       *sql.DB
		cache    *platformredis.Client
		renderer *render.Renderer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		db, err = postgres.Open(gctx, cfg.DatabaseURL)
		return err
	})
	g.Go(func() error {
		var err error
		cache, err = platformredis.New(cfg.Redis)
		return err
	})
	g.Go(func() error {
		var err error
		renderer, err = render.Load(cfg.TemplatesDir, log)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m := metrics.New()

	durable := store.NewPostgres(db, cfg.CompanyName)
	var sessions service.SessionStore = durable
	if cache != nil {
		sessions = store.NewCached(durable, cache.Client, cfg.SessionCacheTTL, log, store.WithMetrics(m))
		defer cache.Close()
	} else {
		log.Warn("redis not configured, session cache disabled")
	}

	validator := validation.New(audit.NewPostgres(db), log)

	svc := service.New(sessions, validator, renderer,
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	router := httptransport.NewRouter(handler.New(svc, log), log)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting mia conversation service", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
