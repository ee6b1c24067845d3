// Package app wires the Minder server runtime: config, logging, metrics,
// storage, HTTP routes and the notification gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"minder/cmd/identity"
	authapi "minder/cmd/internal/auth/api"
	"minder/cmd/internal/auth/session"
	"minder/cmd/internal/notify"
	"minder/cmd/internal/resource"
	"minder/cmd/internal/series"
)

// App is the Minder server runtime. Without a configured database it serves
// only health and series endpoints; auth and resource routes require
// Postgres.
type App struct {
	cfg Config
	log Logger

	pool      *pgxpool.Pool
	dbEnabled bool

	registry    *prometheus.Registry
	httpMetrics *HTTPMetrics

	auth      *authapi.Handler
	resources *resource.Handler
	notifier  *notify.Service
	gateway   *notify.Gateway
	series    *series.Handler
}

// New constructs a fully wired App from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := notify.NewHub()
	notifier := notify.NewService(log, hub, notify.NewMemoryPreferences())
	gateway := notify.NewGateway(log, hub, notify.LoadGatewayConfigFromEnv())

	a := &App{
		cfg:         cfg,
		log:         log,
		registry:    registry,
		httpMetrics: NewHTTPMetrics(registry),
		notifier:    notifier,
		gateway:     gateway,
		series:      series.NewHandler(log),
	}

	if cfg.DatabaseURL == "" {
		log.Info("db.disabled", "mode", "health_and_series_only")
		return a, nil
	}

	pool, err := NewDBPool(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	log.Info("db.enabled", "schema", cfg.DBSchema)

	if err := a.wireStores(pool); err != nil {
		pool.Close()
		return nil, err
	}

	a.pool = pool
	a.dbEnabled = true
	return a, nil
}

// wireStores builds the Postgres-backed stores and handlers on top of pool.
func (a *App) wireStores(pool *pgxpool.Pool) error {
	idStore, err := identity.NewPostgresStore(pool, identity.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	sessStore, err := session.NewPostgresStore(pool, session.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return err
	}
	sessSvc := session.NewService(sessCfg, sessStore)

	authHandler, err := authapi.NewHandler(a.log, authapi.LoadConfigFromEnv(), idStore, sessSvc,
		authapi.WithMetrics(authapi.NewMetrics(a.registry)))
	if err != nil {
		return err
	}

	resStore, err := resource.NewPostgresStore(pool, resource.WithSchema(a.cfg.DBSchema))
	if err != nil {
		return err
	}
	resHandler, err := resource.NewHandler(a.log, resStore, resStore, idStore,
		resource.WithShareNotifier(a.notifier))
	if err != nil {
		return err
	}

	a.auth = authHandler
	a.resources = resHandler
	return nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal
// server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(mux, a.log, a.httpMetrics),
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.ReadTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}
