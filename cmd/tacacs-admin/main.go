package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tacacs-admin/internal/app"
	"tacacs-admin/internal/config"
	"tacacs-admin/internal/observability/logging"
	"tacacs-admin/internal/observability/metrics"
	httptransport "tacacs-admin/internal/transport/http"
)

const serviceName = "tacacs-admin"

func main() {
	cfg, err := config.Load()
	logger := logging.NewLogger(logging.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Level:       cfg.LogLevel,
	})
	slog.SetDefault(logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing database", "error", err)
		}
	}()

	metrics.MustRegister(serviceName)

	if cfg.AdminTokenSecret == "" {
		logger.Warn("ADMIN_TOKEN_SECRET is empty; /v1 is served without authentication")
	}
	router := httptransport.NewRouter(httptransport.Services{
		MFA:     a.MFA,
		Authz:   a.Authz,
		Export:  a.Export,
		Records: a.Records,
		Ready:   a.Store.Ping,
	}, httptransport.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSOrigins:        cfg.CORSOrigins,
		AdminTokenSecret:   cfg.AdminTokenSecret,
		AdminTokenIssuer:   cfg.AdminTokenIssuer,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tacacs-admin listening", "addr", srv.Addr, "export_dir", cfg.ExportDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}
}
