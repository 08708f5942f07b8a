// Command kho-console serves the operator console API in front of the
// warehouse backend.
//
// @title          Warehouse Approvals Console API
// @version        1.0
// @description    Operator console for approving pending warehouse documents (imports, invoices, returns).
// @BasePath       /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-warehouse-approvals/internal/app"
	"github.com/tbourn/go-warehouse-approvals/internal/config"
	httpapi "github.com/tbourn/go-warehouse-approvals/internal/http"
	"github.com/tbourn/go-warehouse-approvals/internal/observability"
	"github.com/tbourn/go-warehouse-approvals/internal/sysutil"
)

var version = "0.1.0"

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, observability.Process{
		Version:    version,
		Role:       "console",
		BackendURL: cfg.Backend.BaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("setup tracing")
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build app")
	}
	if err := a.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start app")
	}
	a.OnLogout(func() { logger.Warn().Msg("operator must log in again") })

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	logger.Info().
		Str("addr", srv.Addr).
		Str("backend", cfg.Backend.BaseURL).
		Bool("authenticated", a.Authenticated()).
		Str("version", version).
		Msg("starting kho-console")

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	ossignal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	if err := a.Close(); err != nil {
		logger.Error().Err(err).Msg("close app")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown")
	}
	logger.Info().Msg("stopped")
}
