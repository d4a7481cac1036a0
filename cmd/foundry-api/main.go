package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foundry/internal/api"
	"foundry/internal/config"
	"foundry/internal/sim"
	"foundry/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	dsn := cfg.SQLitePath
	if cfg.DBDialect == "postgres" {
		dsn = cfg.PostgresURL
	}
	st, err := store.Open(ctx, cfg.DBDialect, dsn)
	if err != nil {
		logger.Error("store open failed", "dialect", cfg.DBDialect, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	scenarios, err := config.LoadScenarios(cfg.ScenarioPath)
	if err != nil {
		logger.Error("load scenarios failed", "path", cfg.ScenarioPath, "err", err)
		os.Exit(1)
	}
	if len(scenarios) > 0 {
		logger.Info("scenario presets loaded", "count", len(scenarios))
	}

	engine := sim.NewEngine(logger)
	server := api.New(cfg, logger, st, engine, scenarios)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("foundry api listening", "addr", cfg.Addr, "dialect", cfg.DBDialect)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
