package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashflowgame/server/internal/api"
	"github.com/cashflowgame/server/internal/config"
	"github.com/cashflowgame/server/internal/factory"
	redisstorage "github.com/cashflowgame/server/internal/storage/redis"
	"github.com/cashflowgame/server/internal/sweeper"
	"github.com/cashflowgame/server/internal/ws"
)

const (
	disconnectedSweepSchedule = "@every 5m"
	staleActionsSweepSchedule = "@every 10m"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
	}

	if factoryCfg.StorageType == factory.StorageTypeRedis {
		if cfg.RedisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Drop records from joins that never completed before the last restart
	if removed, err := app.RegistryController.ReclaimNameless(context.Background()); err != nil {
		logger.Warn("startup reclaim failed", slog.String("error", err.Error()))
	} else if removed > 0 {
		logger.Info("reclaimed nameless players", slog.Int("removed", removed))
	}

	if cfg.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN not set, management API is unauthenticated")
	}

	wsHandler := ws.NewHandler(app.Hub, app.Coordinator, logger)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Coordinator: app.Coordinator,
		Clock:       app.Clock,
		AdminToken:  cfg.AdminToken,
		WSHandler:   wsHandler,
	})

	// Periodic reclamation of disconnected players and stale actions
	sweep := sweeper.New(logger)
	if err := sweep.AddJob(disconnectedSweepSchedule, sweeper.NewDisconnectedPlayersJob(app.Coordinator, app.Clock, logger)); err != nil {
		logger.Error("failed to register sweep job", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := sweep.AddJob(staleActionsSweepSchedule, sweeper.NewStaleActionsJob(app.Coordinator, app.Clock, logger)); err != nil {
		logger.Error("failed to register sweep job", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sweep.Start()
	defer sweep.Stop()

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.Port
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}
