package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartdocs-backend/internal/config"
	"smartdocs-backend/internal/di"

	"go.uber.org/zap"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	cfg, logger := container.Config, container.Logger

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		watcher, err := config.NewWatcher(path, cfg, config.LoadConfig, logger)
		if err != nil {
			logger.Warn("Configuration watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				if err := container.ApplyConfig(next); err != nil {
					logger.Warn("Reloaded configuration rejected", zap.Error(err))
				}
			})
			defer watcher.Stop()
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      container.GetRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  2 * cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("storage", cfg.Storage.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to release resources: %v", err)
	}

	log.Println("Server stopped")
}
