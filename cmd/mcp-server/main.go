// Command mcp-server runs the context companion service. By default it
// serves HTTP on the MCP port; with -stdio it speaks MCP over stdin/stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"smartdocs-backend/internal/config"
	"smartdocs-backend/internal/mcpserver"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

func main() {
	stdio := flag.Bool("stdio", false, "serve MCP tools over stdin/stdout")
	flag.Parse()

	if *stdio {
		if err := server.ServeStdio(mcpserver.NewMCPServer()); err != nil {
			log.Fatalf("MCP stdio server failed: %v", err)
		}
		return
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.MCPPort),
		Handler:      mcpserver.NewHandler(cfg.MCP.APIKey, logger).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Starting MCP server",
			zap.String("address", srv.Addr),
			zap.Bool("auth", cfg.MCP.APIKey != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("MCP server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("MCP server shutdown error", zap.Error(err))
	}
}
