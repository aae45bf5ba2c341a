// Package di wires the SmartDocs services, handlers and router.
// This file contains shared types that are used by both Wire and the manual container.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"smartdocs-backend/internal/ai"
	"smartdocs-backend/internal/config"
	"smartdocs-backend/internal/docs"
	"smartdocs-backend/internal/events"
	"smartdocs-backend/internal/handlers"
	"smartdocs-backend/internal/maintenance"
	"smartdocs-backend/internal/mcp"
	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/onboarding"
	"smartdocs-backend/internal/parsing"
	"smartdocs-backend/internal/translation"
	"smartdocs-backend/internal/visualization"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Container holds all application dependencies with lifecycle management.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector
	Tracer  *observability.TracerProvider

	ColdStart *ColdStartTracker

	// Storage and messaging
	Store     docs.Store
	Publisher events.Publisher
	MCP       *mcp.Client

	// Services
	Docs          *docs.Service
	AI            *ai.Service
	Parsing       *parsing.Service
	Maintenance   *maintenance.Service
	Onboarding    *onboarding.Service
	Translation   *translation.Service
	Visualization *visualization.Service

	Handlers *Handlers
	Router   *chi.Mux

	logLevel          *zap.AtomicLevel
	shutdownFunctions []func() error
}

// Handlers groups the HTTP handlers of every route group.
type Handlers struct {
	Docs          *handlers.DocsHandler
	AI            *handlers.AIHandler
	Parsing       *handlers.ParsingHandler
	Maintenance   *handlers.MaintenanceHandler
	Onboarding    *handlers.OnboardingHandler
	Multilingual  *handlers.MultilingualHandler
	Visualization *handlers.VisualizationHandler
}

// HTTPClients are the outbound clients shared by providers.
type HTTPClients struct {
	Default   *http.Client
	Translate *http.Client
}

// GetRouter returns the configured HTTP router.
func (c *Container) GetRouter() http.Handler {
	return c.Router
}

// AddShutdownFunction registers cleanup run by Shutdown in reverse order.
func (c *Container) AddShutdownFunction(fn func() error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// ApplyConfig applies the settings of a reloaded configuration that can
// change without a restart. Only the log level qualifies; server, storage
// and provider settings are read once at startup.
func (c *Container) ApplyConfig(next *config.Config) error {
	if next == nil || next.LogLevel == "" || c.logLevel == nil {
		return nil
	}
	level, err := zapcore.ParseLevel(next.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", next.LogLevel, err)
	}
	if level != c.logLevel.Level() {
		c.logLevel.SetLevel(level)
		c.Logger.Info("Log level changed", zap.String("level", level.String()))
	}
	return nil
}

// Validate checks that the container is ready to serve.
func (c *Container) Validate() error {
	var errs []error
	if c.Config == nil {
		errs = append(errs, errors.New("config is nil"))
	}
	if c.Store == nil {
		errs = append(errs, errors.New("document store is nil"))
	}
	if c.Publisher == nil {
		errs = append(errs, errors.New("event publisher is nil"))
	}
	if c.Handlers == nil {
		errs = append(errs, errors.New("handlers are nil"))
	}
	if c.Router == nil {
		errs = append(errs, errors.New("router is nil"))
	}
	return errors.Join(errs...)
}

// Shutdown runs the registered cleanup functions in reverse order and
// flushes the logger.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(c.shutdownFunctions) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.shutdownFunctions[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.shutdownFunctions = nil
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return errors.Join(errs...)
}
