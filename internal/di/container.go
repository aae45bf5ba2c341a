//go:build !wireinject
// +build !wireinject

package di

import (
	"context"
	"fmt"

	"smartdocs-backend/internal/config"
	"smartdocs-backend/internal/handlers"

	"go.uber.org/zap"
)

// NewContainer loads the configuration and builds every dependency.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := provideConfig()
	if err != nil {
		return nil, err
	}
	level, err := provideLogLevel(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := provideLogger(cfg, level)
	if err != nil {
		return nil, err
	}
	c, err := NewContainerWithConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.logLevel = &level
	return c, nil
}

// NewContainerWithConfig builds every dependency from an existing
// configuration. It mirrors the Wire injector in wire.go.
func NewContainerWithConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   provideMetrics(),
		ColdStart: NewColdStartTracker(),
	}
	if err := c.initialize(ctx); err != nil {
		_ = c.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	logger.Info("Dependency injection container initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("mcp", c.MCP.Enabled()),
	)
	return c, nil
}

// initialize sets up all dependencies in the correct order.
func (c *Container) initialize(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger

	// 1. Observability
	if c.Tracer = provideTracer(ctx, cfg, logger); c.Tracer != nil {
		c.AddShutdownFunction(func() error { return c.Tracer.Shutdown(context.Background()) })
	}

	// 2. Storage and messaging
	store, closeStore, err := provideStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	c.Store = store
	c.AddShutdownFunction(func() error { closeStore(); return nil })

	if c.Publisher, err = providePublisher(ctx, cfg, logger); err != nil {
		return err
	}

	// 3. Outbound providers
	clients := provideHTTPClients(cfg)
	caller := provideCaller(logger, c.Metrics)
	model := provideLLM(provideHuggingFace(cfg, clients, caller))
	github := provideGitHub(cfg, clients, caller)
	c.MCP = provideMCPClient(cfg, caller, logger)

	// 4. Services
	dictionary, err := provideDictionary()
	if err != nil {
		return fmt.Errorf("failed to load dictionary: %w", err)
	}
	c.Translation = provideTranslationService(model, provideTranslators(cfg, clients, caller), dictionary, c.Metrics, logger)
	c.Docs = provideDocsService(cfg, c.Store, c.Publisher, c.Metrics, logger)
	c.AI = provideAIService(model, c.MCP, github, c.Docs, c.Translation, logger)
	c.Parsing = provideParsingService(github, logger)
	c.Maintenance = provideMaintenanceService(cfg, c.Publisher, c.Metrics, logger)
	if c.Onboarding, err = provideOnboardingService(c.MCP, logger); err != nil {
		return fmt.Errorf("failed to load onboarding content: %w", err)
	}
	c.Visualization = provideVisualizationService(c.Docs, logger)

	// 5. Handlers
	uploadLimit := provideUploadLimit(cfg)
	c.Handlers = &Handlers{
		Docs:          handlers.NewDocsHandler(c.Docs, uploadLimit, logger),
		AI:            handlers.NewAIHandler(c.AI, logger),
		Parsing:       handlers.NewParsingHandler(c.Parsing, uploadLimit, logger),
		Maintenance:   handlers.NewMaintenanceHandler(c.Maintenance, logger),
		Onboarding:    handlers.NewOnboardingHandler(c.Onboarding, logger),
		Multilingual:  handlers.NewMultilingualHandler(c.Translation, logger),
		Visualization: handlers.NewVisualizationHandler(c.Visualization, logger),
	}

	// 6. Router
	c.Router = setupRouter(cfg, logger, c.Metrics, c.Handlers, c.ColdStart)
	return nil
}
