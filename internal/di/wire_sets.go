// Package di provides Wire provider sets.
// This file contains the provider sets used by Wire to generate dependency injection code.
package di

import (
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
	"github.com/google/wire"
	"go.uber.org/zap"
)

// SuperSet combines all provider sets for the complete application.
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
	ServiceProviders,
	InterfaceProviders,
	provideContainer,
)

// ConfigProviders provides configuration and cross-cutting concerns.
var ConfigProviders = wire.NewSet(
	provideConfig,
	provideLogLevel,
	provideLogger,
	provideMetrics,
	provideTracer,
	ProvideColdStartTracker,
)

// InfrastructureProviders provides storage, messaging and outbound clients.
var InfrastructureProviders = wire.NewSet(
	provideStore,
	providePublisher,
	provideHTTPClients,
	provideCaller,
	provideHuggingFace,
	provideLLM,
	provideGitHub,
	provideTranslators,
	provideMCPClient,
	provideDictionary,
)

// ServiceProviders provides the domain services.
var ServiceProviders = wire.NewSet(
	provideTranslationService,
	provideDocsService,
	provideAIService,
	provideParsingService,
	provideMaintenanceService,
	provideOnboardingService,
	provideVisualizationService,
)

// InterfaceProviders provides the HTTP handlers and router.
var InterfaceProviders = wire.NewSet(
	provideUploadLimit,
	handlers.NewDocsHandler,
	handlers.NewAIHandler,
	handlers.NewParsingHandler,
	handlers.NewMaintenanceHandler,
	handlers.NewOnboardingHandler,
	handlers.NewMultilingualHandler,
	handlers.NewVisualizationHandler,
	wire.Struct(new(Handlers), "*"),
	setupRouter,
)

// provideContainer assembles the container from injected parts.
func provideContainer(
	cfg *config.Config,
	logger *zap.Logger,
	level zap.AtomicLevel,
	metrics *observability.Collector,
	tracer *observability.TracerProvider,
	coldStart *ColdStartTracker,
	store docs.Store,
	publisher events.Publisher,
	contextClient *mcp.Client,
	docsService *docs.Service,
	aiService *ai.Service,
	parsingService *parsing.Service,
	maintenanceService *maintenance.Service,
	onboardingService *onboarding.Service,
	translationService *translation.Service,
	visualizationService *visualization.Service,
	h *Handlers,
	router *chi.Mux,
) *Container {
	return &Container{
		Config:        cfg,
		Logger:        logger,
		Metrics:       metrics,
		Tracer:        tracer,
		ColdStart:     coldStart,
		Store:         store,
		Publisher:     publisher,
		MCP:           contextClient,
		Docs:          docsService,
		AI:            aiService,
		Parsing:       parsingService,
		Maintenance:   maintenanceService,
		Onboarding:    onboardingService,
		Translation:   translationService,
		Visualization: visualizationService,
		Handlers:      h,
		Router:        router,
		logLevel:      &level,
	}
}
