package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

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
	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/service/llm"
	"smartdocs-backend/internal/translation"
	"smartdocs-backend/internal/visualization"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	awsDynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsEventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// metricsNamespace prefixes every Prometheus series.
const metricsNamespace = "smartdocs"

// provideConfig loads and validates the layered configuration.
func provideConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// provideLogLevel parses the configured level. Development defaults to debug,
// everything else to info.
func provideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	if cfg.LogLevel == "" {
		if cfg.IsDevelopment() {
			return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
		}
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// provideLogger creates a structured logger appropriate for the environment.
// Production uses JSON format, development uses console format. The level
// stays adjustable at runtime.
func provideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.With(zap.String("environment", string(cfg.Environment))), nil
}

func provideUploadLimit(cfg *config.Config) handlers.UploadLimit {
	return handlers.UploadLimit(cfg.Uploads.MaxFileSize)
}

func provideMetrics() *observability.Collector {
	return observability.NewCollector(metricsNamespace)
}

// provideTracer installs the OTLP exporter when tracing is enabled. It
// returns nil otherwise.
func provideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) *observability.TracerProvider {
	if !cfg.Tracing.Enabled {
		return nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
	})
	if err != nil {
		// Tracing never blocks startup.
		logger.Warn("Failed to initialize tracing", zap.Error(err))
		return nil
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	return tp
}

func provideHTTPClients(cfg *config.Config) HTTPClients {
	return HTTPClients{
		Default:   &http.Client{Timeout: cfg.Providers.HTTPTimeout},
		Translate: &http.Client{Timeout: cfg.Providers.TranslateTimeout},
	}
}

func provideCaller(logger *zap.Logger, metrics *observability.Collector) *providers.Caller {
	return providers.NewCaller(logger, metrics)
}

func provideHuggingFace(cfg *config.Config, clients HTTPClients, caller *providers.Caller) *providers.HuggingFace {
	return providers.NewHuggingFace(cfg.Providers.HuggingFaceAPIKey, cfg.Providers.HuggingFaceBaseURL, clients.Default, caller)
}

func provideLLM(hf *providers.HuggingFace) *llm.Service {
	return llm.NewService(hf)
}

func provideGitHub(cfg *config.Config, clients HTTPClients, caller *providers.Caller) *providers.GitHub {
	return providers.NewGitHub(cfg.Providers.GitHubToken, cfg.Providers.GitHubBaseURL, clients.Default, caller)
}

// provideTranslators lists the machine translators in fallback order.
func provideTranslators(cfg *config.Config, clients HTTPClients, caller *providers.Caller) []providers.Translator {
	return []providers.Translator{
		providers.NewGoogleTranslate(cfg.Providers.GoogleTranslateAPIKey, clients.Translate, caller),
		providers.NewLibreTranslate(cfg.Providers.LibreTranslateURLs, clients.Translate, caller),
		providers.NewMyMemory(cfg.Providers.MyMemoryEnabled, clients.Translate, caller),
	}
}

func provideMCPClient(cfg *config.Config, caller *providers.Caller, logger *zap.Logger) *mcp.Client {
	client := mcp.NewClient(cfg.MCP.ServerURL, cfg.MCP.APIKey, cfg.MCP.Timeout, caller, logger)
	if !client.Enabled() {
		logger.Info("MCP context service not configured, using fallback contexts")
	}
	return client
}

// loadAWSConfig loads the default AWS credential chain for the configured region.
func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.Storage.AWSRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

// provideStore opens the configured document backend. The cleanup closes it.
func provideStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (docs.Store, func(), error) {
	var (
		store docs.Store
		err   error
	)
	switch cfg.Storage.Backend {
	case config.StorageSQLite:
		store, err = docs.NewSQLiteStore(cfg.Storage.SQLitePath)
	case config.StorageDynamoDB:
		var awsCfg aws.Config
		if awsCfg, err = loadAWSConfig(ctx, cfg); err == nil {
			store = docs.NewDynamoStore(awsDynamodb.NewFromConfig(awsCfg), cfg.Storage.DynamoTable)
		}
	default:
		store = docs.NewMemoryStore()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Backend, err)
	}

	logger.Info("Document store ready", zap.String("backend", cfg.Storage.Backend))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close document store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// providePublisher publishes to EventBridge when a bus is configured and to
// the log otherwise.
func providePublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if cfg.Events.EventBusName == "" {
		return events.NewLogPublisher(logger), nil
	}
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Publishing events to EventBridge", zap.String("bus", cfg.Events.EventBusName))
	return events.NewEventBridgePublisher(awsEventbridge.NewFromConfig(awsCfg), cfg.Events.EventBusName, cfg.Events.Source, logger), nil
}

func provideDictionary() (*translation.Dictionary, error) {
	return translation.LoadDictionary()
}

func provideTranslationService(model *llm.Service, translators []providers.Translator, dictionary *translation.Dictionary, metrics *observability.Collector, logger *zap.Logger) *translation.Service {
	return translation.NewService(model, translators, dictionary, translation.NewMemory(), metrics, logger)
}

func provideDocsService(cfg *config.Config, store docs.Store, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *docs.Service {
	return docs.NewService(store, publisher, metrics, logger, cfg.Uploads.MaxFileSize)
}

func provideAIService(model *llm.Service, contextClient *mcp.Client, github *providers.GitHub, documents *docs.Service, translator *translation.Service, logger *zap.Logger) *ai.Service {
	return ai.NewService(model, contextClient, github, documents, translator, logger)
}

func provideParsingService(github *providers.GitHub, logger *zap.Logger) *parsing.Service {
	return parsing.NewService(github, logger)
}

func provideMaintenanceService(cfg *config.Config, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger) *maintenance.Service {
	return maintenance.NewService(maintenance.OSFileSystem{}, maintenance.NewMemoryNotificationStore(), publisher, metrics, cfg.Providers.GitHubWebhookSecret, logger)
}

func provideOnboardingService(contextClient *mcp.Client, logger *zap.Logger) (*onboarding.Service, error) {
	return onboarding.NewService(nil, onboarding.NewMemoryProgressStore(), contextClient, logger)
}

func provideVisualizationService(documents *docs.Service, logger *zap.Logger) *visualization.Service {
	return visualization.NewService(documents, logger)
}
