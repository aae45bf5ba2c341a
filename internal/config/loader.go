package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader layers configuration sources. Order, lowest priority first:
//  1. Defaults
//  2. The YAML or JSON file at path, if any
//  3. Environment variables (after .env is loaded)
type Loader struct {
	path        string
	sources     []string
	fileLoaders map[string]FileLoader
	lookupEnv   func(string) (string, bool)
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader for the given file path. An empty path skips the file layer.
func NewLoader(path string) *Loader {
	l := &Loader{
		path:        path,
		fileLoaders: make(map[string]FileLoader),
		lookupEnv:   os.LookupEnv,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader registers a file loader for its extension.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// WithLookup replaces the environment lookup, for tests.
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// Load builds and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()
	l.sources = append(l.sources, "defaults")

	if l.path != "" {
		if err := l.loadFile(l.path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	l.loadEnvironmentVariables(cfg)
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = l.sources

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string, cfg *Config) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return fmt.Errorf("unsupported config format %q", ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := loader.Load(file, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	l.sources = append(l.sources, path)
	return nil
}

func (l *Loader) loadEnvironmentVariables(cfg *Config) {
	setString := func(key string, dst *string) {
		if val, ok := l.lookupEnv(key); ok && val != "" {
			*dst = val
		}
	}
	setInt := func(key string, dst *int) {
		if val, ok := l.lookupEnv(key); ok {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val, ok := l.lookupEnv(key); ok {
			if d, err := parseDuration(val); err == nil {
				*dst = d
			}
		}
	}

	if val, ok := l.lookupEnv("ENVIRONMENT"); ok && val != "" {
		cfg.Environment = Environment(strings.ToLower(val))
	}
	setString("LOG_LEVEL", &cfg.LogLevel)

	setInt("PORT", &cfg.Server.Port)
	setInt("MCP_PORT", &cfg.Server.MCPPort)
	setDuration("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if val, ok := l.lookupEnv("ALLOWED_ORIGINS"); ok && val != "" {
		cfg.Server.AllowedOrigins = splitList(val)
	}

	setString("HUGGINGFACE_API_KEY", &cfg.Providers.HuggingFaceAPIKey)
	setString("HUGGINGFACE_BASE_URL", &cfg.Providers.HuggingFaceBaseURL)
	setString("GITHUB_TOKEN", &cfg.Providers.GitHubToken)
	setString("GITHUB_BASE_URL", &cfg.Providers.GitHubBaseURL)
	setString("GITHUB_WEBHOOK_SECRET", &cfg.Providers.GitHubWebhookSecret)
	setString("GOOGLE_TRANSLATE_API_KEY", &cfg.Providers.GoogleTranslateAPIKey)
	if val, ok := l.lookupEnv("LIBRETRANSLATE_URLS"); ok && val != "" {
		cfg.Providers.LibreTranslateURLs = splitList(val)
	}
	if val, ok := l.lookupEnv("MYMEMORY_ENABLED"); ok {
		cfg.Providers.MyMemoryEnabled = parseBool(val)
	}
	setDuration("PROVIDER_HTTP_TIMEOUT", &cfg.Providers.HTTPTimeout)

	setString("MCP_SERVER_URL", &cfg.MCP.ServerURL)
	setString("MCP_API_KEY", &cfg.MCP.APIKey)
	setDuration("MCP_TIMEOUT", &cfg.MCP.Timeout)

	setString("STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("SQLITE_PATH", &cfg.Storage.SQLitePath)
	setString("DYNAMO_TABLE", &cfg.Storage.DynamoTable)
	setString("AWS_REGION", &cfg.Storage.AWSRegion)

	setString("EVENT_BUS_NAME", &cfg.Events.EventBusName)

	setString("UPLOAD_DIR", &cfg.Uploads.Dir)
	if val, ok := l.lookupEnv("MAX_FILE_SIZE"); ok {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Uploads.MaxFileSize = n
		}
	}

	if val, ok := l.lookupEnv("TRACING_ENABLED"); ok {
		cfg.Tracing.Enabled = parseBool(val)
	}
	setString("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	setString("OTEL_SERVICE_NAME", &cfg.Tracing.ServiceName)
}

// LoadDotEnv loads .env files into the process environment. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// YAMLLoader loads configuration from YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func getenv(key string) string {
	return os.Getenv(key)
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
