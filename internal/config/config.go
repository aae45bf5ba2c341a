package config

import (
	"fmt"
	"strings"
	"time"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Storage backends for documents.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageDynamoDB = "dynamodb"
)

// Config is the complete runtime configuration of the SmartDocs services.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment"`
	LogLevel    string      `yaml:"log_level" json:"log_level"`

	Server    Server    `yaml:"server" json:"server"`
	Providers Providers `yaml:"providers" json:"providers"`
	MCP       MCP       `yaml:"mcp" json:"mcp"`
	Storage   Storage   `yaml:"storage" json:"storage"`
	Events    Events    `yaml:"events" json:"events"`
	Uploads   Uploads   `yaml:"uploads" json:"uploads"`
	Tracing   Tracing   `yaml:"tracing" json:"tracing"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server holds HTTP listener settings.
type Server struct {
	Port            int           `yaml:"port" json:"port"`
	MCPPort         int           `yaml:"mcp_port" json:"mcp_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// Providers holds credentials and limits for outbound AI, code-host and
// translation services. Every provider is optional.
type Providers struct {
	HuggingFaceAPIKey     string        `yaml:"huggingface_api_key" json:"huggingface_api_key"`
	HuggingFaceBaseURL    string        `yaml:"huggingface_base_url" json:"huggingface_base_url"`
	GitHubToken           string        `yaml:"github_token" json:"github_token"`
	GitHubBaseURL         string        `yaml:"github_base_url" json:"github_base_url"`
	GitHubWebhookSecret   string        `yaml:"github_webhook_secret" json:"github_webhook_secret"`
	GoogleTranslateAPIKey string        `yaml:"google_translate_api_key" json:"google_translate_api_key"`
	LibreTranslateURLs    []string      `yaml:"libretranslate_urls" json:"libretranslate_urls"`
	MyMemoryEnabled       bool          `yaml:"mymemory_enabled" json:"mymemory_enabled"`
	HTTPTimeout           time.Duration `yaml:"http_timeout" json:"http_timeout"`
	TranslateTimeout      time.Duration `yaml:"translate_timeout" json:"translate_timeout"`
}

// MCP configures the companion context service client.
type MCP struct {
	ServerURL string        `yaml:"server_url" json:"server_url"`
	APIKey    string        `yaml:"api_key" json:"api_key"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// Enabled reports whether both URL and key are present.
func (m MCP) Enabled() bool {
	return m.ServerURL != "" && m.APIKey != ""
}

// Storage selects and configures the document store.
type Storage struct {
	Backend     string `yaml:"backend" json:"backend"`
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
	DynamoTable string `yaml:"dynamo_table" json:"dynamo_table"`
	AWSRegion   string `yaml:"aws_region" json:"aws_region"`
}

// Events configures change-notification publishing.
type Events struct {
	EventBusName string `yaml:"event_bus_name" json:"event_bus_name"`
	Source       string `yaml:"source" json:"source"`
}

// Uploads bounds multipart uploads.
type Uploads struct {
	Dir         string `yaml:"dir" json:"dir"`
	MaxFileSize int64  `yaml:"max_file_size" json:"max_file_size"`
}

// Tracing configures the OTLP exporter.
type Tracing struct {
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	Endpoint    string `yaml:"endpoint" json:"endpoint"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Defaults returns a configuration that runs locally with no external services.
func Defaults() *Config {
	return &Config{
		Environment: Development,
		LogLevel:    "info",
		Server: Server{
			Port:            8000,
			MCPPort:         8001,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Providers: Providers{
			HuggingFaceBaseURL: "https://api-inference.huggingface.co",
			GitHubBaseURL:      "https://api.github.com",
			HTTPTimeout:        30 * time.Second,
			TranslateTimeout:   10 * time.Second,
		},
		MCP: MCP{
			Timeout: 5 * time.Second,
		},
		Storage: Storage{
			Backend:     StorageMemory,
			SQLitePath:  "data/smartdocs.db",
			DynamoTable: "smartdocs-documents",
			AWSRegion:   "us-east-1",
		},
		Events: Events{
			Source: "smartdocs.maintenance",
		},
		Uploads: Uploads{
			Dir:         "uploads",
			MaxFileSize: 10 * 1024 * 1024,
		},
		Tracing: Tracing{
			Endpoint:    "localhost:4317",
			ServiceName: "smartdocs-backend",
		},
	}
}

// LoadConfig loads configuration from defaults, the optional CONFIG_FILE and
// the environment, in that order.
func LoadConfig() (*Config, error) {
	return NewLoader(getenv("CONFIG_FILE")).Load()
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.MCPPort <= 0 || c.Server.MCPPort > 65535 {
		problems = append(problems, fmt.Sprintf("server.mcp_port out of range: %d", c.Server.MCPPort))
	}
	if c.Server.RequestTimeout <= 0 {
		problems = append(problems, "server.request_timeout must be positive")
	}
	if c.Providers.HTTPTimeout <= 0 || c.Providers.TranslateTimeout <= 0 {
		problems = append(problems, "provider timeouts must be positive")
	}
	if c.MCP.Timeout <= 0 {
		problems = append(problems, "mcp.timeout must be positive")
	}
	if c.Uploads.MaxFileSize <= 0 {
		problems = append(problems, "uploads.max_file_size must be positive")
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, "storage.sqlite_path is required for sqlite backend")
		}
	case StorageDynamoDB:
		if c.Storage.DynamoTable == "" {
			problems = append(problems, "storage.dynamo_table is required for dynamodb backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}
