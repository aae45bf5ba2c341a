package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartdocs-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// TestLoadDefaults tests that an empty environment yields a runnable configuration.
func TestLoadDefaults(t *testing.T) {
	cfg, err := config.NewLoader("").WithLookup(envMap(nil)).Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 8001, cfg.Server.MCPPort)
	assert.Equal(t, config.StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, int64(10*1024*1024), cfg.Uploads.MaxFileSize)
	assert.Equal(t, 5*time.Second, cfg.MCP.Timeout)
	assert.False(t, cfg.MCP.Enabled())
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

// TestLoadEnvironmentOverrides tests environment variables as the highest priority source.
func TestLoadEnvironmentOverrides(t *testing.T) {
	cfg, err := config.NewLoader("").WithLookup(envMap(map[string]string{
		"PORT":                "9090",
		"HUGGINGFACE_API_KEY": "hf_test",
		"MCP_SERVER_URL":      "http://localhost:8001",
		"MCP_API_KEY":         "secret",
		"ALLOWED_ORIGINS":     "https://a.example, https://b.example",
		"MCP_TIMEOUT":         "2",
		"LIBRETRANSLATE_URLS": "https://libre.example",
		"STORAGE_BACKEND":     "sqlite",
	})).Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hf_test", cfg.Providers.HuggingFaceAPIKey)
	assert.True(t, cfg.MCP.Enabled())
	assert.Equal(t, 2*time.Second, cfg.MCP.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"https://libre.example"}, cfg.Providers.LibreTranslateURLs)
	assert.Equal(t, config.StorageSQLite, cfg.Storage.Backend)
}

// TestLoadYAMLFile tests layering of a YAML file beneath the environment.
func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smartdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
  request_timeout: 15s
storage:
  backend: dynamodb
  dynamo_table: docs-test
providers:
  mymemory_enabled: true
`), 0o600))

	cfg, err := config.NewLoader(path).WithLookup(envMap(map[string]string{"PORT": "7100"})).Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "environment wins over file")
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, config.StorageDynamoDB, cfg.Storage.Backend)
	assert.Equal(t, "docs-test", cfg.Storage.DynamoTable)
	assert.True(t, cfg.Providers.MyMemoryEnabled)
	assert.Contains(t, cfg.LoadedFrom, path)
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*config.Config) {}},
		{
			name:    "port out of range",
			mutate:  func(c *config.Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Storage.Backend = "postgres" },
			wantErr: "unknown storage backend",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *config.Config) { c.Storage.Backend = config.StorageSQLite; c.Storage.SQLitePath = "" },
			wantErr: "sqlite_path",
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *config.Config) { c.Server.RequestTimeout = 0 },
			wantErr: "request_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestLoadDotEnv tests that a missing .env is not an error and a present one is applied.
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SMARTDOCS_DOTENV_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SMARTDOCS_DOTENV_PROBE") })

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("SMARTDOCS_DOTENV_PROBE"))
}

// TestWatcherReloads tests that a file change reaches subscribers.
func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smartdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))

	load := func() (*config.Config, error) {
		return config.NewLoader(path).WithLookup(envMap(nil)).Load()
	}
	initial, err := load()
	require.NoError(t, err)

	w, err := config.NewWatcher(path, initial, load, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 1)
	w.OnChange(func(c *config.Config) {
		select {
		case changed <- c.LogLevel:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	select {
	case level := <-changed:
		assert.Equal(t, "debug", level)
		assert.Equal(t, "debug", w.Config().LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
