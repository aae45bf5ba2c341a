// Package config provides configuration management for the SmartDocs services.
//
// Configuration is layered. Defaults come first, then an optional YAML or
// JSON file named by CONFIG_FILE, then environment variables. A .env file
// in the working directory is applied to the environment before loading.
//
// Every outbound provider is optional. A missing key disables that provider,
// and its callers fall back to local heuristics.
//
// Environment variables:
//
//	PORT, MCP_PORT, REQUEST_TIMEOUT, ALLOWED_ORIGINS
//	HUGGINGFACE_API_KEY, GITHUB_TOKEN, GITHUB_WEBHOOK_SECRET
//	GOOGLE_TRANSLATE_API_KEY, LIBRETRANSLATE_URLS, MYMEMORY_ENABLED
//	MCP_SERVER_URL, MCP_API_KEY, MCP_TIMEOUT
//	STORAGE_BACKEND (memory|sqlite|dynamodb), SQLITE_PATH, DYNAMO_TABLE, AWS_REGION
//	EVENT_BUS_NAME, UPLOAD_DIR, MAX_FILE_SIZE
//	TRACING_ENABLED, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SERVICE_NAME
//
// When CONFIG_FILE is set, Watcher reloads it on change. Subscribers receive
// the new Config. Today only the log level is applied live.
package config
