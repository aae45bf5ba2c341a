package mcp

import (
	"context"
	"net/http"
	"strings"
	"time"

	"smartdocs-backend/internal/providers"

	"go.uber.org/zap"
)

const (
	providerName     = "mcp"
	maxContextLength = 1000
	defaultTimeout   = 5 * time.Second
)

// Client queries the context service. Every method degrades to a static
// fallback, so callers never see an error.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	caller  *providers.Caller
	logger  *zap.Logger
}

// NewClient creates a client. It is enabled only when both serverURL and
// apiKey are set.
func NewClient(serverURL, apiKey string, timeout time.Duration, caller *providers.Caller, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		caller:  caller,
		logger:  logger,
	}
}

// Enabled reports whether remote calls are attempted.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	return c.caller.Do(ctx, providerName, func(ctx context.Context) error {
		return providers.DoJSON(ctx, c.http, providerName, http.MethodPost, c.baseURL+path, header, body, out)
	})
}

// GetContext returns context for query, or the fallback for contextType.
func (c *Client) GetContext(ctx context.Context, query, contextType string) Context {
	if !c.Enabled() {
		return FallbackContext(contextType)
	}

	var out Context
	err := c.post(ctx, "/context", ContextRequest{
		Query:            query,
		ContextType:      contextType,
		MaxContextLength: maxContextLength,
	}, &out)
	if err != nil {
		c.logger.Debug("MCP context not available", zap.String("context_type", contextType), zap.Error(err))
		return FallbackContext(contextType)
	}
	return out
}

// Enhance rewrites base with the service. It returns base unchanged when
// disabled or on failure.
func (c *Client) Enhance(ctx context.Context, query, base string, mctx Context) string {
	if !c.Enabled() {
		return base
	}

	var out EnhanceResponse
	err := c.post(ctx, "/enhance", EnhanceRequest{
		Query:           query,
		BaseResponse:    base,
		Context:         mctx,
		EnhancementType: "context_aware",
	}, &out)
	if err != nil || out.EnhancedResponse == "" {
		c.logger.Debug("MCP enhancement not available", zap.Error(err))
		return base
	}
	return out.EnhancedResponse
}

// CodeContext returns code-specific context for a file.
func (c *Client) CodeContext(ctx context.Context, filePath, language string) CodeContext {
	if !c.Enabled() {
		return FallbackCodeContext(filePath, language)
	}

	var out CodeContext
	err := c.post(ctx, "/code-context", CodeContextRequest{
		FilePath:    filePath,
		Language:    language,
		ContextType: ContextCodeAnalysis,
	}, &out)
	if err != nil {
		c.logger.Debug("MCP code context not available", zap.String("file_path", filePath), zap.Error(err))
		return FallbackCodeContext(filePath, language)
	}
	return out
}
