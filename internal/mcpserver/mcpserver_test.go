package mcpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpctx "smartdocs-backend/internal/mcp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFor(t *testing.T) {
	tests := []struct {
		contextType string
		confidence  float64
		style       string
	}{
		{mcpctx.ContextSummarization, 0.9, "professional"},
		{mcpctx.ContextQA, 0.8, "helpful"},
		{mcpctx.ContextCodeAnalysis, 0.85, "technical"},
		{mcpctx.ContextDocGeneration, 0.9, "comprehensive"},
		{"other", 0.7, "standard"},
	}
	for _, tt := range tests {
		c := ContextFor(tt.contextType)
		assert.Equal(t, tt.confidence, c.Confidence, tt.contextType)
		assert.Equal(t, tt.style, c.Style, tt.contextType)
	}
}

func TestEnhance(t *testing.T) {
	out := Enhance("answer", ContextFor(mcpctx.ContextQA))
	assert.Equal(t, "[Enhanced with helpful context - Focus: comprehensive explanations] answer", out)
	assert.Equal(t, "[Enhanced with standard context - Focus: general] x", Enhance("x", mcpctx.Context{}))
}

func TestCodeContextFor(t *testing.T) {
	assert.Equal(t, []string{"PEP 8", "type hints", "docstrings"}, CodeContextFor("a.py", "Python").LanguageSpecific)
	assert.Equal(t, []string{"standard conventions"}, CodeContextFor("a.rs", "rust").LanguageSpecific)
	assert.Contains(t, CodeContextFor("", "").Structure, "unknown")
}

func do(t *testing.T, h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHTTPHandler(t *testing.T) {
	h := NewHandler("secret", nil).Routes()

	w := do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = do(t, h, http.MethodPost, "/context", "wrong", `{"query":"q","context_type":"qa"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodPost, "/context", "secret", `{"query":"q","context_type":"qa"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var c mcpctx.Context
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &c))
	assert.Equal(t, 0.8, c.Confidence)

	w = do(t, h, http.MethodPost, "/context", "secret", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, http.MethodPost, "/enhance", "secret", `{"base_response":"hi","context":{"style":"s","focus":"f"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[Enhanced with s context - Focus: f] hi")

	w = do(t, h, http.MethodPost, "/code-context", "secret", `{"file_path":"main.go","language":"go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "gofmt")
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	require.NoError(t, err)

	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), result.IsError
}

func TestTools(t *testing.T) {
	require.NotNil(t, NewMCPServer())

	text, isErr := callTool(t, handleContext, map[string]interface{}{"query": "q", "context_type": "summarization"})
	assert.False(t, isErr)
	assert.Contains(t, text, "clarity and brevity")

	_, isErr = callTool(t, handleContext, map[string]interface{}{})
	assert.True(t, isErr)

	text, _ = callTool(t, handleEnhance, map[string]interface{}{"text": "hello", "context_type": "doc_generation"})
	assert.Equal(t, "[Enhanced with comprehensive context - Focus: completeness and usability] hello", text)

	text, _ = callTool(t, handleCodeContext, map[string]interface{}{"file_path": "App.java", "language": "java"})
	assert.Contains(t, text, "Javadoc")
}
