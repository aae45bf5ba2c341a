package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientUsesFallbacks(t *testing.T) {
	tests := []struct {
		contextType string
		confidence  float64
	}{
		{ContextSummarization, 0.8},
		{ContextQA, 0.7},
		{ContextCodeAnalysis, 0.6},
		{ContextGeneral, 0.5},
		{"anything", 0.5},
	}

	// A URL without a key is not enough.
	c := NewClient("http://localhost:8001", "", 0, nil, nil)
	require.False(t, c.Enabled())

	for _, tt := range tests {
		got := c.GetContext(context.Background(), "q", tt.contextType)
		assert.Equal(t, tt.confidence, got.Confidence, tt.contextType)
		assert.True(t, got.Fallback)
		assert.NotEmpty(t, got.Keywords)
	}

	assert.Equal(t, "base", c.Enhance(context.Background(), "q", "base", Context{}))
	assert.Equal(t, "Code structure for main.py", c.CodeContext(context.Background(), "main.py", "python").Structure)
}

func TestEnabledClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/context":
			var req ContextRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, 1000, req.MaxContextLength)
			_ = json.NewEncoder(w).Encode(Context{Context: "remote", Confidence: 0.9, Style: "professional"})
		case "/enhance":
			_ = json.NewEncoder(w).Encode(EnhanceResponse{EnhancedResponse: "better"})
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k", 0, nil, nil)
	require.True(t, c.Enabled())

	got := c.GetContext(context.Background(), "q", ContextSummarization)
	assert.Equal(t, "remote", got.Context)
	assert.False(t, got.Fallback)

	assert.Equal(t, "better", c.Enhance(context.Background(), "q", "base", got))

	// Server errors degrade to the fallback.
	cc := c.CodeContext(context.Background(), "a.go", "go")
	assert.Equal(t, "medium", cc.Complexity)
	assert.Equal(t, "go", cc.Language)
}
