package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/service/llm"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCaller() (*Caller, *observability.Collector) {
	metrics := observability.NewCollector("test")
	return NewCaller(zap.NewNop(), metrics), metrics
}

func TestHuggingFaceNotConfigured(t *testing.T) {
	caller, metrics := newCaller()
	hf := NewHuggingFace("", "http://unused", nil, caller)

	assert.False(t, hf.IsAvailable())
	_, err := hf.Complete(context.Background(), "hi", llm.CompletionOptions{Task: llm.TaskGeneration})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("huggingface", observability.OutcomeSkipped)))
}

func TestHuggingFaceTasks(t *testing.T) {
	var gotPaths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPaths = append(gotPaths, r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch {
		case strings.HasSuffix(r.URL.Path, SummarizationModel):
			assert.Equal(t, 50, req.Parameters.MinLength)
			_, _ = w.Write([]byte(`[{"summary_text":"short"}]`))
		case strings.Contains(r.URL.Path, "opus-mt"):
			_, _ = w.Write([]byte(`[{"translation_text":"Hola"}]`))
		default:
			_, _ = w.Write([]byte(`[{"generated_text":"` + req.Inputs + ` continued"}]`))
		}
	}))
	defer srv.Close()

	caller, metrics := newCaller()
	hf := NewHuggingFace("key", srv.URL, srv.Client(), caller)
	ctx := context.Background()

	out, err := hf.Complete(ctx, "long text", llm.CompletionOptions{Task: llm.TaskSummarization, MinLength: 50, MaxLength: 150})
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	out, err = hf.Complete(ctx, "Hello", llm.CompletionOptions{Task: llm.TaskTranslation, SourceLang: "en", TargetLang: "ja"})
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)

	out, err = hf.Complete(ctx, "prompt", llm.CompletionOptions{Task: llm.TaskGeneration, MaxLength: 20})
	require.NoError(t, err)
	assert.Equal(t, "continued", out)

	assert.Contains(t, gotPaths, "/models/Helsinki-NLP/opus-mt-en-jap")
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("huggingface", observability.OutcomeSuccess)))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	caller, metrics := newCaller()
	hf := NewHuggingFace("key", srv.URL, srv.Client(), caller)

	for i := 0; i < 5; i++ {
		_, err := hf.Complete(context.Background(), "x", llm.CompletionOptions{Task: llm.TaskSummarization})
		require.Error(t, err)
	}

	var statusErr *StatusError
	_, err := NewHuggingFace("key", srv.URL, srv.Client(), nil).Complete(context.Background(), "x", llm.CompletionOptions{Task: llm.TaskSummarization})
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	assert.Equal(t, 4, hits)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("huggingface", observability.OutcomeFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ProviderCalls.WithLabelValues("huggingface", observability.OutcomeRejected)))
	assert.Equal(t, "open", caller.States()["huggingface"])
}

func TestGitHubClient(t *testing.T) {
	readme := "# Demo\n\nHello"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/repos/acme/demo":
			_, _ = w.Write([]byte(`{"name":"demo","full_name":"acme/demo","language":"Go","stargazers_count":7}`))
		case "/repos/acme/demo/contents":
			_, _ = w.Write([]byte(`[{"name":"README.md","path":"README.md","type":"file"},{"name":"cmd","path":"cmd","type":"dir"}]`))
		case "/repos/acme/demo/contents/README.md":
			encoded := base64.StdEncoding.EncodeToString([]byte(readme))
			_ = json.NewEncoder(w).Encode(map[string]string{"content": encoded[:8] + "\n" + encoded[8:], "encoding": "base64"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	caller, _ := newCaller()
	gh := NewGitHub("secret", srv.URL, srv.Client(), caller)
	ctx := context.Background()

	repo, err := gh.Repo(ctx, "acme", "demo")
	require.NoError(t, err)
	assert.Equal(t, "Go", repo.Language)
	assert.Equal(t, 7, repo.Stars)

	entries, err := gh.List(ctx, "acme", "demo", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "dir", entries[1].Type)

	content, err := gh.File(ctx, "acme", "demo", "README.md")
	require.NoError(t, err)
	assert.Equal(t, readme, content)

	_, err = gh.File(ctx, "acme", "demo", "missing.go")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		url   string
		owner string
		repo  string
	}{
		{"https://github.com/acme/demo", "acme", "demo"},
		{"https://github.com/acme/demo.git", "acme", "demo"},
		{"git@github.com/acme/demo/tree/main", "acme", "demo"},
	}
	for _, tt := range tests {
		owner, repo, err := ParseRepoURL(tt.url)
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.owner, owner)
		assert.Equal(t, tt.repo, repo)
	}

	_, _, err := ParseRepoURL("https://gitlab.com/acme/demo")
	assert.True(t, appErrors.IsValidation(err))
}

func TestTranslators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/google":
			assert.Equal(t, "k", r.URL.Query().Get("key"))
			_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"Bonjour"}]}}`))
		case "/bad/translate":
			http.Error(w, "down", http.StatusBadGateway)
		case "/good/translate":
			_, _ = w.Write([]byte(`{"translatedText":"Hallo"}`))
		case "/mymemory":
			assert.Equal(t, "en|pt", r.URL.Query().Get("langpair"))
			_, _ = w.Write([]byte(`{"responseData":{"translatedText":"Hello"}}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	caller, _ := newCaller()

	google := NewGoogleTranslate("k", srv.Client(), caller)
	google.endpoint = srv.URL + "/google"
	out, err := google.Translate(ctx, "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)

	libre := NewLibreTranslate([]string{srv.URL + "/bad", " " + srv.URL + "/good/ "}, srv.Client(), caller)
	out, err = libre.Translate(ctx, "Hello", "en", "de")
	require.NoError(t, err)
	assert.Equal(t, "Hallo", out)

	// An echo of the input is not a translation.
	mm := NewMyMemory(true, srv.Client(), caller)
	mm.endpoint = srv.URL + "/mymemory"
	_, err = mm.Translate(ctx, "Hello", "en", "pt")
	assert.ErrorIs(t, err, ErrNoResult)

	for _, tr := range []Translator{
		NewGoogleTranslate("", nil, caller),
		NewLibreTranslate(nil, nil, caller),
		NewMyMemory(false, nil, caller),
	} {
		assert.False(t, tr.Configured(), tr.Name())
		_, err := tr.Translate(ctx, "Hello", "en", "es")
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
}
