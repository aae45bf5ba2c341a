package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"smartdocs-backend/internal/ai"
	"smartdocs-backend/internal/docs"
	"smartdocs-backend/internal/maintenance"
	"smartdocs-backend/internal/onboarding"
	"smartdocs-backend/internal/parsing"
	"smartdocs-backend/internal/translation"
	"smartdocs-backend/internal/visualization"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const webhookSecret = "s3cret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	docsService := docs.NewService(docs.NewMemoryStore(), nil, nil, logger, 1<<20)
	dictionary, err := translation.LoadDictionary()
	require.NoError(t, err)
	translator := translation.NewService(nil, nil, dictionary, nil, nil, logger)
	onboardingService, err := onboarding.NewService(nil, nil, nil, logger)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/docs", NewDocsHandler(docsService, 1<<20, logger).Routes)
	r.Route("/api/ai", NewAIHandler(ai.NewService(nil, nil, nil, docsService, translator, logger), logger).Routes)
	r.Route("/api/parsing", NewParsingHandler(parsing.NewService(nil, logger), 1<<20, logger).Routes)
	r.Route("/api/maintenance", NewMaintenanceHandler(maintenance.NewService(nil, nil, nil, nil, webhookSecret, logger), logger).Routes)
	r.Route("/api/onboarding", NewOnboardingHandler(onboardingService, logger).Routes)
	r.Route("/api/multilingual", NewMultilingualHandler(translator, logger).Routes)
	r.Route("/api/visualizations", NewVisualizationHandler(visualization.NewService(docsService, logger), logger).Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)
	for _, group := range []string{"docs", "ai", "parsing", "maintenance", "onboarding", "multilingual", "visualizations"} {
		t.Run(group, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/"+group+"/health", "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
		})
	}
}

func TestDocsRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/docs", `{"title":"Guide","content":"Install the CLI first."}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["doc_id"].(string)
	assert.Equal(t, "doc_1", id)

	rec = do(t, router, http.MethodGet, "/api/docs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Guide", decodeBody(t, rec)["title"])

	rec = do(t, router, http.MethodPut, "/api/docs/"+id, `{"status":"published"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "published", decodeBody(t, rec)["status"])

	rec = do(t, router, http.MethodPost, "/api/docs/search", `{"query":"cli"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodGet, "/api/docs?status=published", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = do(t, router, http.MethodDelete, "/api/docs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "deleted", decodeBody(t, rec)["status"])

	rec = do(t, router, http.MethodGet, "/api/docs/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocsErrors(t *testing.T) {
	router := newTestRouter(t)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed json", http.MethodPost, "/api/docs", `{"title":`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/docs", "", http.StatusBadRequest},
		{"blank title", http.MethodPost, "/api/docs", `{"title":" ","content":"x"}`, http.StatusBadRequest},
		{"unknown template", http.MethodGet, "/api/docs/templates/nope", "", http.StatusNotFound},
		{"known template", http.MethodGet, "/api/docs/templates/api-doc", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want >= 400 {
				assert.NotEmpty(t, decodeBody(t, rec)["error"])
			}
		})
	}
}

func multipartRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploads(t *testing.T) {
	router := newTestRouter(t)

	t.Run("document", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartRequest(t, "/api/docs/upload", "setup.md", "# Setup\n\nRun make.", map[string]string{"tags": "setup,ops"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, "uploaded", body["status"])
		doc := body["document"].(map[string]any)
		assert.Equal(t, "setup.md", doc["title"])
		assert.Equal(t, "markdown", doc["content_type"])
	})

	t.Run("code file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartRequest(t, "/api/parsing/upload-file", "util.py", "def add(a, b):\n    return a + b\n", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "python", body["data"].(map[string]any)["language"])
	})

	t.Run("unsupported extension", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, multipartRequest(t, "/api/parsing/upload-file", "notes.xyz", "hello", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/parsing/upload-file", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   UploadLimit
		size    int
		wantErr bool
	}{
		{"above the default when configured", 16 << 20, 11 << 20, false},
		{"default when unset", 0, 11 << 20, true},
		{"small configured limit", 1 << 10, 2 << 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, "/upload", "big.txt", strings.Repeat("a", tt.size), nil)
			_, data, err := formFile(httptest.NewRecorder(), req, "file", tt.limit)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, appErrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, data, tt.size)
		})
	}
}

func TestAIRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/ai/summarize", `{"content":"SmartDocs keeps docs fresh. It has an API."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody(t, rec)["summary"])

	rec = do(t, router, http.MethodPost, "/api/ai/maintenance/drift", `{"documentation_content":"This uses a deprecated flag."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody(t, rec)["issues_found"])

	rec = do(t, router, http.MethodPost, "/api/ai/qa", `{"question":"How?","document_id":"doc_404"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/ai/summarize", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParsingRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/parsing/parse-code", `{"code":"function hi() {}","language":"javascript"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = do(t, router, http.MethodGet, "/api/parsing/supported-languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(payload))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestMaintenanceRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/maintenance/notify-change", `{"component_name":"auth","change_type":"modified","file_path":"auth.py"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["notification_id"].(string)
	require.Len(t, id, 12)

	rec = do(t, router, http.MethodPatch, "/api/maintenance/notifications/"+id, `{"status":"resolved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "resolved", decodeBody(t, rec)["status"])

	rec = do(t, router, http.MethodGet, "/api/maintenance/notifications?status=resolved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodPatch, "/api/maintenance/notifications/missing", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/maintenance/suggest-updates", `{"code_changes":[{"file_path":"api.py","change_type":"added"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodPost, "/api/maintenance/suggest-updates", `[{"file_path":"api.py","change_type":"added"},{"file_path":"db.py","change_type":"removed"}]`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 2, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodPost, "/api/maintenance/suggest-updates", `[]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/maintenance/drift-history?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGitHubWebhookRoute(t *testing.T) {
	router := newTestRouter(t)
	payload := `{"commits":[{"id":"abc","added":["svc/api.py"],"modified":["README.md"],"removed":[]}]}`

	tests := []struct {
		name      string
		signature string
		event     string
		want      int
		status    string
	}{
		{"valid push", sign(payload), "push", http.StatusOK, "webhook processed"},
		{"bad signature", "sha256=00", "push", http.StatusUnauthorized, ""},
		{"missing signature", "", "push", http.StatusUnauthorized, ""},
		{"ping", sign(payload), "ping", http.StatusOK, "pong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/maintenance/webhook/github", strings.NewReader(payload))
			req.Header.Set("X-Hub-Signature-256", tt.signature)
			req.Header.Set("X-GitHub-Event", tt.event)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.status != "" {
				assert.Equal(t, tt.status, decodeBody(t, rec)["status"])
			}
		})
	}
}

func TestOnboardingRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/onboarding/tutorials?difficulty=beginner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodGet, "/api/onboarding/tutorials/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/onboarding/tutorials/getting-started/complete-step?user_id=u1&step_id=intro&quiz_score=90", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "step completed", decodeBody(t, rec)["status"])

	rec = do(t, router, http.MethodPost, "/api/onboarding/tutorials/getting-started/complete-step", `{"user_id":"u1","step_id":"first-doc"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/onboarding/tutorials/getting-started/progress?user_id=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 2, body["completed_steps"])
	assert.Equal(t, "ai-features", body["next_step"])

	rec = do(t, router, http.MethodGet, "/api/onboarding/tutorials/getting-started/progress", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/onboarding/tutorials/getting-started/complete-step?user_id=u1&step_id=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/onboarding/recommendations", `{"user_id":"u1","experience_level":"beginner"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 23, decodeBody(t, rec)["estimated_time"])

	rec = do(t, router, http.MethodGet, "/api/onboarding/guides/quick-start", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMultilingualRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/multilingual/languages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, decodeBody(t, rec)["total"])

	rec = do(t, router, http.MethodPost, "/api/multilingual/detect", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/multilingual/detect", `{"content":"こんにちは世界"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ja", decodeBody(t, rec)["detected_language"])

	rec = do(t, router, http.MethodPost, "/api/multilingual/translate", `{"content":"Hello","target_language":"xx"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/multilingual/translate", `{"content":"Hello","source_language":"en","target_language":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Hello", decodeBody(t, rec)["translated_content"])
}

func TestVisualizationRoutes(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/visualizations/flow-diagram", `{"code":"def a():\n    b()\n\ndef b():\n    pass\n"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeBody(t, rec)["diagram"], "func_a -->|calls| func_b")

	rec = do(t, router, http.MethodPost, "/api/visualizations/api-call-graph", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/visualizations/changelog", `{"content":"## v1.0.0\n- Added search"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decodeBody(t, rec)["version_count"])
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"validation", appErrors.NewValidation("bad input"), http.StatusBadRequest, "bad input"},
		{"unauthorized", appErrors.NewUnauthorized("bad signature"), http.StatusUnauthorized, "bad signature"},
		{"not found", appErrors.NewNotFound("Document not found"), http.StatusNotFound, "Document not found"},
		{"conflict", appErrors.NewConflict("exists"), http.StatusConflict, "exists"},
		{"unavailable", appErrors.NewUnavailable("github down", errors.New("dial")), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, "Service temporarily unavailable"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "An internal error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			handleServiceError(rec, req, zap.NewNop(), tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.msg, decodeBody(t, rec)["error"])
		})
	}
}
