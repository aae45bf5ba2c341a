package mcpserver

import (
	"crypto/subtle"
	"net/http"
	"strings"

	mcpctx "smartdocs-backend/internal/mcp"
	"smartdocs-backend/internal/middleware"
	"smartdocs-backend/internal/validation"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the context service over HTTP.
type Handler struct {
	apiKey    string
	validator *validation.Validator
	logger    *zap.Logger
}

// NewHandler creates a Handler. When apiKey is set, POST endpoints require
// it as a Bearer token.
func NewHandler(apiKey string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{apiKey: apiKey, validator: validation.New(), logger: logger}
}

// Routes builds the router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(h.logger))

	r.Get("/", h.root)
	r.Get("/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/context", h.context)
		r.Post("/enhance", h.enhance)
		r.Post("/code-context", h.codeContext)
	})
	return r
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) != 1 {
				api.Error(w, http.StatusUnauthorized, "invalid API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) context(w http.ResponseWriter, r *http.Request) {
	var req mcpctx.ContextRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Success(w, http.StatusOK, ContextFor(req.ContextType))
}

func (h *Handler) enhance(w http.ResponseWriter, r *http.Request) {
	var req mcpctx.EnhanceRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Success(w, http.StatusOK, mcpctx.EnhanceResponse{EnhancedResponse: Enhance(req.BaseResponse, req.Context)})
}

func (h *Handler) codeContext(w http.ResponseWriter, r *http.Request) {
	var req mcpctx.CodeContextRequest
	if err := api.Decode(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	api.Success(w, http.StatusOK, CodeContextFor(req.FilePath, req.Language))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]any{
		"message":     ServiceName,
		"description": "Model Context Protocol server for enhanced AI features",
		"endpoints": []string{
			"/context - Get context for AI queries",
			"/enhance - Enhance AI responses",
			"/code-context - Get code-specific context",
			"/health - Health check",
		},
	})
}
