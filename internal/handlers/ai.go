package handlers

import (
	"context"
	"net/http"

	"smartdocs-backend/internal/ai"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AIHandler serves /api/ai.
type AIHandler struct {
	service *ai.Service
	logger  *zap.Logger
}

// NewAIHandler creates an AI handler.
func NewAIHandler(service *ai.Service, logger *zap.Logger) *AIHandler {
	return &AIHandler{service: service, logger: nopIfNil(logger)}
}

// Routes registers the AI routes.
func (h *AIHandler) Routes(r chi.Router) {
	r.Post("/summarize", serveJSON(h.logger, h.service.Summarize))
	r.Post("/enhance", serveJSON(h.logger, h.service.Enhance))
	r.Post("/qa", serveJSON(h.logger, h.service.QA))
	r.Post("/generate-from-github", serveJSON(h.logger, h.service.GenerateFromGitHub))
	r.Post("/maintenance/drift", serveJSON(h.logger, h.service.CheckDrift))
	r.Post("/translate", serveJSON(h.logger, h.service.Translate))
	r.Get("/health", h.Health)
}

// Health handles GET /api/ai/health
func (h *AIHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Health())
}

// serveJSON adapts a request/response service call to a POST handler.
func serveJSON[Req any, Resp any](logger *zap.Logger, call func(context.Context, Req) (Resp, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if !decode(w, r, &req) {
			return
		}
		resp, err := call(r.Context(), req)
		if err != nil {
			handleServiceError(w, r, logger, err)
			return
		}
		api.Success(w, http.StatusOK, resp)
	}
}
