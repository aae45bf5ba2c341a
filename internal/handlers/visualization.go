package handlers

import (
	"net/http"

	"smartdocs-backend/internal/visualization"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VisualizationHandler serves /api/visualizations.
type VisualizationHandler struct {
	service *visualization.Service
	logger  *zap.Logger
}

// NewVisualizationHandler creates a visualization handler.
func NewVisualizationHandler(service *visualization.Service, logger *zap.Logger) *VisualizationHandler {
	return &VisualizationHandler{service: service, logger: nopIfNil(logger)}
}

// Routes registers the visualization routes.
func (h *VisualizationHandler) Routes(r chi.Router) {
	r.Post("/flow-diagram", serveJSON(h.logger, h.service.FlowDiagram))
	r.Post("/api-call-graph", serveJSON(h.logger, h.service.APICallGraph))
	r.Post("/changelog", serveJSON(h.logger, h.service.Changelog))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, h.service.Health())
	})
}
