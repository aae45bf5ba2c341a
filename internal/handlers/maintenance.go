package handlers

import (
	"io"
	"net/http"

	"smartdocs-backend/internal/maintenance"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MaintenanceHandler serves /api/maintenance.
type MaintenanceHandler struct {
	service *maintenance.Service
	logger  *zap.Logger
}

// NewMaintenanceHandler creates a maintenance handler.
func NewMaintenanceHandler(service *maintenance.Service, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{service: service, logger: nopIfNil(logger)}
}

// Routes registers the maintenance routes.
func (h *MaintenanceHandler) Routes(r chi.Router) {
	r.Post("/detect-drift", serveJSON(h.logger, h.service.DetectDrift))
	r.Get("/drift-history", h.DriftHistory)
	r.Post("/notify-change", serveJSON(h.logger, h.service.NotifyChange))
	r.Get("/notifications", h.Notifications)
	r.Patch("/notifications/{notificationID}", h.UpdateNotification)
	r.Post("/suggest-updates", h.SuggestUpdates)
	r.Post("/webhook/github", h.GitHubWebhook)
	r.Get("/health", h.Health)
}

// DriftHistory handles GET /api/maintenance/drift-history?limit=
func (h *MaintenanceHandler) DriftHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	reports := h.service.DriftHistory(limit)
	api.Success(w, http.StatusOK, map[string]any{"reports": reports, "total": len(reports)})
}

// Notifications handles GET /api/maintenance/notifications?status=
func (h *MaintenanceHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Notifications(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, list)
}

// UpdateNotification handles PATCH /api/maintenance/notifications/{notificationID}
func (h *MaintenanceHandler) UpdateNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &req) {
		return
	}
	n, err := h.service.UpdateNotification(r.Context(), chi.URLParam(r, "notificationID"), req.Status)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, n)
}

// SuggestUpdates handles POST /api/maintenance/suggest-updates
func (h *MaintenanceHandler) SuggestUpdates(w http.ResponseWriter, r *http.Request) {
	var req maintenance.SuggestRequest
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.service.SuggestUpdates(req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, resp)
}

// GitHubWebhook handles POST /api/maintenance/webhook/github. The raw body is
// kept for signature verification.
func (h *MaintenanceHandler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, api.MaxBodyBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "could not read request body")
		return
	}
	event := r.Header.Get("X-GitHub-Event")
	if event == "" {
		event = "push"
	}
	result, err := h.service.GitHubWebhook(r.Context(), event, payload, r.Header.Get("X-Hub-Signature-256"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// Health handles GET /api/maintenance/health
func (h *MaintenanceHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Health(r.Context()))
}
