package handlers

import (
	"net/http"

	"smartdocs-backend/internal/translation"
	"smartdocs-backend/internal/validation"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MultilingualHandler serves /api/multilingual.
type MultilingualHandler struct {
	service   *translation.Service
	validator *validation.Validator
	logger    *zap.Logger
}

// NewMultilingualHandler creates a multilingual handler.
func NewMultilingualHandler(service *translation.Service, logger *zap.Logger) *MultilingualHandler {
	return &MultilingualHandler{service: service, validator: validation.New(), logger: nopIfNil(logger)}
}

// Routes registers the multilingual routes.
func (h *MultilingualHandler) Routes(r chi.Router) {
	r.Post("/translate", serveJSON(h.logger, h.service.Translate))
	r.Post("/localize", serveJSON(h.logger, h.service.Localize))
	r.Post("/detect", h.Detect)
	r.Get("/languages", h.Languages)
	r.Get("/translation-memory", h.TranslationMemory)
	r.Get("/health", h.Health)
}

// Detect handles POST /api/multilingual/detect
func (h *MultilingualHandler) Detect(w http.ResponseWriter, r *http.Request) {
	var req translation.DetectRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, h.service.Detect(req.Content))
}

// Languages handles GET /api/multilingual/languages
func (h *MultilingualHandler) Languages(w http.ResponseWriter, r *http.Request) {
	langs := translation.Languages()
	api.Success(w, http.StatusOK, map[string]any{"languages": langs, "total": len(langs)})
}

// TranslationMemory handles GET /api/multilingual/translation-memory
func (h *MultilingualHandler) TranslationMemory(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.MemoryStats())
}

// Health handles GET /api/multilingual/health
func (h *MultilingualHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Health())
}
