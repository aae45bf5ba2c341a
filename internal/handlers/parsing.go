package handlers

import (
	"net/http"

	"smartdocs-backend/internal/parsing"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ParsingHandler serves /api/parsing.
type ParsingHandler struct {
	service     *parsing.Service
	uploadLimit UploadLimit
	logger      *zap.Logger
}

// NewParsingHandler creates a parsing handler.
func NewParsingHandler(service *parsing.Service, uploadLimit UploadLimit, logger *zap.Logger) *ParsingHandler {
	return &ParsingHandler{service: service, uploadLimit: uploadLimit, logger: nopIfNil(logger)}
}

// Routes registers the parsing routes.
func (h *ParsingHandler) Routes(r chi.Router) {
	r.Post("/parse-code", serveJSON(h.logger, h.service.ParseCode))
	r.Post("/parse-swagger", serveJSON(h.logger, h.service.ParseSwagger))
	r.Post("/code-analysis", serveJSON(h.logger, h.service.CodeAnalysis))
	r.Post("/upload-file", h.UploadFile)
	r.Get("/supported-languages", h.SupportedLanguages)
	r.Get("/health", h.Health)
}

// UploadFile handles POST /api/parsing/upload-file (multipart: file)
func (h *ParsingHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	name, data, err := formFile(w, r, "file", h.uploadLimit)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	result, err := h.service.ParseUpload(r.Context(), name, data)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// SupportedLanguages handles GET /api/parsing/supported-languages
func (h *ParsingHandler) SupportedLanguages(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.SupportedLanguages())
}

// Health handles GET /api/parsing/health
func (h *ParsingHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Health())
}
