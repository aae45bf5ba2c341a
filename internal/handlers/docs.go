package handlers

import (
	"net/http"

	"smartdocs-backend/internal/docs"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DocsHandler serves /api/docs.
type DocsHandler struct {
	service     *docs.Service
	uploadLimit UploadLimit
	logger      *zap.Logger
}

// NewDocsHandler creates a document handler.
func NewDocsHandler(service *docs.Service, uploadLimit UploadLimit, logger *zap.Logger) *DocsHandler {
	return &DocsHandler{service: service, uploadLimit: uploadLimit, logger: nopIfNil(logger)}
}

// Routes registers the document routes.
func (h *DocsHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Post("/search", h.Search)
	r.Get("/templates", h.Templates)
	r.Get("/templates/{templateID}", h.Template)
	r.Post("/upload", h.Upload)
	r.Get("/stats", h.Stats)
	r.Get("/health", h.Health)
	r.Get("/{docID}", h.Get)
	r.Put("/{docID}", h.Update)
	r.Delete("/{docID}", h.Delete)
}

// Create handles POST /api/docs
func (h *DocsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req docs.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, doc)
}

// List handles GET /api/docs?language=&status=
func (h *DocsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.service.List(r.Context(), q.Get("language"), q.Get("status"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, list)
}

// Get handles GET /api/docs/{docID}
func (h *DocsHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, doc)
}

// Update handles PUT /api/docs/{docID}
func (h *DocsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req docs.UpdateRequest
	if !decode(w, r, &req) {
		return
	}
	doc, err := h.service.Update(r.Context(), chi.URLParam(r, "docID"), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/docs/{docID}
func (h *DocsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")
	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "deleted", "doc_id": id})
}

// Search handles POST /api/docs/search
func (h *DocsHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req docs.SearchRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.service.Search(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// Templates handles GET /api/docs/templates?category=
func (h *DocsHandler) Templates(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Templates(r.URL.Query().Get("category")))
}

// Template handles GET /api/docs/templates/{templateID}
func (h *DocsHandler) Template(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Template(chi.URLParam(r, "templateID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, t)
}

// Upload handles POST /api/docs/upload (multipart: file, title, language, tags, author)
func (h *DocsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, err := formFile(w, r, "file", h.uploadLimit)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	doc, err := h.service.Upload(r.Context(), docs.UploadRequest{
		Filename: name,
		Data:     data,
		Title:    r.FormValue("title"),
		Language: r.FormValue("language"),
		Tags:     r.FormValue("tags"),
		Author:   r.FormValue("author"),
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusCreated, map[string]any{"status": "uploaded", "document": doc})
}

// Stats handles GET /api/docs/stats
func (h *DocsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

// Health handles GET /api/docs/health
func (h *DocsHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":              "healthy",
		"service":             "docs",
		"templates_available": len(h.service.Templates("")),
	}
	if n, err := h.service.Count(r.Context()); err != nil {
		h.logger.Warn("Document count failed", zap.Error(err))
		resp["status"] = "degraded"
	} else {
		resp["total_documents"] = n
	}
	api.Success(w, http.StatusOK, resp)
}
