package handlers

import (
	"net/http"
	"strconv"

	"smartdocs-backend/internal/onboarding"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OnboardingHandler serves /api/onboarding.
type OnboardingHandler struct {
	service *onboarding.Service
	logger  *zap.Logger
}

// NewOnboardingHandler creates an onboarding handler.
func NewOnboardingHandler(service *onboarding.Service, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{service: service, logger: nopIfNil(logger)}
}

// Routes registers the onboarding routes.
func (h *OnboardingHandler) Routes(r chi.Router) {
	r.Get("/tutorials", h.Tutorials)
	r.Get("/tutorials/{tutorialID}", h.Tutorial)
	r.Get("/tutorials/{tutorialID}/progress", h.Progress)
	r.Post("/tutorials/{tutorialID}/complete-step", h.CompleteStep)
	r.Get("/guides", h.Guides)
	r.Get("/guides/{guideID}", h.Guide)
	r.Post("/recommendations", serveJSON(h.logger, h.service.Recommend))
	r.Get("/health", h.Health)
}

// Tutorials handles GET /api/onboarding/tutorials?difficulty=
func (h *OnboardingHandler) Tutorials(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Tutorials(r.URL.Query().Get("difficulty")))
}

// Tutorial handles GET /api/onboarding/tutorials/{tutorialID}
func (h *OnboardingHandler) Tutorial(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Tutorial(chi.URLParam(r, "tutorialID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, t)
}

// Progress handles GET /api/onboarding/tutorials/{tutorialID}/progress?user_id=
func (h *OnboardingHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Progress(r.Context(), r.URL.Query().Get("user_id"), chi.URLParam(r, "tutorialID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, p)
}

// CompleteStep handles POST /api/onboarding/tutorials/{tutorialID}/complete-step.
// The step may be given as a JSON body or as user_id, step_id and quiz_score
// query parameters.
func (h *OnboardingHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	var req onboarding.CompleteStepRequest
	q := r.URL.Query()
	if q.Get("step_id") != "" {
		req.UserID, req.StepID = q.Get("user_id"), q.Get("step_id")
		if raw := q.Get("quiz_score"); raw != "" {
			score, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				api.Error(w, http.StatusBadRequest, "quiz_score must be a number")
				return
			}
			req.QuizScore = &score
		}
	} else if !decode(w, r, &req) {
		return
	}

	result, err := h.service.CompleteStep(r.Context(), chi.URLParam(r, "tutorialID"), req)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}

// Guides handles GET /api/onboarding/guides?type=
func (h *OnboardingHandler) Guides(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Guides(r.URL.Query().Get("type")))
}

// Guide handles GET /api/onboarding/guides/{guideID}
func (h *OnboardingHandler) Guide(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.Guide(chi.URLParam(r, "guideID"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, g)
}

// Health handles GET /api/onboarding/health
func (h *OnboardingHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.service.Health(r.Context()))
}
