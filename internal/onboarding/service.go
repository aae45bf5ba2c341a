// Package onboarding serves tutorials, interactive guides and learning
// recommendations, and tracks tutorial progress per user.
package onboarding

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"smartdocs-backend/internal/mcp"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

// minutesPerStep estimates the time left in a started tutorial.
const minutesPerStep = 10

// TutorialList is the response of GET /onboarding/tutorials.
type TutorialList struct {
	Tutorials []Tutorial `json:"tutorials"`
	Total     int        `json:"total"`
}

// GuideList is the response of GET /onboarding/guides.
type GuideList struct {
	Guides []Guide `json:"guides"`
	Total  int     `json:"total"`
}

// Progress summarizes a user's position in a tutorial.
type Progress struct {
	TutorialID          string             `json:"tutorial_id"`
	ProgressPercentage  float64            `json:"progress_percentage"`
	CompletedSteps      int                `json:"completed_steps"`
	TotalSteps          int                `json:"total_steps"`
	CurrentStep         string             `json:"current_step"`
	NextStep            string             `json:"next_step"`
	EstimatedCompletion int                `json:"estimated_completion"`
	QuizScores          map[string]float64 `json:"quiz_scores,omitempty"`
}

// CompleteStepRequest marks a tutorial step as done.
type CompleteStepRequest struct {
	UserID    string   `json:"user_id" validate:"notblank"`
	StepID    string   `json:"step_id" validate:"notblank"`
	QuizScore *float64 `json:"quiz_score" validate:"omitempty,min=0,max=100"`
}

// CompleteStepResult is the response of POST /tutorials/{id}/complete-step.
type CompleteStepResult struct {
	Status   string   `json:"status"`
	StepID   string   `json:"step_id"`
	Progress Progress `json:"progress"`
}

// RecommendationRequest describes a learner.
type RecommendationRequest struct {
	UserID          string   `json:"user_id"`
	ExperienceLevel string   `json:"experience_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Interests       []string `json:"interests"`
}

// Recommendations is a personalized learning plan.
type Recommendations struct {
	UserID               string   `json:"user_id,omitempty"`
	RecommendedTutorials []string `json:"recommended_tutorials"`
	RecommendedGuides    []string `json:"recommended_guides"`
	LearningPath         []string `json:"learning_path"`
	EstimatedTime        int      `json:"estimated_time"`
	Context              string   `json:"context,omitempty"`
}

// Service implements the /api/onboarding operations.
type Service struct {
	catalog   *Catalog
	progress  ProgressStore
	mcpClient *mcp.Client
	validator *validation.Validator
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates an onboarding service over catalog. A nil catalog loads
// the embedded content and a nil store keeps progress in memory.
func NewService(catalog *Catalog, progress ProgressStore, contextClient *mcp.Client, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		var err error
		if catalog, err = LoadCatalog(); err != nil {
			return nil, err
		}
	}
	if progress == nil {
		progress = NewMemoryProgressStore()
	}
	return &Service{
		catalog:   catalog,
		progress:  progress,
		mcpClient: contextClient,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Tutorials lists tutorials, optionally filtered by difficulty.
func (s *Service) Tutorials(difficulty string) *TutorialList {
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	out := []Tutorial{}
	for _, t := range s.catalog.Tutorials {
		if difficulty == "" || t.Difficulty == difficulty {
			out = append(out, t)
		}
	}
	return &TutorialList{Tutorials: out, Total: len(out)}
}

// Tutorial returns one tutorial.
func (s *Service) Tutorial(id string) (*Tutorial, error) {
	t, ok := s.catalog.tutorial(id)
	if !ok {
		return nil, appErrors.NewNotFound("Tutorial not found")
	}
	return t, nil
}

// Progress reports how far userID is in a tutorial. A user who has not
// started sees the first step and the full estimated time.
func (s *Service) Progress(ctx context.Context, userID, tutorialID string) (*Progress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.NewValidation("user_id is required")
	}
	t, err := s.Tutorial(tutorialID)
	if err != nil {
		return nil, err
	}
	p, ok, err := s.progress.Get(ctx, userID, tutorialID)
	if err != nil {
		return nil, appErrors.NewInternal("Failed to read progress", err)
	}
	if !ok {
		first := ""
		if len(t.Steps) > 0 {
			first = t.Steps[0].ID
		}
		return &Progress{
			TutorialID:          t.ID,
			TotalSteps:          len(t.Steps),
			CurrentStep:         first,
			NextStep:            first,
			EstimatedCompletion: t.TotalEstimatedTime,
		}, nil
	}
	return summarize(t, p), nil
}

// CompleteStep records a finished step. Unknown steps are rejected.
func (s *Service) CompleteStep(ctx context.Context, tutorialID string, req CompleteStepRequest) (*CompleteStepResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	t, err := s.Tutorial(tutorialID)
	if err != nil {
		return nil, err
	}
	if !t.HasStep(req.StepID) {
		return nil, appErrors.NewValidation("Invalid step ID: " + req.StepID)
	}
	p, err := s.progress.CompleteStep(ctx, req.UserID, tutorialID, req.StepID, req.QuizScore, s.now().UTC())
	if err != nil {
		return nil, appErrors.NewInternal("Failed to save progress", err)
	}
	s.logger.Info("Tutorial step completed",
		zap.String("user_id", req.UserID),
		zap.String("tutorial_id", tutorialID),
		zap.String("step_id", req.StepID),
	)
	return &CompleteStepResult{Status: "step completed", StepID: req.StepID, Progress: *summarize(t, p)}, nil
}

func summarize(t *Tutorial, p *UserProgress) *Progress {
	total := len(t.Steps)
	done := 0
	next := ""
	for _, step := range t.Steps {
		if slices.Contains(p.CompletedSteps, step.ID) {
			done++
		} else if next == "" {
			next = step.ID
		}
	}
	pct := 0.0
	if total > 0 {
		pct = math.Round(float64(done)/float64(total)*10000) / 100
	}
	return &Progress{
		TutorialID:          t.ID,
		ProgressPercentage:  pct,
		CompletedSteps:      done,
		TotalSteps:          total,
		CurrentStep:         p.CurrentStep,
		NextStep:            next,
		EstimatedCompletion: (total - done) * minutesPerStep,
		QuizScores:          p.QuizScores,
	}
}

// Guides lists guides, optionally filtered by type.
func (s *Service) Guides(guideType string) *GuideList {
	guideType = strings.ToLower(strings.TrimSpace(guideType))
	out := []Guide{}
	for _, g := range s.catalog.Guides {
		if guideType == "" || g.Type == guideType {
			out = append(out, g)
		}
	}
	return &GuideList{Guides: out, Total: len(out)}
}

// Guide returns one guide.
func (s *Service) Guide(id string) (*Guide, error) {
	g, ok := s.catalog.guide(id)
	if !ok {
		return nil, appErrors.NewNotFound("Guide not found")
	}
	return g, nil
}

// Recommend builds a learning plan from experience level and interests.
// Tutorials in the learning path follow their prerequisites.
func (s *Service) Recommend(ctx context.Context, req RecommendationRequest) (*Recommendations, error) {
	req.ExperienceLevel = strings.ToLower(strings.TrimSpace(req.ExperienceLevel))
	if req.ExperienceLevel == "" {
		req.ExperienceLevel = Beginner
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var picks []string
	switch req.ExperienceLevel {
	case Beginner:
		picks = append(picks, "getting-started", "quick-start")
	default:
		picks = append(picks, "advanced-features", "api-documentation")
	}
	for _, interest := range req.Interests {
		switch strings.ToLower(strings.TrimSpace(interest)) {
		case "api":
			picks = append(picks, "api-documentation")
		case "automation", "maintenance":
			picks = append(picks, "advanced-features")
		}
	}

	out := &Recommendations{
		UserID:               req.UserID,
		RecommendedTutorials: []string{},
		RecommendedGuides:    []string{},
		LearningPath:         []string{},
	}
	for _, id := range picks {
		if _, ok := s.catalog.tutorial(id); ok && !slices.Contains(out.RecommendedTutorials, id) {
			out.RecommendedTutorials = append(out.RecommendedTutorials, id)
		}
		if _, ok := s.catalog.guide(id); ok && !slices.Contains(out.RecommendedGuides, id) {
			out.RecommendedGuides = append(out.RecommendedGuides, id)
		}
	}
	for _, id := range out.RecommendedTutorials {
		out.LearningPath = s.appendWithPrerequisites(out.LearningPath, id, req.ExperienceLevel)
	}
	for _, id := range out.LearningPath {
		t, _ := s.catalog.tutorial(id)
		out.EstimatedTime += t.TotalEstimatedTime
	}

	if s.mcpClient.Enabled() {
		query := fmt.Sprintf("User skill level: %s, interests: %s", req.ExperienceLevel, strings.Join(req.Interests, ", "))
		if mctx := s.mcpClient.GetContext(ctx, query, mcp.ContextOnboarding); !mctx.Fallback {
			out.Context = mctx.Context
		}
	}
	return out, nil
}

// appendWithPrerequisites adds id after its prerequisites. Beginners are
// routed through every prerequisite; other levels skip beginner tutorials.
func (s *Service) appendWithPrerequisites(path []string, id, level string) []string {
	if slices.Contains(path, id) {
		return path
	}
	t, ok := s.catalog.tutorial(id)
	if !ok {
		return path
	}
	for _, pre := range t.Prerequisites {
		if p, ok := s.catalog.tutorial(pre); ok && (level == Beginner || p.Difficulty != Beginner) {
			path = s.appendWithPrerequisites(path, pre, level)
		}
	}
	return append(path, id)
}

// Health reports catalog size and active users.
func (s *Service) Health(ctx context.Context) map[string]any {
	users, err := s.progress.Users(ctx)
	status := "healthy"
	if err != nil {
		s.logger.Warn("Failed to count onboarding users", zap.Error(err))
		status = "degraded"
	}
	return map[string]any{
		"status":              status,
		"service":             "onboarding",
		"tutorials_available": len(s.catalog.Tutorials),
		"guides_available":    len(s.catalog.Guides),
		"total_users":         users,
	}
}
