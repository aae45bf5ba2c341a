package onboarding

import (
	"context"
	"testing"

	appErrors "smartdocs-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(nil, nil, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	require.Len(t, c.Tutorials, 2)
	gs, _ := c.tutorial("getting-started")
	require.NotNil(t, gs)
	assert.Equal(t, Beginner, gs.Difficulty)
	assert.Equal(t, 23, gs.TotalEstimatedTime)
	require.Len(t, gs.Steps, 3)
	assert.Equal(t, []string{"intro", "first-doc", "ai-features"}, []string{gs.Steps[0].ID, gs.Steps[1].ID, gs.Steps[2].ID})
	assert.Contains(t, gs.Steps[1].CodeExamples[0].Code, "def hello_world():")
	assert.Equal(t, 1, gs.Steps[0].QuizQuestions[0].CorrectAnswer)

	adv, _ := c.tutorial("advanced-features")
	require.NotNil(t, adv)
	assert.Equal(t, 35, adv.TotalEstimatedTime)
	assert.Equal(t, []string{"getting-started"}, adv.Prerequisites)

	require.Len(t, c.Guides, 2)
	qs, _ := c.guide("quick-start")
	require.NotNil(t, qs)
	assert.Equal(t, "walkthrough", qs.Type)
	assert.Len(t, qs.Content, 4)
	api, _ := c.guide("api-documentation")
	require.NotNil(t, api)
	assert.Equal(t, false, api.Content[0]["completed"])
}

func TestParseCatalogRejectsDuplicates(t *testing.T) {
	_, err := parseCatalog([]byte("tutorials:\n  - tutorial_id: a\n  - tutorial_id: a\n"))
	assert.Error(t, err)

	c, err := parseCatalog([]byte("tutorials:\n  - tutorial_id: a\n    steps:\n      - step_id: s1\n        estimated_time: 4\n      - step_id: s2\n        estimated_time: 6\n"))
	require.NoError(t, err)
	assert.Equal(t, 10, c.Tutorials[0].TotalEstimatedTime)
}

func TestTutorialsAndGuides(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, 2, svc.Tutorials("").Total)
	beginner := svc.Tutorials("Beginner")
	require.Equal(t, 1, beginner.Total)
	assert.Equal(t, "getting-started", beginner.Tutorials[0].ID)
	assert.Equal(t, 0, svc.Tutorials("advanced").Total)

	_, err := svc.Tutorial("missing")
	assert.True(t, appErrors.IsNotFound(err))

	assert.Equal(t, 2, svc.Guides("").Total)
	assert.Equal(t, 1, svc.Guides("checklist").Total)
	g, err := svc.Guide("api-documentation")
	require.NoError(t, err)
	assert.Equal(t, []string{"quick-start"}, g.Dependencies)
	_, err = svc.Guide("missing")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestProgress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Progress(ctx, "u1", "getting-started")
	require.NoError(t, err)
	assert.Equal(t, "intro", p.CurrentStep)
	assert.Equal(t, "intro", p.NextStep)
	assert.Equal(t, 3, p.TotalSteps)
	assert.Equal(t, 23, p.EstimatedCompletion)
	assert.Zero(t, p.ProgressPercentage)

	score := 90.0
	res, err := svc.CompleteStep(ctx, "getting-started", CompleteStepRequest{UserID: "u1", StepID: "first-doc", QuizScore: &score})
	require.NoError(t, err)
	assert.Equal(t, "step completed", res.Status)
	assert.Equal(t, "first-doc", res.Progress.CurrentStep)
	assert.Equal(t, "intro", res.Progress.NextStep)
	assert.Equal(t, 33.33, res.Progress.ProgressPercentage)
	assert.Equal(t, 20, res.Progress.EstimatedCompletion)
	assert.Equal(t, 90.0, res.Progress.QuizScores["first-doc"])

	// Completing the same step again changes nothing.
	_, err = svc.CompleteStep(ctx, "getting-started", CompleteStepRequest{UserID: "u1", StepID: "first-doc"})
	require.NoError(t, err)
	p, err = svc.Progress(ctx, "u1", "getting-started")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedSteps)

	for _, step := range []string{"intro", "ai-features"} {
		_, err = svc.CompleteStep(ctx, "getting-started", CompleteStepRequest{UserID: "u1", StepID: step})
		require.NoError(t, err)
	}
	p, err = svc.Progress(ctx, "u1", "getting-started")
	require.NoError(t, err)
	assert.Equal(t, 100.0, p.ProgressPercentage)
	assert.Empty(t, p.NextStep)
	assert.Zero(t, p.EstimatedCompletion)

	h := svc.Health(ctx)
	assert.Equal(t, 1, h["total_users"])
	assert.Equal(t, 2, h["tutorials_available"])
}

func TestCompleteStepErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CompleteStep(ctx, "getting-started", CompleteStepRequest{UserID: "u1", StepID: "drift-detection"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.CompleteStep(ctx, "missing", CompleteStepRequest{UserID: "u1", StepID: "intro"})
	assert.True(t, appErrors.IsNotFound(err))

	_, err = svc.CompleteStep(ctx, "getting-started", CompleteStepRequest{StepID: "intro"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Progress(ctx, "", "getting-started")
	assert.True(t, appErrors.IsValidation(err))
}

func TestRecommend(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       RecommendationRequest
		tutorials []string
		guides    []string
		path      []string
		minutes   int
	}{
		{
			name:      "beginner",
			req:       RecommendationRequest{ExperienceLevel: "beginner"},
			tutorials: []string{"getting-started"},
			guides:    []string{"quick-start"},
			path:      []string{"getting-started"},
			minutes:   23,
		},
		{
			name:      "beginner interested in automation",
			req:       RecommendationRequest{ExperienceLevel: "beginner", Interests: []string{"automation", "api"}},
			tutorials: []string{"getting-started", "advanced-features"},
			guides:    []string{"quick-start", "api-documentation"},
			path:      []string{"getting-started", "advanced-features"},
			minutes:   58,
		},
		{
			name:      "intermediate",
			req:       RecommendationRequest{ExperienceLevel: "intermediate", Interests: []string{"api"}},
			tutorials: []string{"advanced-features"},
			guides:    []string{"api-documentation"},
			path:      []string{"advanced-features"},
			minutes:   35,
		},
		{
			name:      "default level",
			req:       RecommendationRequest{},
			tutorials: []string{"getting-started"},
			guides:    []string{"quick-start"},
			path:      []string{"getting-started"},
			minutes:   23,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := svc.Recommend(ctx, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.tutorials, rec.RecommendedTutorials)
			assert.Equal(t, tt.guides, rec.RecommendedGuides)
			assert.Equal(t, tt.path, rec.LearningPath)
			assert.Equal(t, tt.minutes, rec.EstimatedTime)
			assert.Empty(t, rec.Context)
		})
	}

	_, err := svc.Recommend(ctx, RecommendationRequest{ExperienceLevel: "wizard"})
	assert.True(t, appErrors.IsValidation(err))
}
