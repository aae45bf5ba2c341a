package onboarding

import (
	"context"
	"slices"
	"sync"
	"time"
)

// UserProgress is one user's state in one tutorial.
type UserProgress struct {
	UserID         string             `json:"user_id"`
	TutorialID     string             `json:"tutorial_id"`
	CompletedSteps []string           `json:"completed_steps"`
	CurrentStep    string             `json:"current_step"`
	StartDate      time.Time          `json:"start_date"`
	LastActivity   time.Time          `json:"last_activity"`
	QuizScores     map[string]float64 `json:"quiz_scores"`
}

// ProgressStore persists tutorial progress.
type ProgressStore interface {
	Get(ctx context.Context, userID, tutorialID string) (*UserProgress, bool, error)
	// CompleteStep marks step done. Completing a step twice changes only
	// the activity time and quiz score.
	CompleteStep(ctx context.Context, userID, tutorialID, stepID string, quizScore *float64, at time.Time) (*UserProgress, error)
	Users(ctx context.Context) (int, error)
}

// MemoryProgressStore keeps progress in memory, keyed user_tutorial.
type MemoryProgressStore struct {
	mu       sync.RWMutex
	progress map[string]*UserProgress
}

// NewMemoryProgressStore creates an empty store.
func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{progress: make(map[string]*UserProgress)}
}

func progressKey(userID, tutorialID string) string {
	return userID + "_" + tutorialID
}

func (m *MemoryProgressStore) Get(ctx context.Context, userID, tutorialID string) (*UserProgress, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.progress[progressKey(userID, tutorialID)]
	if !ok {
		return nil, false, nil
	}
	return clone(p), true, nil
}

func (m *MemoryProgressStore) CompleteStep(ctx context.Context, userID, tutorialID, stepID string, quizScore *float64, at time.Time) (*UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := progressKey(userID, tutorialID)
	p, ok := m.progress[key]
	if !ok {
		p = &UserProgress{
			UserID:         userID,
			TutorialID:     tutorialID,
			CompletedSteps: []string{},
			StartDate:      at,
			QuizScores:     map[string]float64{},
		}
		m.progress[key] = p
	}
	if !slices.Contains(p.CompletedSteps, stepID) {
		p.CompletedSteps = append(p.CompletedSteps, stepID)
	}
	if quizScore != nil {
		p.QuizScores[stepID] = *quizScore
	}
	p.CurrentStep = stepID
	p.LastActivity = at
	return clone(p), nil
}

// Users counts distinct users with any progress.
func (m *MemoryProgressStore) Users(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make(map[string]struct{})
	for _, p := range m.progress {
		users[p.UserID] = struct{}{}
	}
	return len(users), nil
}

func clone(p *UserProgress) *UserProgress {
	c := *p
	c.CompletedSteps = slices.Clone(p.CompletedSteps)
	c.QuizScores = make(map[string]float64, len(p.QuizScores))
	for k, v := range p.QuizScores {
		c.QuizScores[k] = v
	}
	return &c
}
