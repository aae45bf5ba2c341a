package onboarding

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// Tutorial difficulties.
const (
	Beginner     = "beginner"
	Intermediate = "intermediate"
	Advanced     = "advanced"
)

// CodeExample is a snippet shown in a tutorial step.
type CodeExample struct {
	Language    string `yaml:"language" json:"language"`
	Code        string `yaml:"code" json:"code"`
	Description string `yaml:"description" json:"description"`
}

// QuizQuestion is a multiple-choice check at the end of a step.
type QuizQuestion struct {
	Question      string   `yaml:"question" json:"question"`
	Options       []string `yaml:"options" json:"options"`
	CorrectAnswer int      `yaml:"correct_answer" json:"correct_answer"`
}

// Step is one unit of a tutorial.
type Step struct {
	ID            string         `yaml:"step_id" json:"step_id"`
	Title         string         `yaml:"title" json:"title"`
	Description   string         `yaml:"description" json:"description"`
	Content       string         `yaml:"content" json:"content"`
	CodeExamples  []CodeExample  `yaml:"code_examples" json:"code_examples"`
	QuizQuestions []QuizQuestion `yaml:"quiz_questions" json:"quiz_questions"`
	EstimatedTime int            `yaml:"estimated_time" json:"estimated_time"`
}

// Tutorial is an ordered set of steps.
type Tutorial struct {
	ID                 string   `yaml:"tutorial_id" json:"tutorial_id"`
	Title              string   `yaml:"title" json:"title"`
	Description        string   `yaml:"description" json:"description"`
	Difficulty         string   `yaml:"difficulty" json:"difficulty"`
	Steps              []Step   `yaml:"steps" json:"steps"`
	Prerequisites      []string `yaml:"prerequisites" json:"prerequisites"`
	TotalEstimatedTime int      `yaml:"total_estimated_time" json:"total_estimated_time"`
	Tags               []string `yaml:"tags" json:"tags"`
}

// HasStep reports whether id names one of the tutorial's steps.
func (t *Tutorial) HasStep(id string) bool {
	for _, s := range t.Steps {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Guide is an interactive walkthrough or checklist.
type Guide struct {
	ID           string           `yaml:"guide_id" json:"guide_id"`
	Title        string           `yaml:"title" json:"title"`
	Type         string           `yaml:"type" json:"type"`
	Content      []map[string]any `yaml:"content" json:"content"`
	Dependencies []string         `yaml:"dependencies" json:"dependencies"`
}

// Catalog is the onboarding content, in declaration order.
type Catalog struct {
	Tutorials []Tutorial `yaml:"tutorials"`
	Guides    []Guide    `yaml:"guides"`
}

// LoadCatalog decodes the embedded content.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(contentYAML)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode onboarding content: %w", err)
	}
	seen := make(map[string]bool)
	for i := range c.Tutorials {
		t := &c.Tutorials[i]
		if t.ID == "" || seen[t.ID] {
			return nil, fmt.Errorf("tutorial %d has an empty or duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
		if t.TotalEstimatedTime == 0 {
			for _, s := range t.Steps {
				t.TotalEstimatedTime += s.EstimatedTime
			}
		}
	}
	for i, g := range c.Guides {
		if g.ID == "" || seen[g.ID] {
			return nil, fmt.Errorf("guide %d has an empty or duplicate id %q", i, g.ID)
		}
		seen[g.ID] = true
	}
	return &c, nil
}

func (c *Catalog) tutorial(id string) (*Tutorial, bool) {
	for i := range c.Tutorials {
		if c.Tutorials[i].ID == id {
			return &c.Tutorials[i], true
		}
	}
	return nil, false
}

func (c *Catalog) guide(id string) (*Guide, bool) {
	for i := range c.Guides {
		if c.Guides[i].ID == id {
			return &c.Guides[i], true
		}
	}
	return nil, false
}
