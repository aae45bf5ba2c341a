package ai

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// DriftRequest is the body of POST /ai/maintenance/drift.
type DriftRequest struct {
	DocumentationContent string `json:"documentation_content" validate:"notblank"`
	CodeRepository       string `json:"code_repository"`
	CheckType            string `json:"check_type"`
}

// Issue is one problem found in a document.
type Issue struct {
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

// DriftResponse lists the issues found and what to do about them.
type DriftResponse struct {
	IssuesFound []Issue  `json:"issues_found"`
	Suggestions []string `json:"suggestions"`
	Confidence  float64  `json:"confidence"`
}

var requiredSections = []string{"installation", "usage", "api", "examples"}

// CheckDrift scans documentation text for stale or missing content.
func (s *Service) CheckDrift(ctx context.Context, req DriftRequest) (*DriftResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	issues, suggestions := ContentIssues(req.DocumentationContent)

	if s.model.IsAvailable() {
		suggestion, err := s.model.DriftSuggestion(ctx, req.DocumentationContent)
		if err != nil {
			s.logger.Warn("Model drift suggestion failed",
				zap.String("provider", s.model.ProviderName()),
				zap.Error(err),
			)
		} else if strings.TrimSpace(suggestion) != "" {
			suggestions = append(suggestions, "AI Suggestion: "+strings.TrimSpace(suggestion))
		}
	}

	confidence := 0.9
	if len(issues) > 0 {
		confidence = 0.8
	}
	return &DriftResponse{IssuesFound: issues, Suggestions: suggestions, Confidence: confidence}, nil
}

// ContentIssues returns the drift issues of a document and one suggestion
// per issue.
func ContentIssues(content string) ([]Issue, []string) {
	lower := strings.ToLower(content)
	issues := []Issue{}
	suggestions := []string{}

	if strings.Contains(lower, "deprecated") {
		issues = append(issues, Issue{Type: "deprecated_content", Severity: "high", Description: "Documentation contains deprecated information"})
		suggestions = append(suggestions, "Update deprecated references with current alternatives")
	}
	if strings.Contains(lower, "old version") || strings.Contains(lower, "legacy") {
		issues = append(issues, Issue{Type: "outdated_version", Severity: "medium", Description: "Documentation references old versions"})
		suggestions = append(suggestions, "Update version references to current releases")
	}

	var missing []string
	for _, section := range requiredSections {
		if !strings.Contains(lower, section) {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		list := strings.Join(missing, ", ")
		issues = append(issues, Issue{Type: "missing_sections", Severity: "medium", Description: "Missing documentation sections: " + list})
		suggestions = append(suggestions, "Add missing sections: "+list)
	}
	return issues, suggestions
}
