package maintenance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// CodeChange describes one changed file.
type CodeChange struct {
	FilePath      string `json:"file_path" validate:"notblank"`
	ChangeType    string `json:"change_type" validate:"required,oneof=added modified removed deleted"`
	ComponentName string `json:"component_name"`
}

// SuggestRequest is the body of POST /maintenance/suggest-updates.
type SuggestRequest struct {
	CodeChanges []CodeChange `json:"code_changes" validate:"required,min=1,dive"`
}

// UnmarshalJSON accepts either {"code_changes": [...]} or a bare array of
// changes.
func (r *SuggestRequest) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.CodeChanges)
	}
	type plain SuggestRequest
	return json.Unmarshal(data, (*plain)(r))
}

// SuggestedChange is an edit to make in a documentation file.
type SuggestedChange struct {
	Type       string  `json:"type"`
	Section    string  `json:"section"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// UpdateSuggestion groups the edits for one documentation file.
type UpdateSuggestion struct {
	DocFile          string            `json:"doc_file"`
	SourceFile       string            `json:"source_file"`
	SuggestedChanges []SuggestedChange `json:"suggested_changes"`
	Priority         string            `json:"priority"`
	EstimatedEffort  string            `json:"estimated_effort"`
}

// SuggestResponse is the response of POST /maintenance/suggest-updates.
type SuggestResponse struct {
	Suggestions []UpdateSuggestion `json:"suggestions"`
	Total       int                `json:"total"`
}

// SuggestUpdates proposes documentation edits for a set of code changes.
func (s *Service) SuggestUpdates(req SuggestRequest) (*SuggestResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	out := &SuggestResponse{Suggestions: []UpdateSuggestion{}}
	for _, c := range req.CodeChanges {
		out.Suggestions = append(out.Suggestions, SuggestForChange(c))
	}
	out.Total = len(out.Suggestions)
	return out, nil
}

// SuggestForChange maps one code change to documentation edits. Added code
// needs new sections, modified code needs updates and removed code needs its
// sections dropped.
func SuggestForChange(c CodeChange) UpdateSuggestion {
	file := strings.ReplaceAll(c.FilePath, "\\", "/")
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	component := c.ComponentName
	if component == "" {
		component = base
	}

	var change SuggestedChange
	priority := "medium"
	switch c.ChangeType {
	case "added":
		change = SuggestedChange{
			Type:       "add_section",
			Section:    component,
			Content:    fmt.Sprintf("Add documentation for new functionality in %s", file),
			Confidence: 0.9,
		}
		priority = "high"
	case "modified":
		change = SuggestedChange{
			Type:       "update_section",
			Section:    component,
			Content:    fmt.Sprintf("Update documentation to reflect changes in %s", file),
			Confidence: 0.7,
		}
	default:
		change = SuggestedChange{
			Type:       "remove_section",
			Section:    component,
			Content:    fmt.Sprintf("Remove documentation for deleted functionality in %s", file),
			Confidence: 0.8,
		}
	}

	changes := []SuggestedChange{change}
	return UpdateSuggestion{
		DocFile:          path.Join(defaultDocsPath, base+".md"),
		SourceFile:       file,
		SuggestedChanges: changes,
		Priority:         priority,
		EstimatedEffort:  fmt.Sprintf("%d minutes", 5*len(changes)),
	}
}
