// Package visualization renders code structure as Mermaid flow diagrams and
// API call graphs, and turns release notes into changelogs.
package visualization

import (
	"context"
	"errors"
	"strings"

	"smartdocs-backend/internal/docs"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

var errNoSource = errors.New("code or document_id is required")

// DocumentSource resolves saved documents used as diagram input.
type DocumentSource interface {
	Get(ctx context.Context, id string) (*docs.Document, error)
}

// Service implements the /api/visualizations operations.
type Service struct {
	documents DocumentSource
	validator *validation.Validator
	logger    *zap.Logger
}

// NewService creates a visualization service. documents may be nil, in which
// case requests naming a document fail as unavailable.
func NewService(documents DocumentSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{documents: documents, validator: validation.New(), logger: logger}
}

// source returns the text to visualize. A document id takes precedence over
// inline content.
func (s *Service) source(ctx context.Context, content, documentID, title string) (string, string, error) {
	if documentID == "" {
		return content, title, nil
	}
	if s.documents == nil {
		return "", "", appErrors.NewUnavailable("Document store is not configured", nil)
	}
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return "", "", appErrors.NewValidation("Document has no content: " + documentID)
	}
	s.logger.Debug("Using saved document", zap.String("doc_id", documentID))
	return doc.Content, doc.Title, nil
}

// Health reports the available generators.
func (s *Service) Health() map[string]any {
	return map[string]any{
		"status":     "healthy",
		"service":    "visualizations",
		"generators": []string{"flow-diagram", "api-call-graph", "changelog"},
		"formats":    []string{FormatSemantic, FormatChronological, FormatFeature},
		"diagrams":   []string{Flowchart, Sequence},
	}
}
