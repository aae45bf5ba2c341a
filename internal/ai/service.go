// Package ai implements the AI-assisted documentation features: summarization,
// enhancement, question answering, generation from GitHub repositories and
// content drift checks. Every feature answers without a model; the hosted
// model and the context service only improve the answer when configured.
package ai

import (
	"context"

	"smartdocs-backend/internal/docs"
	"smartdocs-backend/internal/mcp"
	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/service/llm"
	"smartdocs-backend/internal/translation"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

// DocumentSource resolves saved documents for question answering.
type DocumentSource interface {
	Get(ctx context.Context, id string) (*docs.Document, error)
}

// Translator translates generated documentation.
type Translator interface {
	Translate(ctx context.Context, req translation.TranslateRequest) (*translation.TranslateResult, error)
}

// Service implements the /api/ai operations.
type Service struct {
	model      *llm.Service
	mcpClient  *mcp.Client
	github     *providers.GitHub
	documents  DocumentSource
	translator Translator
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewService creates the AI service. Any collaborator except the validator
// may be nil; the feature then uses its offline fallback.
func NewService(model *llm.Service, contextClient *mcp.Client, github *providers.GitHub, documents DocumentSource, translator Translator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		model:      model,
		mcpClient:  contextClient,
		github:     github,
		documents:  documents,
		translator: translator,
		validator:  validation.New(),
		logger:     logger,
	}
}

// TranslateRequest is the body of POST /ai/translate.
type TranslateRequest struct {
	Content        string `json:"content" validate:"notblank"`
	TargetLanguage string `json:"target_language" validate:"omitempty,langcode"`
}

// TranslateResponse is the answer of Translate.
type TranslateResponse struct {
	Original       string  `json:"original"`
	Translated     string  `json:"translated"`
	TargetLanguage string  `json:"target_language"`
	Confidence     float64 `json:"confidence"`
	Method         string  `json:"method"`
}

// Translate delegates to the multilingual translator with source detection.
func (s *Service) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if s.translator == nil {
		return nil, appErrors.NewUnavailable("Translation service not configured", nil)
	}
	target := req.TargetLanguage
	if target == "" {
		target = "es"
	}

	res, err := s.translator.Translate(ctx, translation.TranslateRequest{
		Content:        req.Content,
		SourceLanguage: "auto",
		TargetLanguage: target,
	})
	if err != nil {
		return nil, err
	}
	return &TranslateResponse{
		Original:       req.Content,
		Translated:     res.TranslatedContent,
		TargetLanguage: res.TargetLanguage,
		Confidence:     res.Confidence,
		Method:         res.Method,
	}, nil
}

// Health reports which backends are configured.
func (s *Service) Health() map[string]any {
	mode := "fallback"
	if s.model.IsAvailable() {
		mode = "working"
	}
	return map[string]any{
		"status":                 "healthy",
		"service":                "ai",
		"provider":               s.model.ProviderName(),
		"huggingface_configured": s.model.IsAvailable(),
		"mcp_enabled":            s.mcpClient.Enabled(),
		"github_token":           s.github != nil && s.github.HasToken(),
		"features": map[string]string{
			"github_integration": "working",
			"ai_summarization":   mode,
			"content_enhance":    mode,
			"qa_system":          mode,
			"drift_detection":    "working",
			"translation":        "working",
		},
	}
}
