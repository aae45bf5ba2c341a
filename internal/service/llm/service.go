// Package llm provides AI-powered text processing for documentation:
// summarization, generation and translation behind a pluggable provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Tasks understood by providers.
const (
	TaskGeneration    = "text-generation"
	TaskSummarization = "summarization"
	TaskTranslation   = "translation"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("LLM service is not available")

// Provider defines the interface for hosted model providers (Hugging Face, mocks).
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
	Name() string
}

// CompletionOptions configures a completion request.
type CompletionOptions struct {
	Task        string  `json:"task"`
	MaxLength   int     `json:"max_length"`
	MinLength   int     `json:"min_length"`
	SourceLang  string  `json:"source_lang,omitempty"`
	TargetLang  string  `json:"target_lang,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Service wraps a provider with task-specific prompts.
type Service struct {
	provider Provider
}

// NewService creates a new LLM service with the specified provider.
func NewService(provider Provider) *Service {
	return &Service{provider: provider}
}

// IsAvailable returns true if the LLM service is available
func (s *Service) IsAvailable() bool {
	return s != nil && s.provider != nil && s.provider.IsAvailable()
}

// ProviderName names the backing provider, or "none".
func (s *Service) ProviderName() string {
	if !s.IsAvailable() {
		return "none"
	}
	return s.provider.Name()
}

// Summarize returns an abstractive summary within the given length bounds.
func (s *Service) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	if !s.IsAvailable() {
		return "", ErrUnavailable
	}
	out, err := s.provider.Complete(ctx, truncate(text, 2000), CompletionOptions{
		Task:      TaskSummarization,
		MinLength: minLength,
		MaxLength: maxLength,
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Generate continues prompt up to maxLength tokens.
func (s *Service) Generate(ctx context.Context, prompt string, maxLength int) (string, error) {
	if !s.IsAvailable() {
		return "", ErrUnavailable
	}
	out, err := s.provider.Complete(ctx, prompt, CompletionOptions{
		Task:        TaskGeneration,
		MaxLength:   maxLength,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Translate translates text between two language codes.
func (s *Service) Translate(ctx context.Context, text, source, target string) (string, error) {
	if !s.IsAvailable() {
		return "", ErrUnavailable
	}
	out, err := s.provider.Complete(ctx, text, CompletionOptions{
		Task:       TaskTranslation,
		SourceLang: source,
		TargetLang: target,
		MaxLength:  512,
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// TranslateByPrompt asks a generation model for a translation. The reply is
// accepted only when it differs from the input.
func (s *Service) TranslateByPrompt(ctx context.Context, text, targetName string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text to %s:\n%s\nTranslation:", targetName, text)
	out, err := s.Generate(ctx, prompt, len(text)*2+50)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(strings.TrimPrefix(out, "Translation:"))
	if out == "" || strings.EqualFold(out, strings.TrimSpace(text)) {
		return "", errors.New("model returned no translation")
	}
	return out, nil
}

// DriftSuggestion asks the model for one maintenance recommendation.
func (s *Service) DriftSuggestion(ctx context.Context, content string) (string, error) {
	prompt := "Analyze this documentation for potential improvements: " + truncate(content, 500)
	return s.Generate(ctx, prompt, 200)
}

// EnhancePrompt builds the prompt used to enhance a document.
func EnhancePrompt(content string) string {
	return "Improve and expand the following technical documentation with clear structure, " +
		"examples and explanations:\n\n" + content + "\n\nEnhanced documentation:"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
