// Package mcp is the client for the companion context service and the wire
// types it shares with the server in internal/mcpserver.
package mcp

// Context types understood by the context service.
const (
	ContextSummarization = "summarization"
	ContextQA            = "qa"
	ContextCodeAnalysis  = "code_analysis"
	ContextDocGeneration = "doc_generation"
	ContextTranslation   = "translation"
	ContextOnboarding    = "onboarding_recommendation"
	ContextGeneral       = "general"
)

// Context is prompt augmentation returned for a query.
type Context struct {
	Context    string   `json:"context"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
	Style      string   `json:"style,omitempty"`
	Focus      string   `json:"focus,omitempty"`

	// Fallback is set when the answer did not come from the service.
	Fallback bool `json:"-"`
}

// CodeContext describes a source file for documentation generation.
type CodeContext struct {
	Structure        string   `json:"structure"`
	Dependencies     []string `json:"dependencies"`
	Complexity       string   `json:"complexity"`
	Language         string   `json:"language,omitempty"`
	Patterns         []string `json:"patterns"`
	Recommendations  []string `json:"recommendations,omitempty"`
	LanguageSpecific []string `json:"language_specific,omitempty"`
}

// ContextRequest is the body of POST /context.
type ContextRequest struct {
	Query            string `json:"query" validate:"notblank"`
	ContextType      string `json:"context_type"`
	MaxContextLength int    `json:"max_context_length,omitempty"`
}

// EnhanceRequest is the body of POST /enhance.
type EnhanceRequest struct {
	Query           string  `json:"query"`
	BaseResponse    string  `json:"base_response" validate:"notblank"`
	Context         Context `json:"context"`
	EnhancementType string  `json:"enhancement_type,omitempty"`
}

// EnhanceResponse is the answer of POST /enhance.
type EnhanceResponse struct {
	EnhancedResponse string `json:"enhanced_response"`
}

// CodeContextRequest is the body of POST /code-context.
type CodeContextRequest struct {
	FilePath    string `json:"file_path"`
	Language    string `json:"language"`
	ContextType string `json:"context_type,omitempty"`
}

// FallbackContext is the static context used when the service is disabled or
// unreachable.
func FallbackContext(contextType string) Context {
	var c Context
	switch contextType {
	case ContextSummarization:
		c = Context{Context: "Documentation summarization context", Confidence: 0.8, Keywords: []string{"documentation", "summary", "technical"}}
	case ContextQA:
		c = Context{Context: "Q&A context for technical documentation", Confidence: 0.7, Keywords: []string{"question", "answer", "help"}}
	case ContextCodeAnalysis:
		c = Context{Context: "Code analysis and documentation context", Confidence: 0.6, Keywords: []string{"code", "analysis", "structure"}}
	default:
		c = Context{Context: "General documentation context", Confidence: 0.5, Keywords: []string{"documentation", "technical", "guide"}}
	}
	c.Fallback = true
	return c
}

// FallbackCodeContext is the static code context.
func FallbackCodeContext(filePath, language string) CodeContext {
	return CodeContext{
		Structure:    "Code structure for " + filePath,
		Dependencies: []string{"standard library", "common patterns"},
		Complexity:   "medium",
		Language:     language,
		Patterns:     []string{"standard", "conventional"},
	}
}
