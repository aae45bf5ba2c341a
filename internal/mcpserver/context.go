// Package mcpserver is the companion context service. It serves the same
// context logic over HTTP for the API and as MCP tools over stdio.
package mcpserver

import (
	"fmt"
	"strings"

	mcpctx "smartdocs-backend/internal/mcp"
)

// Version is reported by /health and the MCP handshake.
const Version = "1.0.0"

// ServiceName is reported by /health.
const ServiceName = "SmartDocs MCP Server"

// ContextFor returns the fixed context for a context type.
func ContextFor(contextType string) mcpctx.Context {
	switch contextType {
	case mcpctx.ContextSummarization:
		return mcpctx.Context{
			Context:    "Documentation summarization with technical focus and clear structure",
			Confidence: 0.9,
			Keywords:   []string{"documentation", "summary", "technical", "concise", "structured"},
			Style:      "professional",
			Focus:      "clarity and brevity",
		}
	case mcpctx.ContextQA:
		return mcpctx.Context{
			Context:    "Technical Q&A with detailed explanations and practical examples",
			Confidence: 0.8,
			Keywords:   []string{"question", "answer", "technical", "detailed", "practical"},
			Style:      "helpful",
			Focus:      "comprehensive explanations",
		}
	case mcpctx.ContextCodeAnalysis:
		return mcpctx.Context{
			Context:    "Code analysis with best practices, patterns, and improvement suggestions",
			Confidence: 0.85,
			Keywords:   []string{"code", "analysis", "best practices", "patterns", "improvements"},
			Style:      "technical",
			Focus:      "quality and maintainability",
		}
	case mcpctx.ContextDocGeneration:
		return mcpctx.Context{
			Context:    "Documentation generation with comprehensive coverage and examples",
			Confidence: 0.9,
			Keywords:   []string{"documentation", "generation", "comprehensive", "examples"},
			Style:      "comprehensive",
			Focus:      "completeness and usability",
		}
	default:
		return mcpctx.Context{
			Context:    "General documentation context with balanced approach",
			Confidence: 0.7,
			Keywords:   []string{"documentation", "general", "comprehensive", "balanced"},
			Style:      "standard",
			Focus:      "general applicability",
		}
	}
}

// Enhance prefixes base with the style and focus of c.
func Enhance(base string, c mcpctx.Context) string {
	style := c.Style
	if style == "" {
		style = "standard"
	}
	focus := c.Focus
	if focus == "" {
		focus = "general"
	}
	return fmt.Sprintf("[Enhanced with %s context - Focus: %s] %s", style, focus, base)
}

var languageConventions = map[string][]string{
	"python":     {"PEP 8", "type hints", "docstrings"},
	"javascript": {"ES6+", "async/await", "JSDoc"},
	"java":       {"Java conventions", "Javadoc", "SOLID principles"},
	"go":         {"gofmt", "effective Go", "godoc comments"},
}

// CodeContextFor describes a source file.
func CodeContextFor(filePath, language string) mcpctx.CodeContext {
	if filePath == "" {
		filePath = "unknown"
	}
	if language == "" {
		language = "unknown"
	}
	conventions, ok := languageConventions[strings.ToLower(language)]
	if !ok {
		conventions = []string{"standard conventions"}
	}
	return mcpctx.CodeContext{
		Structure:    fmt.Sprintf("Well-organized %s code structure for %s", language, filePath),
		Dependencies: []string{"standard library", "common patterns", "best practices"},
		Complexity:   "medium",
		Language:     language,
		Patterns:     []string{"clean code", "best practices", "maintainable"},
		Recommendations: []string{
			"add comprehensive comments",
			"improve variable naming",
			"follow language conventions",
			"add error handling",
		},
		LanguageSpecific: conventions,
	}
}
