package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"smartdocs-backend/internal/service/llm"

	"go.uber.org/zap"
)

// EnhanceRequest is the body of POST /ai/enhance.
type EnhanceRequest struct {
	Content string `json:"content" validate:"notblank"`
}

// EnhanceResponse carries the enhanced document.
type EnhanceResponse struct {
	EnhancedContent  string  `json:"enhanced_content"`
	OriginalLength   int     `json:"original_length"`
	EnhancedLength   int     `json:"enhanced_length"`
	ChangePercentage float64 `json:"change_percentage"`
	Method           string  `json:"method"`
}

const minEnhancedLines = 10

// Enhance expands a draft. A model answer is used only when it is longer
// than the draft; otherwise rule-based expansion applies.
func (s *Service) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)

	enhanced, method := "", "rules"
	if s.model.IsAvailable() {
		out, err := s.model.Generate(ctx, llm.EnhancePrompt(content), 1000)
		if err != nil {
			s.logger.Warn("Model enhancement failed, using rules",
				zap.String("provider", s.model.ProviderName()),
				zap.Error(err),
			)
		} else if len(out) > len(content) {
			enhanced, method = out, s.model.ProviderName()
		}
	}
	if enhanced == "" {
		enhanced = EnhanceByRules(content)
	}

	originalLength := utf8.RuneCountInString(content)
	enhancedLength := utf8.RuneCountInString(enhanced)
	resp := &EnhanceResponse{
		EnhancedContent: enhanced,
		OriginalLength:  originalLength,
		EnhancedLength:  enhancedLength,
		Method:          method,
	}
	if originalLength > 0 {
		resp.ChangePercentage = round(float64(enhancedLength-originalLength)/float64(originalLength)*100, 2)
	}
	return resp, nil
}

// EnhanceByRules expands titles, API introductions and endpoint mentions and
// appends starter sections to short drafts.
func EnhanceByRules(content string) string {
	var out []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		lower := strings.ToLower(line)

		switch {
		case line == "":
			out = append(out, "")
		case strings.HasPrefix(line, "# "):
			title := strings.TrimSpace(line[2:])
			out = append(out,
				"# "+title,
				"",
				"Welcome to the "+title+" documentation. This guide explains the main concepts and shows how to use each feature.",
				"",
			)
		case strings.HasPrefix(line, "## "):
			out = append(out, line, "")
		case strings.HasPrefix(lower, "this is") && strings.Contains(lower, "api"):
			out = append(out,
				"## Overview",
				"",
				line+" It exposes a consistent interface that developers can integrate into their applications.",
				"",
				"### Key Features",
				"- RESTful design",
				"- JSON responses",
				"- Consistent error handling",
				"- Authentication and rate limiting",
				"",
			)
		case strings.Contains(lower, "endpoints"):
			out = append(out,
				"## API Endpoints",
				"",
				line+" Each endpoint is described below:",
				"",
				"### Available Endpoints",
				"- `GET /api/data` - Retrieve information",
				"- `POST /api/data` - Create new resources",
				"- `PUT /api/data/{id}` - Update existing resources",
				"- `DELETE /api/data/{id}` - Remove resources",
				"",
				"### Example Request",
				"```bash",
				"curl -X GET 'https://api.example.com/api/data' \\",
				"  -H 'Content-Type: application/json' \\",
				"  -H 'Authorization: Bearer YOUR_TOKEN'",
				"```",
				"",
			)
		default:
			out = append(out, line)
		}
	}

	if len(out) < minEnhancedLines {
		out = append(out, starterSections...)
	}
	return strings.Join(out, "\n")
}

var starterSections = []string{
	"",
	"## Getting Started",
	"",
	"### Prerequisites",
	"- Basic understanding of REST APIs",
	"- An API key or authentication token",
	"- An HTTP client such as curl or Postman",
	"",
	"### Quick Start",
	"1. Obtain your API credentials",
	"2. Make your first API call",
	"3. Process the response",
	"",
	"## Authentication",
	"",
	"All API requests require an API key:",
	"",
	"```bash",
	"Authorization: Bearer YOUR_API_KEY",
	"```",
	"",
	"## Error Handling",
	"",
	"The API returns standard HTTP status codes:",
	"",
	"- `200` - Success",
	"- `400` - Bad Request",
	"- `401` - Unauthorized",
	"- `404` - Not Found",
	"- `500` - Internal Server Error",
}
