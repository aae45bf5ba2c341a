package docs

import (
	"sort"

	appErrors "smartdocs-backend/pkg/errors"
)

// Template is a starting point for a new document. Placeholders in Content
// are written {name} and listed in Variables.
type Template struct {
	ID          string   `json:"template_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Variables   []string `json:"variables"`
	Category    string   `json:"category"`
}

var builtinTemplates = map[string]Template{
	"api-doc": {
		ID:          "api-doc",
		Name:        "API Documentation",
		Description: "Standard template for API documentation",
		Content: `# {title}

## Overview
{overview}

## Authentication
{authentication}

## Endpoints

### {endpoint_name}
**Method:** {method}
**Path:** {path}

**Description:** {description}

**Parameters:**
{parameters}

**Response:**
` + "```json\n{response_example}\n```" + `

## Error Codes
{error_codes}
`,
		Variables: []string{"title", "overview", "authentication", "endpoint_name", "method", "path", "description", "parameters", "response_example", "error_codes"},
		Category:  "api",
	},
	"readme": {
		ID:          "readme",
		Name:        "README Template",
		Description: "Standard README template for projects",
		Content: `# {project_name}

{description}

## Features
{features}

## Installation
{installation}

## Usage
{usage}

## API Reference
{api_reference}

## Contributing
{contributing}

## License
{license}
`,
		Variables: []string{"project_name", "description", "features", "installation", "usage", "api_reference", "contributing", "license"},
		Category:  "project",
	},
	"tutorial": {
		ID:          "tutorial",
		Name:        "Tutorial Template",
		Description: "Step-by-step tutorial template",
		Content: `# {tutorial_title}

## Prerequisites
{prerequisites}

## Overview
{overview}

## Step 1: {step1_title}
{step1_content}

## Step 2: {step2_title}
{step2_content}

## Step 3: {step3_title}
{step3_content}

## Summary
{summary}

## Next Steps
{next_steps}
`,
		Variables: []string{"tutorial_title", "prerequisites", "overview", "step1_title", "step1_content", "step2_title", "step2_content", "step3_title", "step3_content", "summary", "next_steps"},
		Category:  "tutorial",
	},
}

// Templates returns the built-in templates ordered by id, optionally
// filtered by category.
func (s *Service) Templates(category string) []Template {
	out := make([]Template, 0, len(builtinTemplates))
	for _, t := range builtinTemplates {
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Template returns one template.
func (s *Service) Template(id string) (Template, error) {
	t, ok := builtinTemplates[id]
	if !ok {
		return Template{}, appErrors.NewNotFound("Template not found")
	}
	return t, nil
}
