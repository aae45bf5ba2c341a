package ai

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"smartdocs-backend/internal/mcp"
	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/translation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	maxAnalyzedFiles = 3
	filePreviewChars = 500
	codePreviewChars = 200
)

var codeExtensions = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
	".go":   "go",
}

var setupExtensions = map[string]bool{".md": true, ".txt": true, ".yml": true, ".yaml": true}

// GitHubRequest is the body of POST /ai/generate-from-github.
type GitHubRequest struct {
	GitHubURL       string `json:"github_url" validate:"notblank,githuburl"`
	ProjectType     string `json:"project_type"`
	IncludeExamples *bool  `json:"include_examples"`
	Language        string `json:"language" validate:"omitempty,langcode"`
}

// RepositoryInfo is the repository summary returned with generated docs.
type RepositoryInfo struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name,omitempty"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Topics      []string `json:"topics,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// GitHubResponse carries the generated documentation set.
type GitHubResponse struct {
	Readme              string         `json:"readme"`
	APIDocs             string         `json:"api_docs"`
	SetupGuide          string         `json:"setup_guide"`
	TotalFilesProcessed int            `json:"total_files_processed"`
	RepositoryInfo      RepositoryInfo `json:"repository_info"`
	Language            string         `json:"language"`
	Method              string         `json:"method"`
}

type analyzedFile struct {
	name     string
	path     string
	language string
	preview  string
	size     int
	purpose  string
	context  *mcp.CodeContext
}

type repoListing struct {
	readme string
	code   []providers.ContentEntry
	setup  []providers.ContentEntry
	files  map[string]bool
	total  int
}

// GenerateFromGitHub reads a repository's root and produces a README, API
// documentation and a setup guide.
func (s *Service) GenerateFromGitHub(ctx context.Context, req GitHubRequest) (*GitHubResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if s.github == nil {
		return nil, appErrors.NewUnavailable("GitHub client not configured", nil)
	}
	owner, repo, err := providers.ParseRepoURL(req.GitHubURL)
	if err != nil {
		return nil, err
	}
	projectType := req.ProjectType
	if projectType == "" {
		projectType = "api"
	}
	language := req.Language
	if language == "" {
		language = "en"
	}
	includeExamples := req.IncludeExamples == nil || *req.IncludeExamples

	info := s.repositoryInfo(ctx, owner, repo)

	entries, err := s.github.List(ctx, owner, repo, "")
	if err != nil {
		return nil, appErrors.NewUnavailable("Failed to read repository contents", err)
	}
	listing := s.classify(ctx, owner, repo, entries)
	analyses := s.analyze(ctx, owner, repo, listing.code)

	resp := &GitHubResponse{
		Readme:              buildReadme(info, projectType, listing, analyses),
		APIDocs:             buildAPIDocs(listing, analyses, includeExamples),
		SetupGuide:          buildSetupGuide(req.GitHubURL, repo, projectType, listing, analyses),
		TotalFilesProcessed: listing.total,
		RepositoryInfo:      info,
		Language:            "en",
		Method:              "analysis",
	}

	if s.model.IsAvailable() {
		overview, err := s.model.Generate(ctx, overviewPrompt(info, projectType, analyses), 300)
		if err != nil {
			s.logger.Warn("Model overview failed",
				zap.String("provider", s.model.ProviderName()),
				zap.Error(err),
			)
		} else if strings.TrimSpace(overview) != "" {
			resp.Readme += "\n## Project Summary\n\n" + strings.TrimSpace(overview) + "\n"
			resp.Method = s.model.ProviderName()
		}
	}

	if language != "en" {
		s.translateDocs(ctx, resp, language)
	}
	return resp, nil
}

func (s *Service) repositoryInfo(ctx context.Context, owner, repo string) RepositoryInfo {
	meta, err := s.github.Repo(ctx, owner, repo)
	if err != nil {
		s.logger.Warn("Repository metadata unavailable",
			zap.String("repository", owner+"/"+repo),
			zap.Error(err),
		)
		return RepositoryInfo{Name: repo, Description: "Repository information", Language: "Unknown"}
	}
	info := RepositoryInfo{
		Name:        meta.Name,
		FullName:    meta.FullName,
		Description: meta.Description,
		Language:    meta.Language,
		Stars:       meta.Stars,
		Forks:       meta.Forks,
		Topics:      meta.Topics,
		URL:         meta.HTMLURL,
	}
	if info.Name == "" {
		info.Name = repo
	}
	if info.Language == "" {
		info.Language = "Unknown"
	}
	return info
}

func (s *Service) classify(ctx context.Context, owner, repo string, entries []providers.ContentEntry) repoListing {
	listing := repoListing{files: make(map[string]bool)}
	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		listing.total++
		name := strings.ToLower(e.Name)
		listing.files[name] = true
		ext := filepath.Ext(name)

		switch {
		case strings.Contains(name, "readme"):
			content, err := s.github.File(ctx, owner, repo, e.Path)
			if err != nil {
				s.logger.Warn("README unreadable", zap.String("path", e.Path), zap.Error(err))
				continue
			}
			listing.readme = content
		case codeExtensions[ext] != "":
			listing.code = append(listing.code, e)
		case setupExtensions[ext]:
			listing.setup = append(listing.setup, e)
		}
	}
	return listing
}

func (s *Service) analyze(ctx context.Context, owner, repo string, code []providers.ContentEntry) []analyzedFile {
	var out []analyzedFile
	for _, e := range code {
		if len(out) == maxAnalyzedFiles {
			break
		}
		content, err := s.github.File(ctx, owner, repo, e.Path)
		if err != nil || content == "" {
			s.logger.Debug("Skipping unreadable file", zap.String("path", e.Path), zap.Error(err))
			continue
		}
		lang := codeExtensions[filepath.Ext(strings.ToLower(e.Name))]
		af := analyzedFile{
			name:     e.Name,
			path:     e.Path,
			language: lang,
			preview:  preview(content, filePreviewChars),
			size:     len(content),
			purpose:  FilePurpose(content),
		}
		if s.mcpClient.Enabled() {
			cc := s.mcpClient.CodeContext(ctx, e.Path, lang)
			af.context = &cc
		}
		out = append(out, af)
	}
	return out
}

func (s *Service) translateDocs(ctx context.Context, resp *GitHubResponse, language string) {
	if s.translator == nil {
		return
	}
	translate := func(text string) (string, bool) {
		res, err := s.translator.Translate(ctx, translation.TranslateRequest{
			Content:        text,
			SourceLanguage: "en",
			TargetLanguage: language,
		})
		if err != nil {
			s.logger.Warn("Documentation translation failed", zap.String("language", language), zap.Error(err))
			return text, false
		}
		if res.Method == translation.MethodPassthrough {
			return text, false
		}
		return res.TranslatedContent, true
	}

	readme, ok1 := translate(resp.Readme)
	apiDocs, ok2 := translate(resp.APIDocs)
	setup, ok3 := translate(resp.SetupGuide)
	if ok1 || ok2 || ok3 {
		resp.Readme, resp.APIDocs, resp.SetupGuide = readme, apiDocs, setup
		resp.Language = language
	}
}

// FilePurpose guesses what a source file is for from its content.
func FilePurpose(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "def main(") || strings.Contains(lower, "__main__") || strings.Contains(lower, "func main("):
		return "Main application entry point"
	case strings.Contains(lower, "test") && (strings.Contains(lower, "def test_") || strings.Contains(lower, "import unittest") || strings.Contains(lower, "func test")):
		return "Test file with test cases"
	case strings.Contains(lower, "class") && (strings.Contains(lower, "def __init__") || strings.Contains(lower, "constructor(")):
		return "Class definition module"
	case strings.Contains(lower, "flask") || strings.Contains(lower, "fastapi") || strings.Contains(lower, "@app.") || strings.Contains(lower, "express("):
		return "Web API/server module"
	case strings.Contains(lower, "import") && (strings.Contains(lower, "def ") || strings.Contains(lower, "func ") || strings.Contains(lower, "function ")):
		return "Utility module with functions"
	case strings.Contains(lower, "config") || strings.Contains(lower, "settings"):
		return "Configuration module"
	default:
		return "Source module"
	}
}

// FileTypeDescription describes a file by its name.
func FileTypeDescription(name string) string {
	lower := strings.ToLower(name)
	switch filepath.Ext(lower) {
	case ".py":
		switch {
		case strings.Contains(lower, "main"):
			return "Main Python script"
		case strings.Contains(lower, "test"):
			return "Test file"
		}
		return "Python module"
	case ".go":
		if strings.HasSuffix(lower, "_test.go") {
			return "Go test file"
		}
		return "Go source file"
	case ".js":
		return "JavaScript file"
	case ".java":
		return "Java source file"
	case ".c", ".cpp":
		return "C/C++ source file"
	case ".md":
		return "Markdown documentation"
	case ".yml", ".yaml":
		return "Configuration file"
	default:
		return "Source code file"
	}
}

func overviewPrompt(info RepositoryInfo, projectType string, analyses []analyzedFile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short overview of the %s project %q (%s). %s\n\nFiles:\n",
		projectType, info.Name, info.Language, info.Description)
	for _, a := range analyses {
		fmt.Fprintf(&b, "- %s: %s\n", a.name, a.purpose)
	}
	b.WriteString("\nOverview:")
	return b.String()
}

func buildReadme(info RepositoryInfo, projectType string, listing repoListing, analyses []analyzedFile) string {
	var b strings.Builder
	desc := info.Description
	if desc == "" {
		desc = "A " + info.Language + " project"
	}
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", info.Name, desc)
	b.WriteString("## Overview\n\n")
	fmt.Fprintf(&b, "This repository contains **%d code files** and appears to be a **%s** project.\n\n", len(listing.code), projectType)
	b.WriteString("### Repository Analysis\n")
	fmt.Fprintf(&b, "- **Primary Language**: %s\n", info.Language)
	fmt.Fprintf(&b, "- **Total Files**: %d\n", listing.total)
	fmt.Fprintf(&b, "- **Code Files**: %d\n", len(listing.code))
	fmt.Fprintf(&b, "- **Documentation Files**: %d\n", len(listing.setup))
	if info.Stars > 0 || info.Forks > 0 {
		fmt.Fprintf(&b, "- **Stars**: %d, **Forks**: %d\n", info.Stars, info.Forks)
	}

	if len(analyses) > 0 {
		b.WriteString("\n### File Structure\n")
		for _, a := range analyses {
			fmt.Fprintf(&b, "- **%s** (%d bytes) - %s\n", a.name, a.size, a.purpose)
		}
	}

	if listing.readme != "" {
		b.WriteString("\n## Existing README\n\n")
		b.WriteString(preview(strings.TrimSpace(listing.readme), 1000))
		b.WriteString("\n")
	}
	return b.String()
}

func buildAPIDocs(listing repoListing, analyses []analyzedFile, includeExamples bool) string {
	var b strings.Builder
	b.WriteString("# API Documentation\n\n## Code Analysis\n\n")
	if len(listing.code) == 0 {
		b.WriteString("No source files were found at the repository root.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "This repository contains **%d code files**:\n\n", len(listing.code))
	for _, e := range listing.code {
		fmt.Fprintf(&b, "- **%s** - %s\n", e.Name, FileTypeDescription(e.Name))
	}

	for _, a := range analyses {
		fmt.Fprintf(&b, "\n### `%s`\n\n**Purpose**: %s\n**Size**: %d bytes\n", a.name, a.purpose, a.size)
		if a.context != nil {
			if a.context.Complexity != "" {
				fmt.Fprintf(&b, "**Complexity**: %s\n", a.context.Complexity)
			}
			if len(a.context.Recommendations) > 0 {
				b.WriteString("\n**Recommendations**:\n")
				for _, r := range a.context.Recommendations {
					fmt.Fprintf(&b, "- %s\n", r)
				}
			}
		}
		if includeExamples {
			fmt.Fprintf(&b, "\n**Code Preview**:\n```%s\n%s...\n```\n", a.language, preview(a.preview, codePreviewChars))
		}
		b.WriteString("\n---\n")
	}
	return b.String()
}

type setupRecipe struct {
	manifest string
	prereq   string
	install  string
	run      string
}

var setupRecipes = []setupRecipe{
	{"requirements.txt", "Python 3.8+", "pip install -r requirements.txt", "python main.py"},
	{"package.json", "Node.js 18+", "npm install", "npm start"},
	{"go.mod", "Go 1.21+", "go mod download", "go run ."},
	{"pom.xml", "Java 17+ and Maven", "mvn install", "mvn exec:java"},
}

func buildSetupGuide(url, repo, projectType string, listing repoListing, analyses []analyzedFile) string {
	recipe := setupRecipe{prereq: "The toolchain for the project's language"}
	for _, r := range setupRecipes {
		if listing.files[r.manifest] {
			recipe = r
			break
		}
	}

	var b strings.Builder
	b.WriteString("# Setup Guide\n\n## Quick Start\n\n### Prerequisites\n")
	fmt.Fprintf(&b, "- %s\n- Git for cloning\n\n### Installation\n\n", recipe.prereq)
	fmt.Fprintf(&b, "1. **Clone the repository**\n   ```bash\n   git clone %s\n   cd %s\n   ```\n\n", url, repo)
	if recipe.install != "" {
		fmt.Fprintf(&b, "2. **Install dependencies** (from %s)\n   ```bash\n   %s\n   ```\n\n", recipe.manifest, recipe.install)
		fmt.Fprintf(&b, "3. **Run the application**\n   ```bash\n   %s\n   ```\n", recipe.run)
	}

	b.WriteString("\n### Usage\n\n")
	if len(analyses) == 0 {
		fmt.Fprintf(&b, "- Project type: %s\n", projectType)
	}
	for _, a := range analyses {
		fmt.Fprintf(&b, "- **%s**: %s\n", a.name, a.purpose)
	}
	return b.String()
}
