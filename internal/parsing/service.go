package parsing

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	maxWalkDepth     = 3
	maxFetchedFiles  = 50
	largeCodebase    = 50
	complexityLimit  = 10
	functionLimit    = 20
	coverageWarnings = 50
)

// Extensions maps file extensions to parser languages.
var Extensions = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
	".go":   "go",
	".rs":   "rust",
	".php":  "php",
	".rb":   "ruby",
}

var skippedDirs = map[string]bool{".git": true, "node_modules": true, "__pycache__": true, ".pytest_cache": true}

// Language describes a supported language.
type Language struct {
	Name       string   `json:"name"`
	ID         string   `json:"id"`
	Extensions []string `json:"extensions"`
	Parser     string   `json:"parser"`
}

var supportedLanguages = []Language{
	{Name: "Python", ID: "python", Extensions: []string{".py"}, Parser: "indentation"},
	{Name: "JavaScript", ID: "javascript", Extensions: []string{".js"}, Parser: "regex"},
	{Name: "TypeScript", ID: "typescript", Extensions: []string{".ts"}, Parser: "regex"},
	{Name: "Java", ID: "java", Extensions: []string{".java"}, Parser: "regex"},
	{Name: "C++", ID: "cpp", Extensions: []string{".cpp"}, Parser: "regex"},
	{Name: "C", ID: "c", Extensions: []string{".c"}, Parser: "regex"},
	{Name: "Go", ID: "go", Extensions: []string{".go"}, Parser: "regex"},
	{Name: "Rust", ID: "rust", Extensions: []string{".rs"}, Parser: "regex"},
	{Name: "PHP", ID: "php", Extensions: []string{".php"}, Parser: "regex"},
	{Name: "Ruby", ID: "ruby", Extensions: []string{".rb"}, Parser: "regex"},
}

// Parse outlines code in the given language and renders its documentation.
func Parse(code, language, filePath string) (*Structure, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	var (
		s   *Structure
		err error
	)
	if language == "python" {
		s, err = ParsePython(code)
		if err != nil {
			return nil, err
		}
	} else {
		s = ParseGeneric(code, language)
	}
	s.Documentation = renderDocumentation(s, filePath)
	return s, nil
}

// Suggestions returns improvement hints for a parsed file.
func Suggestions(s *Structure) []string {
	out := []string{}
	if s.ComplexityScore > complexityLimit {
		out = append(out, "Consider breaking down complex functions into smaller ones")
	}
	if len(s.Functions) > functionLimit {
		out = append(out, "Consider organizing code into modules")
	}
	documented := false
	for _, f := range s.Functions {
		if f.Docstring != "" {
			documented = true
			break
		}
	}
	if len(s.Functions) > 0 && !documented {
		out = append(out, "Add docstrings to functions for better documentation")
	}
	if _, ok := grammars[s.Language]; !ok && s.Language != "python" {
		out = append(out, "Consider using language-specific parsers for better analysis")
	}
	return out
}

func renderDocumentation(s *Structure, filePath string) string {
	var b strings.Builder
	title := "Code Documentation"
	if filePath != "" {
		title = filePath
	}
	fmt.Fprintf(&b, "# %s\n\n**Language:** %s\n**Complexity score:** %d\n", title, s.Language, s.ComplexityScore)

	if len(s.Classes) > 0 {
		b.WriteString("\n## Classes\n")
		for _, c := range s.Classes {
			fmt.Fprintf(&b, "\n### %s", c.Name)
			if len(c.Bases) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(c.Bases, ", "))
			}
			b.WriteString("\n")
			if c.Docstring != "" {
				fmt.Fprintf(&b, "%s\n", c.Docstring)
			}
			if len(c.Methods) > 0 {
				fmt.Fprintf(&b, "\nMethods: %s\n", strings.Join(c.Methods, ", "))
			}
		}
	}
	if len(s.Functions) > 0 {
		b.WriteString("\n## Functions\n")
		for _, f := range s.Functions {
			fmt.Fprintf(&b, "\n### `%s(%s)`\n", f.Name, strings.Join(f.Args, ", "))
			if f.Docstring != "" {
				fmt.Fprintf(&b, "%s\n", f.Docstring)
			} else {
				b.WriteString("No documentation.\n")
			}
		}
	}
	if len(s.Imports) > 0 {
		b.WriteString("\n## Dependencies\n\n")
		for _, imp := range s.Imports {
			fmt.Fprintf(&b, "- `%s`\n", imp)
		}
	}
	return b.String()
}

// Service implements the /api/parsing operations.
type Service struct {
	github    *providers.GitHub
	validator *validation.Validator
	logger    *zap.Logger
}

// NewService creates the parsing service. github may be nil, in which case
// repository analysis is unavailable.
func NewService(github *providers.GitHub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{github: github, validator: validation.New(), logger: logger}
}

// ParseRequest is the body of POST /parsing/parse-code.
type ParseRequest struct {
	Code     string `json:"code" validate:"notblank"`
	Language string `json:"language" validate:"notblank"`
	FilePath string `json:"file_path"`
}

// ParseResult reports a parse. Unparseable code gives Success false with a
// message rather than an error.
type ParseResult struct {
	Success     bool       `json:"success"`
	Data        *Structure `json:"data,omitempty"`
	Suggestions []string   `json:"suggestions"`
	Error       string     `json:"error,omitempty"`
}

// ParseCode outlines submitted code.
func (s *Service) ParseCode(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	st, err := Parse(req.Code, req.Language, req.FilePath)
	if err != nil {
		s.logger.Debug("Code parse failed", zap.String("language", req.Language), zap.Error(err))
		return &ParseResult{Success: false, Suggestions: []string{}, Error: "Parsing error: " + err.Error()}, nil
	}
	return &ParseResult{Success: true, Data: st, Suggestions: Suggestions(st)}, nil
}

// ParseUpload parses an uploaded file, choosing the language by extension.
func (s *Service) ParseUpload(ctx context.Context, filename string, content []byte) (*ParseResult, error) {
	if filename == "" {
		return nil, appErrors.NewValidation("No file provided")
	}
	ext := strings.ToLower(filepath.Ext(filename))
	language, ok := Extensions[ext]
	if !ok {
		return nil, appErrors.NewValidation(fmt.Sprintf("Unsupported file type '%s'", ext))
	}
	if !utf8.Valid(content) {
		return nil, appErrors.NewValidation("File must be UTF-8 text")
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, appErrors.NewValidation("File is empty")
	}
	return s.ParseCode(ctx, ParseRequest{Code: string(content), Language: language, FilePath: filename})
}

// SwaggerRequest is the body of POST /parsing/parse-swagger.
type SwaggerRequest struct {
	Content string `json:"content" validate:"notblank,max=1048576"`
	Format  string `json:"format" validate:"omitempty,oneof=yaml json"`
}

// SwaggerResult is the parsed API with its markdown reference.
type SwaggerResult struct {
	Success       bool       `json:"success"`
	Endpoints     []Endpoint `json:"endpoints"`
	Models        []Model    `json:"models"`
	BaseURL       string     `json:"base_url"`
	Version       string     `json:"version"`
	Title         string     `json:"title"`
	Documentation string     `json:"documentation"`
	Error         string     `json:"error,omitempty"`
}

// ParseSwagger parses an OpenAPI or Swagger document.
func (s *Service) ParseSwagger(ctx context.Context, req SwaggerRequest) (*SwaggerResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	spec, err := ParseOpenAPI(req.Content, req.Format)
	if err != nil {
		return &SwaggerResult{
			Success:   false,
			Endpoints: []Endpoint{},
			Models:    []Model{},
			Error:     "Swagger parsing error: " + err.Error(),
		}, nil
	}
	return &SwaggerResult{
		Success:       true,
		Endpoints:     spec.Endpoints,
		Models:        spec.Models,
		BaseURL:       spec.BaseURL,
		Version:       spec.Version,
		Title:         spec.Title,
		Documentation: spec.Markdown(),
	}, nil
}

// SourceFile is a file submitted for analysis.
type SourceFile struct {
	Path    string `json:"path" validate:"notblank"`
	Content string `json:"content"`
}

// AnalysisRequest is the body of POST /parsing/code-analysis.
type AnalysisRequest struct {
	RepositoryURL   string       `json:"repository_url" validate:"omitempty,githuburl"`
	Files           []SourceFile `json:"files" validate:"dive"`
	LanguageFilters []string     `json:"language_filters"`
}

// FileSummary is the analysis of one file.
type FileSummary struct {
	Path       string `json:"path"`
	Language   string `json:"language"`
	Functions  int    `json:"functions"`
	Classes    int    `json:"classes"`
	Documented int    `json:"documented"`
	Complexity int    `json:"complexity"`
	Error      string `json:"error,omitempty"`
}

// ComplexitySummary aggregates complexity scores.
type ComplexitySummary struct {
	TotalComplexity int     `json:"total_complexity"`
	AvgComplexity   float64 `json:"avg_complexity"`
	MaxComplexity   int     `json:"max_complexity"`
	FilesAnalyzed   int     `json:"files_analyzed"`
}

// AnalysisResult is the outcome of CodeAnalysis.
type AnalysisResult struct {
	TotalFiles            int               `json:"total_files"`
	Languages             map[string]int    `json:"languages"`
	TotalFunctions        int               `json:"total_functions"`
	TotalClasses          int               `json:"total_classes"`
	DocumentationCoverage float64           `json:"documentation_coverage"`
	ComplexitySummary     ComplexitySummary `json:"complexity_summary"`
	Files                 []FileSummary     `json:"files"`
	Recommendations       []string          `json:"recommendations"`
}

// CodeAnalysis analyses a GitHub repository or a set of submitted files.
func (s *Service) CodeAnalysis(ctx context.Context, req AnalysisRequest) (*AnalysisResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.RepositoryURL == "" && len(req.Files) == 0 {
		return nil, appErrors.NewValidation("repository_url or files is required")
	}

	files := req.Files
	if req.RepositoryURL != "" {
		remote, err := s.repositoryFiles(ctx, req.RepositoryURL)
		if err != nil {
			return nil, err
		}
		files = remote
	}

	filters := make(map[string]bool)
	for _, f := range req.LanguageFilters {
		filters[strings.ToLower(f)] = true
	}

	res := &AnalysisResult{Languages: map[string]int{}, Files: []FileSummary{}}
	documented := 0
	for _, f := range files {
		language, ok := Extensions[strings.ToLower(filepath.Ext(f.Path))]
		if !ok || (len(filters) > 0 && !filters[language]) {
			continue
		}
		res.TotalFiles++
		res.Languages[language]++
		if strings.TrimSpace(f.Content) == "" {
			continue
		}

		summary := FileSummary{Path: f.Path, Language: language}
		st, err := Parse(f.Content, language, f.Path)
		if err != nil {
			summary.Error = err.Error()
			res.Files = append(res.Files, summary)
			continue
		}
		summary.Functions = len(st.Functions)
		summary.Classes = len(st.Classes)
		summary.Documented = st.Documented()
		summary.Complexity = st.ComplexityScore
		res.Files = append(res.Files, summary)

		res.TotalFunctions += summary.Functions
		res.TotalClasses += summary.Classes
		documented += summary.Documented
		res.ComplexitySummary.TotalComplexity += summary.Complexity
		res.ComplexitySummary.MaxComplexity = max(res.ComplexitySummary.MaxComplexity, summary.Complexity)
		res.ComplexitySummary.FilesAnalyzed++
	}

	if n := res.ComplexitySummary.FilesAnalyzed; n > 0 {
		res.ComplexitySummary.AvgComplexity = round2(float64(res.ComplexitySummary.TotalComplexity) / float64(n))
	}
	if total := res.TotalFunctions + res.TotalClasses; total > 0 {
		res.DocumentationCoverage = round2(float64(documented) / float64(total) * 100)
	}
	res.Recommendations = analysisRecommendations(res)
	return res, nil
}

func analysisRecommendations(res *AnalysisResult) []string {
	var out []string
	if res.TotalFiles == 0 {
		out = append(out, "No code files detected - check repository structure")
	}
	if res.TotalFunctions+res.TotalClasses > 0 && res.DocumentationCoverage < coverageWarnings {
		out = append(out, "Consider adding more docstrings to improve documentation coverage")
	}
	if res.ComplexitySummary.AvgComplexity > complexityLimit {
		out = append(out, "High complexity detected - consider refactoring complex functions")
	}
	if res.TotalFiles > largeCodebase {
		out = append(out, "Large codebase - consider organizing into modules")
	}
	if len(out) == 0 {
		out = append(out, "Code analysis completed successfully")
	}
	return out
}

// repositoryFiles walks a repository to maxWalkDepth and fetches the code
// files it finds, up to maxFetchedFiles.
func (s *Service) repositoryFiles(ctx context.Context, url string) ([]SourceFile, error) {
	if s.github == nil {
		return nil, appErrors.NewUnavailable("GitHub client not configured", nil)
	}
	owner, repo, err := providers.ParseRepoURL(url)
	if err != nil {
		return nil, err
	}

	root, err := s.github.List(ctx, owner, repo, "")
	if err != nil {
		return nil, appErrors.NewUnavailable("Failed to read repository contents", err)
	}
	entries := s.walk(ctx, owner, repo, root, 0)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var files []SourceFile
	fetched := 0
	for _, e := range entries {
		if _, ok := Extensions[strings.ToLower(filepath.Ext(e.Name))]; !ok {
			continue
		}
		f := SourceFile{Path: e.Path}
		if fetched < maxFetchedFiles {
			content, err := s.github.File(ctx, owner, repo, e.Path)
			if err != nil {
				s.logger.Warn("Skipping unreadable file", zap.String("path", e.Path), zap.Error(err))
			} else {
				f.Content = content
				fetched++
			}
		}
		files = append(files, f)
	}
	s.logger.Info("Repository walked",
		zap.String("repository", owner+"/"+repo),
		zap.Int("files", len(files)),
		zap.Int("fetched", fetched),
	)
	return files, nil
}

func (s *Service) walk(ctx context.Context, owner, repo string, entries []providers.ContentEntry, depth int) []providers.ContentEntry {
	var files []providers.ContentEntry
	for _, e := range entries {
		switch e.Type {
		case "file":
			files = append(files, e)
		case "dir":
			if depth >= maxWalkDepth || skippedDirs[e.Name] {
				continue
			}
			children, err := s.github.List(ctx, owner, repo, e.Path)
			if err != nil {
				s.logger.Warn("Skipping unreadable directory", zap.String("path", e.Path), zap.Error(err))
				continue
			}
			files = append(files, s.walk(ctx, owner, repo, children, depth+1)...)
		}
	}
	return files
}

// SupportedLanguages lists the parseable languages and the extension map.
func (s *Service) SupportedLanguages() map[string]any {
	return map[string]any{
		"languages":  supportedLanguages,
		"extensions": Extensions,
	}
}

// Health reports the parsers available.
func (s *Service) Health() map[string]any {
	parsers := make([]string, 0, len(supportedLanguages))
	for _, l := range supportedLanguages {
		parsers = append(parsers, l.ID)
	}
	return map[string]any{
		"status":            "healthy",
		"service":           "parsing",
		"parsers":           parsers,
		"swagger":           true,
		"github_analysis":   s.github != nil,
		"github_token":      s.github != nil && s.github.HasToken(),
		"max_walk_depth":    maxWalkDepth,
		"max_fetched_files": maxFetchedFiles,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
