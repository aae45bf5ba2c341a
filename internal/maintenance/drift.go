package maintenance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"smartdocs-backend/internal/events"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Drift classifications.
const (
	DriftMissing  = "missing"
	DriftOutdated = "outdated"
)

const (
	outdatedAfter    = 24 * time.Hour
	reviewThreshold  = 0.3
	defaultDocsPath  = "docs"
	maxDriftHistory  = 100
	defaultHistories = 10
)

var (
	defaultCodeExtensions = []string{".py", ".js", ".ts", ".java", ".cpp", ".c", ".go", ".rs", ".php", ".rb"}
	docExtensions         = map[string]bool{".md": true, ".rst": true, ".txt": true}
	skippedDirs           = map[string]bool{".git": true, "node_modules": true, "__pycache__": true, ".pytest_cache": true, "vendor": true}
)

// DriftRequest is the body of POST /maintenance/detect-drift. Paths in
// CodeFiles and DocFiles are relative to RepoPath; when CodeFiles is empty the
// repository is walked.
type DriftRequest struct {
	RepoPath       string   `json:"repo_path" validate:"notblank"`
	DocsPath       string   `json:"docs_path"`
	CodeExtensions []string `json:"code_extensions"`
	CodeFiles      []string `json:"code_files"`
	DocFiles       []string `json:"doc_files"`
}

// DriftedFile is a code file whose documentation is missing or stale.
type DriftedFile struct {
	FilePath     string    `json:"file_path"`
	DocFile      string    `json:"doc_file,omitempty"`
	DriftType    string    `json:"drift_type"`
	Severity     string    `json:"severity"`
	LastModified time.Time `json:"last_modified"`
	CodeHash     string    `json:"code_hash"`
}

// DriftReport is the outcome of one detection run.
type DriftReport struct {
	ID              string        `json:"id"`
	RepoPath        string        `json:"repo_path"`
	TotalFiles      int           `json:"total_files"`
	CodeFiles       int           `json:"code_files"`
	DocFiles        int           `json:"doc_files"`
	DriftedFiles    []DriftedFile `json:"drifted_files"`
	DriftScore      float64       `json:"drift_score"`
	ChangedFiles    []string      `json:"changed_files"`
	Recommendations []string      `json:"recommendations"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// driftHistory keeps recent reports and the last seen hash of every file.
type driftHistory struct {
	mu      sync.RWMutex
	reports []DriftReport
	hashes  map[string]string
}

func newDriftHistory() *driftHistory {
	return &driftHistory{hashes: make(map[string]string)}
}

func (h *driftHistory) add(r DriftReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, r)
	if len(h.reports) > maxDriftHistory {
		h.reports = h.reports[len(h.reports)-maxDriftHistory:]
	}
}

// swapHash records hash for key and reports whether it differs from the
// previously seen one.
func (h *driftHistory) swapHash(key, hash string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev, seen := h.hashes[key]
	h.hashes[key] = hash
	return seen && prev != hash
}

func (h *driftHistory) recent(limit int) []DriftReport {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]DriftReport, 0, min(limit, len(h.reports)))
	for i := len(h.reports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.reports[i])
	}
	return out
}

func (h *driftHistory) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reports)
}

// DetectDrift compares code files with their documentation. A code file
// without documentation is missing; one modified more than 24 hours after
// its documentation is outdated.
func (s *Service) DetectDrift(ctx context.Context, req DriftRequest) (*DriftReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	root, err := s.fs.Dir(req.RepoPath)
	if err != nil {
		return nil, appErrors.NewValidation("Repository path is not readable: " + req.RepoPath)
	}
	docsPath, err := relativeDocsPath(req.RepoPath, req.DocsPath)
	if err != nil {
		return nil, err
	}

	extensions := make(map[string]bool)
	for _, ext := range req.CodeExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extensions[ext] = true
	}
	if len(extensions) == 0 {
		for _, ext := range defaultCodeExtensions {
			extensions[ext] = true
		}
	}

	codeFiles, docFiles := cleanPaths(req.CodeFiles), cleanPaths(req.DocFiles)
	if len(codeFiles) == 0 {
		codeFiles, docFiles, err = scanTree(root, extensions)
		if err != nil {
			return nil, appErrors.NewInternal("Failed to scan repository", err)
		}
	}

	report := DriftReport{
		ID:           uuid.New().String(),
		RepoPath:     req.RepoPath,
		DocFiles:     len(docFiles),
		DriftedFiles: []DriftedFile{},
		ChangedFiles: []string{},
		CheckedAt:    time.Now().UTC(),
	}

	for _, file := range codeFiles {
		info, err := fs.Stat(root, file)
		if err != nil || info.IsDir() {
			continue
		}
		report.CodeFiles++

		hash, err := hashFile(root, file)
		if err != nil {
			s.logger.Warn("Failed to hash file", zap.String("path", file), zap.Error(err))
		}
		if s.history.swapHash(req.RepoPath+":"+file, hash) {
			report.ChangedFiles = append(report.ChangedFiles, file)
		}

		docFile, docInfo := findDoc(root, file, docsPath)
		switch {
		case docInfo == nil:
			report.DriftedFiles = append(report.DriftedFiles, DriftedFile{
				FilePath:     file,
				DriftType:    DriftMissing,
				Severity:     "medium",
				LastModified: info.ModTime().UTC(),
				CodeHash:     hash,
			})
		case info.ModTime().Sub(docInfo.ModTime()) > outdatedAfter:
			report.DriftedFiles = append(report.DriftedFiles, DriftedFile{
				FilePath:     file,
				DocFile:      docFile,
				DriftType:    DriftOutdated,
				Severity:     "high",
				LastModified: info.ModTime().UTC(),
				CodeHash:     hash,
			})
		}
	}

	report.TotalFiles = report.CodeFiles + report.DocFiles
	report.DriftScore = float64(len(report.DriftedFiles)) / float64(max(1, report.TotalFiles))
	report.Recommendations = driftRecommendations(report)

	for _, f := range report.DriftedFiles {
		s.metrics.CountDrift(f.DriftType)
	}
	s.history.add(report)

	if len(report.DriftedFiles) > 0 {
		ev := events.New(events.DriftDetected, report.ID, map[string]any{
			"repo_path":   report.RepoPath,
			"drifted":     len(report.DriftedFiles),
			"drift_score": report.DriftScore,
		})
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("Failed to publish drift event", zap.String("report_id", report.ID), zap.Error(err))
		}
	}

	s.logger.Info("Drift detection completed",
		zap.String("repo_path", req.RepoPath),
		zap.Int("code_files", report.CodeFiles),
		zap.Int("drifted", len(report.DriftedFiles)),
	)
	return &report, nil
}

// DriftHistory returns the most recent reports, newest first.
func (s *Service) DriftHistory(limit int) []DriftReport {
	if limit <= 0 {
		limit = defaultHistories
	}
	return s.history.recent(limit)
}

func driftRecommendations(r DriftReport) []string {
	out := []string{}
	var missing, outdated bool
	for _, f := range r.DriftedFiles {
		missing = missing || f.DriftType == DriftMissing
		outdated = outdated || f.DriftType == DriftOutdated
	}
	if r.DriftScore > reviewThreshold {
		out = append(out, "High documentation drift detected. Consider comprehensive review.")
	}
	if missing {
		out = append(out, "Several code files lack documentation. Prioritize creating missing docs.")
	}
	if outdated {
		out = append(out, "Update outdated documentation to match recent code changes.")
	}
	return out
}

// findDoc looks for the documentation of a code file, in order: a sibling
// .md, .rst or .txt file, the README.md of its directory, then a page in the
// docs directory.
func findDoc(root fs.FS, file, docsPath string) (string, fs.FileInfo) {
	base := strings.TrimSuffix(file, path.Ext(file))
	candidates := []string{
		base + ".md",
		base + ".rst",
		base + ".txt",
		path.Join(path.Dir(file), "README.md"),
		path.Join(docsPath, path.Base(base)+".md"),
	}
	for _, c := range candidates {
		if info, err := fs.Stat(root, c); err == nil && !info.IsDir() {
			return c, info
		}
	}
	return "", nil
}

func scanTree(root fs.FS, extensions map[string]bool) (code, docs []string, err error) {
	err = fs.WalkDir(root, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != "." && skippedDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		switch {
		case extensions[ext]:
			code = append(code, p)
		case docExtensions[ext]:
			docs = append(docs, p)
		}
		return nil
	})
	sort.Strings(code)
	sort.Strings(docs)
	return code, docs, err
}

func hashFile(root fs.FS, file string) (string, error) {
	data, err := fs.ReadFile(root, file)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// cleanPaths converts client paths to fs.FS form.
func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(strings.TrimPrefix(strings.TrimSpace(p), "./")))
		if p == "." || p == "" || !fs.ValidPath(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// relativeDocsPath resolves docsPath against the repository root. Absolute
// paths must lie inside the repository.
func relativeDocsPath(repoPath, docsPath string) (string, error) {
	docsPath = strings.TrimSpace(docsPath)
	if docsPath == "" {
		return defaultDocsPath, nil
	}
	if filepath.IsAbs(docsPath) {
		rel, err := filepath.Rel(repoPath, docsPath)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", appErrors.NewValidation("docs_path must be inside repo_path")
		}
		docsPath = rel
	}
	p := path.Clean(filepath.ToSlash(docsPath))
	if !fs.ValidPath(p) {
		return "", appErrors.NewValidation("docs_path must be inside repo_path")
	}
	return p, nil
}
