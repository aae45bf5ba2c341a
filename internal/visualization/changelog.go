package visualization

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Changelog formats.
const (
	FormatSemantic      = "semantic"
	FormatChronological = "chronological"
	FormatFeature       = "feature"
)

const unreleased = "Unreleased"

var (
	versionPattern = regexp.MustCompile(`\bv?(\d+\.\d+\.\d+(?:-[0-9A-Za-z.]+)?)\b`)
	datePattern    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})`)
	bulletPrefix   = regexp.MustCompile(`^(?:[-*+]\s+|\d+[.)]\s+|#+\s*)`)
	conventional   = regexp.MustCompile(`^(\w+)(?:\([^)]*\))?!?:\s*`)
)

type category struct {
	name    string
	pattern *regexp.Regexp
}

// Categories are checked in order; the first match wins.
var (
	semanticCategories = []category{
		{"Removed", regexp.MustCompile(`(?i)\b(remov\w*|delet\w*|deprecat\w*|drop\w*)\b`)},
		{"Fixed", regexp.MustCompile(`(?i)\b(fix\w*|bug\w*|issue\w*|resolv\w*|patch\w*|hotfix)\b`)},
		{"Added", regexp.MustCompile(`(?i)\b(add\w*|new|feat|features?|implement\w*|introduc\w*|support\w*)\b`)},
		{"Changed", regexp.MustCompile(`(?i)\b(chang\w*|updat\w*|modif\w*|improv\w*|refactor\w*|renam\w*|bump\w*|docs|chore|perf)\b`)},
	}
	featureCategories = []category{
		{"Security", regexp.MustCompile(`(?i)\b(security|auth\w*|encrypt\w*|secur\w*|vulnerab\w*|cve)\b`)},
		{"Performance", regexp.MustCompile(`(?i)\b(perf\w*|speed\w*|optimi[sz]\w*|fast\w*|faster|cach\w*|latency)\b`)},
		{"UI/UX", regexp.MustCompile(`(?i)\b(ui|ux|interface|design|layout|styl\w*|theme|accessib\w*)\b`)},
		{"Bug Fixes", regexp.MustCompile(`(?i)\b(bug\w*|fix\w*|issue\w*|error\w*|crash\w*)\b`)},
		{"New Features", regexp.MustCompile(`(?i)\b(feat|features?|new|add\w*|implement\w*|introduc\w*)\b`)},
	}
	conventionalTypes = map[string]string{
		"feat": "Added", "fix": "Fixed", "perf": "Changed", "refactor": "Changed",
		"docs": "Changed", "chore": "Changed", "style": "Changed", "revert": "Removed",
	}
)

// Commit is a change supplied directly instead of free text.
type Commit struct {
	Message string `json:"message" validate:"notblank"`
	Date    string `json:"date"`
	Version string `json:"version"`
	Author  string `json:"author"`
	Hash    string `json:"hash"`
}

// ChangelogRequest is the body of POST /visualizations/changelog.
type ChangelogRequest struct {
	Content       string   `json:"content"`
	Commits       []Commit `json:"commits" validate:"dive"`
	Format        string   `json:"format" validate:"omitempty,oneof=semantic chronological feature feature-based"`
	DocumentID    string   `json:"document_id" validate:"omitempty,docid"`
	DocumentTitle string   `json:"document_title"`
}

// Validate requires content, commits or a document.
func (r ChangelogRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" && len(r.Commits) == 0 && r.DocumentID == "" {
		return fmt.Errorf("content, commits or document_id is required")
	}
	return nil
}

// Entry is one categorized change.
type Entry struct {
	Version     string `json:"version"`
	Date        string `json:"date,omitempty"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Author      string `json:"author,omitempty"`
}

// Release groups entries under one heading.
type Release struct {
	Version string              `json:"version"`
	Date    string              `json:"date,omitempty"`
	Changes map[string][]string `json:"changes"`
}

// DateRange spans the dates found in the input.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ChangelogResponse is a generated changelog.
type ChangelogResponse struct {
	Changelog      string     `json:"changelog"`
	MermaidCode    string     `json:"mermaid_code"`
	Format         string     `json:"format"`
	Entries        []Entry    `json:"entries"`
	VersionHistory []Release  `json:"version_history"`
	TotalChanges   int        `json:"total_changes"`
	VersionCount   int        `json:"version_count"`
	DateRange      *DateRange `json:"date_range,omitempty"`
	DocumentUsed   string     `json:"document_used,omitempty"`
	DocumentTitle  string     `json:"document_title,omitempty"`
}

// Changelog turns release notes or commits into a grouped changelog.
func (s *Service) Changelog(ctx context.Context, req ChangelogRequest) (*ChangelogResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	content, title := req.Content, req.DocumentTitle
	if req.DocumentID != "" {
		var err error
		if content, title, err = s.source(ctx, req.Content, req.DocumentID, req.DocumentTitle); err != nil {
			return nil, err
		}
	}
	format := req.Format
	switch format {
	case "":
		format = FormatSemantic
	case "feature-based":
		format = FormatFeature
	}

	var entries []Entry
	if len(req.Commits) > 0 {
		entries = commitEntries(req.Commits)
	} else {
		entries = contentEntries(content)
	}
	resp := BuildChangelog(entries, format)
	resp.DocumentUsed = req.DocumentID
	resp.DocumentTitle = title

	s.logger.Debug("Changelog generated",
		zap.String("format", format),
		zap.Int("entries", len(resp.Entries)),
		zap.Int("versions", resp.VersionCount),
	)
	return resp, nil
}

// contentEntries reads free text line by line. A short line naming a version
// starts a release; dates on such lines or on their own apply to what follows.
func contentEntries(content string) []Entry {
	var (
		entries []Entry
		version = unreleased
		date    string
	)
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		isHeading := strings.HasPrefix(line, "#")
		text := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))

		d := datePattern.FindStringSubmatch(text)
		if v := versionPattern.FindStringSubmatch(text); v != nil && (isHeading || len(strings.Fields(text)) <= 3) {
			version, date = "v"+v[1], ""
			if d != nil {
				date = d[1]
			}
			continue
		}
		if d != nil {
			date = d[1]
		}
		if isHeading || strings.TrimSpace(datePattern.ReplaceAllString(text, "")) == "" {
			continue
		}
		entries = append(entries, Entry{Version: version, Date: date, Description: text})
	}
	return entries
}

func commitEntries(commits []Commit) []Entry {
	entries := make([]Entry, 0, len(commits))
	for _, c := range commits {
		version := unreleased
		if v := versionPattern.FindStringSubmatch(c.Version); v != nil {
			version = "v" + v[1]
		}
		date := c.Date
		if d := datePattern.FindStringSubmatch(c.Date); d != nil {
			date = d[1]
		}
		msg := strings.TrimSpace(strings.SplitN(c.Message, "\n", 2)[0])
		entry := Entry{Version: version, Date: date, Description: msg, Author: c.Author}
		if m := conventional.FindStringSubmatch(msg); m != nil {
			if cat, ok := conventionalTypes[strings.ToLower(m[1])]; ok {
				entry.Category = cat
				entry.Description = strings.TrimSpace(msg[len(m[0]):])
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// BuildChangelog categorizes entries and renders them in the given format.
// Entries matching no category are dropped, except in chronological order
// where they are kept as Changed.
func BuildChangelog(entries []Entry, format string) *ChangelogResponse {
	cats := semanticCategories
	if format == FormatFeature {
		cats = featureCategories
	}
	kept := []Entry{}
	for _, e := range entries {
		if format == FormatFeature || e.Category == "" {
			e.Category = categorize(e.Description, cats)
		}
		if e.Category == "" {
			if format != FormatChronological {
				continue
			}
			e.Category = "Changed"
		}
		kept = append(kept, e)
	}

	resp := &ChangelogResponse{Format: format, Entries: kept, TotalChanges: len(kept)}
	versions := map[string]bool{}
	var dates []string
	for _, e := range kept {
		if e.Version != unreleased {
			versions[e.Version] = true
		}
		if e.Date != "" {
			dates = append(dates, e.Date)
		}
	}
	resp.VersionCount = len(versions)
	if len(dates) > 0 {
		sort.Strings(dates)
		resp.DateRange = &DateRange{Start: dates[0], End: dates[len(dates)-1]}
	}

	switch format {
	case FormatChronological:
		resp.VersionHistory = groupBy(kept, true)
		sort.SliceStable(resp.VersionHistory, func(i, j int) bool {
			return resp.VersionHistory[i].Date > resp.VersionHistory[j].Date
		})
		resp.Changelog = renderChronological(resp.VersionHistory)
		resp.MermaidCode = renderTimeline(resp.VersionHistory)
	case FormatFeature:
		resp.VersionHistory = groupBy(kept, false)
		resp.Changelog = renderFeatures(kept)
		resp.MermaidCode = renderFeatureGraph(kept)
	default:
		resp.VersionHistory = groupBy(kept, false)
		resp.Changelog = renderSemantic(resp.VersionHistory)
		resp.MermaidCode = renderVersionGraph(resp.VersionHistory)
	}
	return resp
}

func categorize(text string, cats []category) string {
	for _, c := range cats {
		if c.pattern.MatchString(text) {
			return c.name
		}
	}
	return ""
}

func dateKey(date string) string {
	if date == "" {
		return "Undated"
	}
	return date
}

// groupBy collects entries into releases in first-seen order, keyed by
// date when byDate is set and by version otherwise.
func groupBy(entries []Entry, byDate bool) []Release {
	out := []Release{}
	index := map[string]int{}
	for _, e := range entries {
		key := e.Version
		if byDate {
			key = dateKey(e.Date)
		}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			r := Release{Version: e.Version, Date: e.Date, Changes: map[string][]string{}}
			if byDate {
				r.Date = key
			}
			out = append(out, r)
		}
		out[i].Changes[e.Category] = append(out[i].Changes[e.Category], e.Description)
	}
	return out
}

var semanticOrder = []string{"Added", "Changed", "Fixed", "Removed"}

func renderSemantic(releases []Release) string {
	var b strings.Builder
	b.WriteString("# Changelog\n")
	if len(releases) == 0 {
		b.WriteString("\nNo changes found.\n")
	}
	for _, r := range releases {
		fmt.Fprintf(&b, "\n## [%s]", r.Version)
		if r.Date != "" {
			fmt.Fprintf(&b, " - %s", r.Date)
		}
		b.WriteString("\n")
		for _, cat := range semanticOrder {
			writeSection(&b, "### "+cat, r.Changes[cat])
		}
	}
	return b.String()
}

func renderChronological(releases []Release) string {
	var b strings.Builder
	b.WriteString("# Chronological Changelog\n")
	if len(releases) == 0 {
		b.WriteString("\nNo changes found.\n")
	}
	for _, r := range releases {
		fmt.Fprintf(&b, "\n## %s", r.Date)
		if r.Version != "" && r.Version != unreleased {
			fmt.Fprintf(&b, " (%s)", r.Version)
		}
		b.WriteString("\n\n")
		for _, cat := range sortedCategories(r.Changes) {
			for _, c := range r.Changes[cat] {
				fmt.Fprintf(&b, "- **%s**: %s\n", cat, c)
			}
		}
	}
	return b.String()
}

func renderFeatures(entries []Entry) string {
	var b strings.Builder
	b.WriteString("# Feature-Based Changelog\n")
	if len(entries) == 0 {
		b.WriteString("\nNo changes found.\n")
	}
	for _, cat := range featureCategories {
		var items []string
		for _, e := range entries {
			if e.Category != cat.name {
				continue
			}
			item := e.Description
			if e.Version != unreleased {
				item += " (" + e.Version + ")"
			}
			items = append(items, item)
		}
		writeSection(&b, "## "+cat.name, items)
	}
	return b.String()
}

func writeSection(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func renderVersionGraph(releases []Release) string {
	g := newGraph("LR")
	prev := ""
	for _, r := range releases {
		id := nodeID("release", r.Version)
		label := r.Version
		if n := countChanges(r); n > 0 {
			label = fmt.Sprintf("%s: %d changes", r.Version, n)
		}
		g.shaped(id, label, "[]")
		if prev != "" {
			g.edge(prev, id, "")
		}
		prev = id
	}
	return g.String()
}

func renderTimeline(releases []Release) string {
	var b strings.Builder
	b.WriteString("timeline\n    title Changelog")
	for _, r := range releases {
		fmt.Fprintf(&b, "\n    %s", r.Date)
		for _, cat := range sortedCategories(r.Changes) {
			fmt.Fprintf(&b, " : %s (%d)", cat, len(r.Changes[cat]))
		}
	}
	return b.String()
}

func renderFeatureGraph(entries []Entry) string {
	g := newGraph("TD")
	g.shaped("release", "Release", "[]")
	for _, cat := range featureCategories {
		n := 0
		for _, e := range entries {
			if e.Category == cat.name {
				n++
			}
		}
		if n == 0 {
			continue
		}
		id := nodeID("cat", cat.name)
		g.node(id, fmt.Sprintf("%s: %d", cat.name, n))
		g.edge(id, "release", "")
	}
	return g.String()
}

func countChanges(r Release) int {
	n := 0
	for _, items := range r.Changes {
		n += len(items)
	}
	return n
}

func sortedCategories(changes map[string][]string) []string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
