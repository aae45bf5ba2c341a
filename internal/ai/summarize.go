package ai

import (
	"context"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"smartdocs-backend/internal/mcp"

	"go.uber.org/zap"
)

// Summary types.
const (
	SummaryBrief         = "brief"
	SummaryComprehensive = "comprehensive"
	SummaryDetailed      = "detailed"
)

const (
	defaultSummaryLength = 300
	minModelSummaryWords = 20
)

// SummarizeRequest is the body of POST /ai/summarize.
type SummarizeRequest struct {
	Content     string `json:"content" validate:"notblank"`
	MaxLength   int    `json:"max_length" validate:"omitempty,min=10,max=2000"`
	SummaryType string `json:"summary_type" validate:"omitempty,oneof=brief comprehensive detailed"`
	Style       string `json:"style"`
}

// SummarizeResponse carries the summary and its quality metrics.
type SummarizeResponse struct {
	Summary             string  `json:"summary"`
	OriginalLength      int     `json:"original_length"`
	SummaryLength       int     `json:"summary_length"`
	ReductionPercentage float64 `json:"reduction_percentage"`
	SummaryType         string  `json:"summary_type"`
	WordCount           int     `json:"word_count"`
	SentenceCount       int     `json:"sentence_count"`
	AvgSentenceLength   float64 `json:"avg_sentence_length"`
	Method              string  `json:"method"`
	MCPContextUsed      bool    `json:"mcp_context_used"`
}

type lengthBounds struct{ min, max int }

var summaryBounds = map[string]lengthBounds{
	SummaryBrief:         {50, 150},
	SummaryComprehensive: {100, 400},
	SummaryDetailed:      {200, 600},
}

var summarySentences = map[string]int{
	SummaryBrief:         2,
	SummaryComprehensive: 4,
	SummaryDetailed:      6,
}

var keyPhraseWords = []string{"important", "key", "main", "primary", "essential", "critical"}

// Summarize shortens content with the hosted model when available and the
// extractive summarizer otherwise.
func (s *Service) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	summaryType := req.SummaryType
	if summaryType == "" {
		summaryType = SummaryComprehensive
	}
	maxLength := req.MaxLength
	if maxLength == 0 {
		maxLength = defaultSummaryLength
	}

	mctx := s.mcpClient.GetContext(ctx, preview(req.Content, 200), mcp.ContextSummarization)

	summary, method := "", "extractive"
	if s.model.IsAvailable() {
		bounds := summaryBounds[summaryType]
		hi := min(maxLength, bounds.max)
		lo := min(bounds.min, hi/2)
		out, err := s.model.Summarize(ctx, req.Content, lo, hi)
		switch {
		case err != nil:
			s.logger.Warn("Model summarization failed, using extractive summary",
				zap.String("provider", s.model.ProviderName()),
				zap.Error(err),
			)
		case len(strings.Fields(out)) < minModelSummaryWords || len(out) > len(req.Content):
			s.logger.Debug("Model summary rejected", zap.Int("words", len(strings.Fields(out))))
		default:
			summary, method = out, s.model.ProviderName()
		}
	}
	if summary == "" {
		summary = ExtractiveSummary(req.Content, summaryType)
	}

	resp := summaryMetrics(req.Content, summary)
	resp.SummaryType = summaryType
	resp.Method = method
	resp.MCPContextUsed = !mctx.Fallback
	return resp, nil
}

// ExtractiveSummary keeps the leading sentences of text: 2 for brief, 4 for
// comprehensive and 6 for detailed. Detailed summaries of long texts may add
// up to two later sentences carrying key phrases. Texts of three sentences or
// fewer are returned unchanged; the summary is never longer than text.
func ExtractiveSummary(text, summaryType string) string {
	sentences := SplitSentences(text)
	if len(sentences) <= 3 {
		return text
	}

	n, ok := summarySentences[summaryType]
	if !ok {
		n = summarySentences[SummaryComprehensive]
	}
	n = min(n, len(sentences))
	picked := append([]string(nil), sentences[:n]...)

	if summaryType == SummaryDetailed && len(sentences) > 10 {
		added := 0
		for _, sentence := range sentences[n:] {
			if added == 2 {
				break
			}
			if hasKeyPhrase(sentence) {
				picked = append(picked, sentence)
				added++
			}
		}
	}

	summary := strings.Join(picked, " ")
	if len(summary) > len(text) {
		return text
	}
	return summary
}

func hasKeyPhrase(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, w := range keyPhraseWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// SplitSentences splits on '.', '!' or '?' followed by whitespace or the end
// of text. Terminal punctuation stays with its sentence.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
	)
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(text) {
			nr, _ := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(nr) {
				continue
			}
		}
		if sentence := strings.TrimSpace(text[start:next]); sentence != "" {
			out = append(out, sentence)
		}
		start = next
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

func summaryMetrics(original, summary string) *SummarizeResponse {
	originalLength := utf8.RuneCountInString(original)
	summaryLength := utf8.RuneCountInString(summary)
	words := len(strings.Fields(summary))
	sentences := len(SplitSentences(summary))

	resp := &SummarizeResponse{
		Summary:        summary,
		OriginalLength: originalLength,
		SummaryLength:  summaryLength,
		WordCount:      words,
		SentenceCount:  sentences,
	}
	if originalLength > 0 {
		resp.ReductionPercentage = round(float64(originalLength-summaryLength)/float64(originalLength)*100, 2)
	}
	if sentences > 0 {
		resp.AvgSentenceLength = round(float64(words)/float64(sentences), 1)
	}
	return resp
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
