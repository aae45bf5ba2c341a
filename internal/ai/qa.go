package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"smartdocs-backend/internal/mcp"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	maxRelatedQuestions = 5
	maxConfidence       = 0.95
	unknownDocument     = "Unknown Document"
)

// QARequest is the body of POST /ai/qa.
type QARequest struct {
	Question      string `json:"question" validate:"notblank"`
	Context       string `json:"context"`
	DocumentID    string `json:"document_id" validate:"omitempty,docid"`
	DocumentTitle string `json:"document_title"`
}

// QAResponse is the answer of QA.
type QAResponse struct {
	Answer           string   `json:"answer"`
	Confidence       float64  `json:"confidence"`
	Sources          []string `json:"sources"`
	RelatedQuestions []string `json:"related_questions"`
	DocumentUsed     string   `json:"document_used,omitempty"`
	DocumentTitle    string   `json:"document_title"`
	Method           string   `json:"method"`
}

var questionStopwords = map[string]bool{
	"the": true, "and": true, "are": true, "for": true, "how": true, "what": true, "why": true,
	"when": true, "where": true, "which": true, "who": true, "does": true, "this": true, "that": true,
	"with": true, "can": true, "you": true, "should": true, "there": true, "any": true, "from": true,
	"into": true, "about": true, "have": true, "has": true, "its": true, "our": true, "your": true,
}

var explanatoryIndicators = []string{"example", "step", "code", "function", "method"}

// QA answers a question, grounded on a saved document or the supplied
// context when one is given.
func (s *Service) QA(ctx context.Context, req QARequest) (*QAResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.DocumentTitle)
	if title == "" {
		title = unknownDocument
	}
	content := ""
	if req.DocumentID != "" {
		if s.documents == nil {
			return nil, appErrors.NewUnavailable("Document store not configured", nil)
		}
		doc, err := s.documents.Get(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
		content, title = doc.Content, doc.Title
	} else if strings.TrimSpace(req.Context) != "" {
		content = req.Context
		if title == unknownDocument {
			title = "Provided context"
		}
	}

	mctx := s.mcpClient.GetContext(ctx, req.Question, mcp.ContextQA)

	answer, method := "", "fallback"
	if s.model.IsAvailable() {
		out, err := s.model.Generate(ctx, qaPrompt(req.Question, content, title), 800)
		if err != nil {
			s.logger.Warn("Model answer failed, using document search",
				zap.String("provider", s.model.ProviderName()),
				zap.Error(err),
			)
		} else if strings.TrimSpace(out) != "" {
			answer = s.mcpClient.Enhance(ctx, req.Question, out, mctx)
			method = s.model.ProviderName()
		}
	}
	if answer == "" {
		if content != "" {
			answer = DocumentAnswer(req.Question, content, title)
		} else {
			answer = KeywordAnswer(req.Question)
		}
	}

	resp := &QAResponse{
		Answer:           answer,
		Confidence:       AnswerConfidence(answer, content, req.Question),
		RelatedQuestions: RelatedQuestions(content, req.Question, mctx.Keywords),
		DocumentUsed:     req.DocumentID,
		DocumentTitle:    title,
		Method:           method,
	}
	if content != "" {
		resp.Sources = []string{"Document: " + title}
	} else {
		resp.Sources = []string{"SmartDocs Platform"}
	}
	return resp, nil
}

func qaPrompt(question, content, title string) string {
	if content == "" {
		return fmt.Sprintf("Question: %s\n\nAnswer the question about technical documentation clearly and concisely.\n\nAnswer:", question)
	}
	return fmt.Sprintf("Document: %s\n\nRelevant Document Content:\n%s\n\nQuestion: %s\n\n"+
		"Answer based on the document content above. If the answer is not in the document, say so clearly.\n\nAnswer:",
		title, preview(content, 1000), question)
}

// questionTerms returns the significant lowercase words of a question.
func questionTerms(question string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
	}) {
		if len(w) <= 2 || questionStopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// DocumentAnswer quotes up to three document lines mentioning the question's
// terms, else the first matching section, else says nothing was found.
func DocumentAnswer(question, content, title string) string {
	terms := questionTerms(question)
	lines := strings.Split(content, "\n")

	var relevant []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && containsAny(strings.ToLower(trimmed), terms) {
			relevant = append(relevant, trimmed)
			if len(relevant) == 3 {
				break
			}
		}
	}
	if len(relevant) > 0 {
		return fmt.Sprintf("Based on the document '%s', here's what I found:\n\n%s", title, strings.Join(relevant, "\n"))
	}

	for _, section := range markdownSections(lines) {
		if containsAny(strings.ToLower(section), terms) {
			return fmt.Sprintf("Based on the document '%s', here's the relevant section:\n\n%s...", title, preview(section, 300))
		}
	}

	return fmt.Sprintf("The document '%s' does not appear to answer this question. Try different keywords or look through its sections.", title)
}

// markdownSections groups lines under their '#' headers.
func markdownSections(lines []string) []string {
	var (
		sections []string
		current  strings.Builder
	)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if current.Len() > 0 {
				sections = append(sections, current.String())
				current.Reset()
			}
			current.WriteString(trimmed)
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n" + trimmed)
		}
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

var keywordAnswers = []struct {
	words  []string
	answer string
}{
	{
		words:  []string{"features", "capabilities", "functions", "tools"},
		answer: "SmartDocs includes documentation generation from GitHub repositories, summarization, Q&A over saved documents, multilingual support, drift detection and visualization tools for flow diagrams and API call graphs.",
	},
	{
		words:  []string{"github", "repository", "repo"},
		answer: "To generate documentation from GitHub, paste the repository URL into the generator. The code is analysed and a README, API docs and a setup guide are produced.",
	},
	{
		words:  []string{"documentation", "docs", "documents"},
		answer: "You can create documentation by generating it from a GitHub repository, by writing it from a template, or by writing it manually and enhancing it with the AI tools.",
	},
	{
		words:  []string{"summarize", "summary", "summarization"},
		answer: "Paste your content into the summarizer and choose a brief, comprehensive or detailed summary. The key sentences are extracted for you.",
	},
	{
		words:  []string{"question", "ask", "answer", "qa"},
		answer: "Ask questions about a saved document by passing its id. Answers quote the relevant lines of the document.",
	},
}

var questionTypeAnswers = []struct {
	word   string
	answer string
}{
	{"how", "Start with the documentation generator: point it at a GitHub repository, then use summarization and Q&A on the result."},
	{"what", "SmartDocs is a documentation platform that helps you create, read and maintain technical documentation."},
	{"why", "Up-to-date documentation keeps teams aligned and projects maintainable; SmartDocs automates the repetitive parts."},
	{"when", "Use it whenever code changes: drift detection tells you which documents need an update."},
	{"where", "Every feature is available from the API: /api/docs for documents, /api/ai for generation and Q&A."},
}

// KeywordAnswer answers general questions about the platform.
func KeywordAnswer(question string) string {
	lower := strings.ToLower(question)
	words := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) && r != '&' })
	has := func(w string) bool {
		for _, x := range words {
			if x == w {
				return true
			}
		}
		return false
	}

	prefix := "I can help you with documentation questions! "
	for _, ka := range keywordAnswers {
		for _, w := range ka.words {
			if has(w) {
				return prefix + ka.answer
			}
		}
	}
	for _, qa := range questionTypeAnswers {
		if has(qa.word) {
			return prefix + qa.answer
		}
	}
	return prefix + "Try generating documentation from a GitHub repository, or save a document and ask questions about it."
}

// AnswerConfidence scores an answer from 0.5, rewarding length, overlap with
// the document, coverage of the question and explanatory wording.
func AnswerConfidence(answer, content, question string) float64 {
	confidence := 0.5
	lower := strings.ToLower(answer)

	if len(strings.TrimSpace(answer)) > 100 {
		confidence += 0.2
	}

	if content != "" {
		docWords := make(map[string]bool)
		for _, w := range strings.Fields(strings.ToLower(content)) {
			docWords[w] = true
		}
		overlap := make(map[string]bool)
		for _, w := range strings.Fields(lower) {
			if docWords[w] {
				overlap[w] = true
			}
		}
		if len(overlap) > 5 {
			confidence += 0.2
		}
	}

	if containsAny(lower, questionTerms(question)) {
		confidence += 0.1
	}
	if containsAny(lower, explanatoryIndicators) {
		confidence += 0.1
	}
	return math.Min(round(confidence, 2), maxConfidence)
}

// RelatedQuestions suggests at most five follow-up questions.
func RelatedQuestions(content, question string, keywords []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(q string) {
		if !seen[q] && len(out) < maxRelatedQuestions {
			seen[q] = true
			out = append(out, q)
		}
	}

	if content != "" {
		for _, topic := range documentTopics(content, 3) {
			switch t := strings.ToLower(topic); {
			case strings.Contains(t, "function"):
				add("What does this function do?")
			case strings.Contains(t, "class"):
				add("How do I use this class?")
			case strings.Contains(t, "api"):
				add("What are the API endpoints?")
			case strings.Contains(t, "config"):
				add("How do I configure this?")
			case strings.Contains(t, "setup"):
				add("What are the setup requirements?")
			}
		}
		for _, k := range keywords {
			switch k {
			case "function", "method":
				add(fmt.Sprintf("What are the %ss in this document?", k))
			case "api", "endpoint":
				add(fmt.Sprintf("How do I use the %ss?", k))
			case "config", "setup":
				add(fmt.Sprintf("What %s options are available?", k))
			}
		}
		add("What are the main sections of this document?")
		add("Are there any examples in this document?")
		add("What are the key concepts covered?")
		return out
	}

	lower := strings.ToLower(question)
	switch {
	case strings.HasPrefix(lower, "how") || strings.Contains(lower, " how "):
		add("What are the prerequisites?")
		add("What are common issues?")
		add("Are there any alternatives?")
	case strings.HasPrefix(lower, "what") || strings.Contains(lower, " what "):
		add("How do I get started?")
		add("What are the benefits?")
		add("Are there any limitations?")
	case strings.HasPrefix(lower, "why") || strings.Contains(lower, " why "):
		add("What are the alternatives?")
		add("How does this compare?")
		add("What are the trade-offs?")
	default:
		add("How do I get started?")
		add("What are the prerequisites?")
		add("What are common issues?")
	}
	add("How do I generate docs from GitHub?")
	add("What AI features are available?")
	return out
}

func documentTopics(content string, limit int) []string {
	var topics []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(trimmed, "#") || containsAny(lower, []string{"function", "class", "method", "api", "endpoint", "config", "setup"}) {
			topics = append(topics, trimmed)
			if len(topics) == limit {
				break
			}
		}
	}
	return topics
}
