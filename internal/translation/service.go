// Package translation implements the multilingual features: translation with
// a provider fallback chain, language detection, localization and the
// translation memory.
package translation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/providers"
	"smartdocs-backend/internal/service/llm"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

// Translation methods, in chain order.
const (
	MethodIdentity     = "identity"
	MethodHuggingFace  = "huggingface"
	MethodAIGeneration = "ai_generation"
	MethodDictionary   = "dictionary"
	MethodPassthrough  = "passthrough"
)

const (
	dictionaryConfidence  = 0.6
	passthroughConfidence = 0.3
)

var translatorConfidence = map[string]float64{
	MethodHuggingFace:  0.9,
	"google":           0.95,
	"libretranslate":   0.85,
	"mymemory":         0.8,
	MethodAIGeneration: 0.7,
}

// TranslateRequest is the body of POST /multilingual/translate.
type TranslateRequest struct {
	Content              string `json:"content" validate:"notblank"`
	SourceLanguage       string `json:"source_language" validate:"omitempty,langcode"`
	TargetLanguage       string `json:"target_language" validate:"notblank,langcode"`
	Context              string `json:"context"`
	PreserveFormatting   *bool  `json:"preserve_formatting"`
	UseTranslationMemory *bool  `json:"use_translation_memory"`
}

// TranslateResult is the answer of Translate.
type TranslateResult struct {
	TranslatedContent       string   `json:"translated_content"`
	SourceLanguage          string   `json:"source_language"`
	TargetLanguage          string   `json:"target_language"`
	Confidence              float64  `json:"confidence"`
	Method                  string   `json:"method"`
	TranslationMemoryUsed   bool     `json:"translation_memory_used"`
	TechnicalTermsPreserved []string `json:"technical_terms_preserved"`
	AlternativeTranslations []string `json:"alternative_translations"`
	CulturalNotes           []string `json:"cultural_notes"`
}

type step struct {
	method    string
	translate func(ctx context.Context, text, source, target string) (string, error)
}

// Service translates documentation content.
type Service struct {
	steps      []step
	rank       map[string]int
	dictionary *Dictionary
	memory     *Memory
	validator  *validation.Validator
	metrics    *observability.Collector
	logger     *zap.Logger
	now        func() time.Time
}

// NewService builds the translation chain: Hugging Face opus-mt, then each
// configured machine translator in order, then prompt-based generation. The
// dictionary and the passthrough close the chain.
func NewService(model *llm.Service, translators []providers.Translator, dictionary *Dictionary, memory *Memory, metrics *observability.Collector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if memory == nil {
		memory = NewMemory()
	}

	steps := []step{{method: MethodHuggingFace, translate: model.Translate}}
	for _, t := range translators {
		t := t
		steps = append(steps, step{
			method: t.Name(),
			translate: func(ctx context.Context, text, source, target string) (string, error) {
				if !t.Configured() {
					return "", providers.ErrNotConfigured
				}
				return t.Translate(ctx, text, source, target)
			},
		})
	}
	steps = append(steps, step{
		method: MethodAIGeneration,
		translate: func(ctx context.Context, text, _, target string) (string, error) {
			lang, _ := LookupLanguage(target)
			return model.TranslateByPrompt(ctx, text, lang.Name)
		},
	})

	rank := make(map[string]int, len(steps)+2)
	for i, st := range steps {
		rank[st.method] = i
	}
	rank[MethodDictionary] = len(steps)
	rank[MethodPassthrough] = len(steps) + 1

	return &Service{
		steps:      steps,
		rank:       rank,
		dictionary: dictionary,
		memory:     memory,
		validator:  validation.New(),
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Translate translates req.Content. Source "auto" or empty is detected.
func (s *Service) Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	source := req.SourceLanguage
	if source == "" || source == "auto" {
		source = s.Detect(req.Content).DetectedLanguage
		s.logger.Debug("Auto-detected language", zap.String("language", source))
	}
	if !IsSupported(source) {
		return nil, appErrors.NewValidation(fmt.Sprintf("Source language '%s' not supported", source))
	}
	target := req.TargetLanguage
	if !IsSupported(target) {
		return nil, appErrors.NewValidation(fmt.Sprintf("Target language '%s' not supported", target))
	}

	result := &TranslateResult{
		SourceLanguage:          source,
		TargetLanguage:          target,
		AlternativeTranslations: []string{},
		CulturalNotes:           culturalNotes(target),
	}

	if source == target {
		result.TranslatedContent = req.Content
		result.Confidence = 1.0
		result.Method = MethodIdentity
		result.TechnicalTermsPreserved = preservedTerms(req.Content, req.Content, target)
		return result, nil
	}

	key := MemoryKey(source, target, req.Content)
	if boolOr(req.UseTranslationMemory, true) {
		if entry, ok := s.memory.Lookup(key); ok {
			result.TranslatedContent = entry.TranslatedText
			result.Confidence = entry.Confidence
			result.Method = entry.Method
			result.TranslationMemoryUsed = true
			result.TechnicalTermsPreserved = preservedTerms(req.Content, entry.TranslatedText, target)
			return result, nil
		}
	}

	translated, method, confidence := s.translateContent(ctx, req.Content, source, target, boolOr(req.PreserveFormatting, true))
	result.TranslatedContent = translated
	result.Method = method
	result.Confidence = confidence
	result.TechnicalTermsPreserved = preservedTerms(req.Content, translated, target)

	if method != MethodPassthrough {
		s.memory.Store(MemoryEntry{
			Key:            key,
			SourceText:     req.Content,
			SourceLanguage: source,
			TargetLanguage: target,
			TranslatedText: translated,
			Context:        req.Context,
			Method:         method,
			Confidence:     confidence,
			CreatedAt:      s.now().UTC(),
		})
		s.metrics.SetTranslationMemory(s.memory.Len())
	}

	return result, nil
}

// translateContent translates prose and, when preserving formatting, leaves
// fenced code blocks untouched. The weakest method used names the result.
func (s *Service) translateContent(ctx context.Context, content, source, target string, preserve bool) (string, string, float64) {
	segments := []segment{{text: content}}
	if preserve {
		segments = splitFences(content)
	}
	if len(segments) == 1 && !segments[0].code {
		return s.translateSegment(ctx, content, source, target)
	}

	var b strings.Builder
	method, confidence := "", 1.0
	for _, seg := range segments {
		if seg.code || strings.TrimSpace(seg.text) == "" {
			b.WriteString(seg.text)
			continue
		}
		core := strings.TrimSpace(seg.text)
		lead := seg.text[:strings.Index(seg.text, core)]
		trail := seg.text[len(lead)+len(core):]

		out, m, c := s.translateSegment(ctx, core, source, target)
		if m == MethodPassthrough {
			out = core
		}
		b.WriteString(lead + strings.TrimSpace(out) + trail)
		if method == "" || s.rank[m] > s.rank[method] {
			method = m
		}
		confidence = math.Min(confidence, c)
	}

	if method == "" {
		// Nothing but code.
		return content, MethodIdentity, 1.0
	}
	if method == MethodPassthrough && b.String() == content {
		return passthrough(content, target), MethodPassthrough, passthroughConfidence
	}
	return b.String(), method, confidence
}

// translateSegment walks the chain once. Provider errors are logged and the
// next step is tried.
func (s *Service) translateSegment(ctx context.Context, text, source, target string) (string, string, float64) {
	for _, st := range s.steps {
		out, err := st.translate(ctx, text, source, target)
		if err != nil {
			if errors.Is(err, providers.ErrNotConfigured) || errors.Is(err, llm.ErrUnavailable) {
				continue
			}
			s.logger.Warn("Translation provider failed, trying next",
				zap.String("provider", st.method),
				zap.Error(err),
			)
			continue
		}
		if strings.TrimSpace(out) == "" {
			continue
		}
		return out, st.method, translatorConfidence[st.method]
	}

	if out, changed := s.dictionary.Translate(text, source, target); changed {
		return out, MethodDictionary, dictionaryConfidence
	}
	return passthrough(text, target), MethodPassthrough, passthroughConfidence
}

func passthrough(content, target string) string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(target), content)
}

type segment struct {
	text string
	code bool
}

// splitFences separates ``` fenced blocks from prose. An unterminated fence
// runs to the end of the content.
func splitFences(content string) []segment {
	var (
		out    []segment
		cur    strings.Builder
		inCode bool
	)
	flush := func(code bool) {
		if cur.Len() > 0 {
			out = append(out, segment{text: cur.String(), code: code})
			cur.Reset()
		}
	}

	lines := strings.SplitAfter(content, "\n")
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if !inCode {
				flush(false)
				inCode = true
				cur.WriteString(line)
				continue
			}
			cur.WriteString(line)
			flush(true)
			inCode = false
			continue
		}
		cur.WriteString(line)
	}
	flush(inCode)
	if len(out) == 0 {
		out = append(out, segment{text: content})
	}
	return out
}

func culturalNotes(target string) []string {
	notes := []string{}
	if lang, ok := LookupLanguage(target); ok && lang.RTL {
		notes = append(notes, lang.Name+" is written right-to-left; render with dir=\"rtl\"")
	}
	switch target {
	case "ja", "ko":
		notes = append(notes, "Use polite register for user-facing documentation")
	case "de", "fr", "es", "pt":
		notes = append(notes, "Use the formal form of address in instructions")
	}
	return notes
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// MemoryStats summarizes the translation memory.
func (s *Service) MemoryStats() MemoryStats {
	return s.memory.Stats()
}

// Health reports the multilingual service state.
func (s *Service) Health() map[string]any {
	return map[string]any{
		"status":                     "healthy",
		"service":                    "multilingual",
		"supported_languages":        len(supportedLanguages),
		"translation_memory_entries": s.memory.Len(),
		"translation_chain":          s.chain(),
		"features":                   []string{"translation", "localization", "language_detection", "translation_memory"},
	}
}

func (s *Service) chain() []string {
	out := make([]string, 0, len(s.steps)+2)
	for _, st := range s.steps {
		out = append(out, st.method)
	}
	return append(out, MethodDictionary, MethodPassthrough)
}
