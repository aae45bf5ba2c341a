package translation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	appErrors "smartdocs-backend/pkg/errors"
)

// LocalizeRequest is the body of POST /multilingual/localize.
type LocalizeRequest struct {
	Content                string `json:"content" validate:"notblank"`
	TargetLocale           string `json:"target_locale" validate:"notblank"`
	ContentType            string `json:"content_type" validate:"omitempty,oneof=documentation ui error_message"`
	PreserveTechnicalTerms *bool  `json:"preserve_technical_terms"`
	CulturalAdaptation     *bool  `json:"cultural_adaptation"`
}

// LocalizeResult is the answer of Localize.
type LocalizeResult struct {
	LocalizedContent        string   `json:"localized_content"`
	Locale                  string   `json:"locale"`
	Method                  string   `json:"method"`
	TechnicalTermsPreserved []string `json:"technical_terms_preserved"`
	CulturalAdaptations     []string `json:"cultural_adaptations"`
	CulturalNotes           []string `json:"cultural_notes"`
	FormattingChanges       []string `json:"formatting_changes"`
}

var uiTerms = map[string][][2]string{
	"es": {{"Install", "Instalar"}, {"Setup", "Configurar"}, {"Help", "Ayuda"}, {"Settings", "Configuración"}},
	"fr": {{"Install", "Installer"}, {"Setup", "Configurer"}, {"Help", "Aide"}, {"Settings", "Paramètres"}},
}

var (
	usDatePattern   = regexp.MustCompile(`\b(0?[1-9]|1[0-2])/(0?[1-9]|[12][0-9]|3[01])/([0-9]{4})\b`)
	usNumberPattern = regexp.MustCompile(`\b[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]+)?\b`)
)

// Localize translates content for a locale and adapts UI wording, dates and
// number formats.
func (s *Service) Localize(ctx context.Context, req LocalizeRequest) (*LocalizeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	locale := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(req.TargetLocale), "_", "-"))
	lang := localeLanguage(locale)
	if !IsSupported(lang) {
		return nil, appErrors.NewValidation(fmt.Sprintf("Locale '%s' not supported", req.TargetLocale))
	}

	translated, err := s.Translate(ctx, TranslateRequest{
		Content:        req.Content,
		SourceLanguage: "auto",
		TargetLanguage: lang,
	})
	if err != nil {
		return nil, err
	}

	result := &LocalizeResult{
		Locale:              locale,
		Method:              translated.Method,
		CulturalAdaptations: []string{},
		CulturalNotes:       translated.CulturalNotes,
		FormattingChanges:   []string{},
	}

	content := translated.TranslatedContent
	if translated.Method == MethodPassthrough {
		content = req.Content
		result.CulturalNotes = append(result.CulturalNotes,
			fmt.Sprintf("No translation available for %s; content kept in the source language", lang))
	}

	if req.ContentType == "ui" {
		for _, swap := range uiTerms[lang] {
			if strings.Contains(content, swap[0]) {
				content = strings.ReplaceAll(content, swap[0], swap[1])
				result.CulturalAdaptations = append(result.CulturalAdaptations, "UI term: "+swap[0]+" → "+swap[1])
			}
		}
	}

	if boolOr(req.CulturalAdaptation, true) {
		var changed bool
		if content, changed = adaptDates(content, locale); changed {
			result.CulturalAdaptations = append(result.CulturalAdaptations, "Date format")
			result.FormattingChanges = append(result.FormattingChanges, "Dates rewritten as "+dateLayout(locale))
		}
		if content, changed = adaptNumbers(content, lang); changed {
			result.CulturalAdaptations = append(result.CulturalAdaptations, "Number format")
			result.FormattingChanges = append(result.FormattingChanges, "Thousands and decimal separators adapted")
		}
	}

	result.LocalizedContent = content
	result.TechnicalTermsPreserved = []string{}
	if boolOr(req.PreserveTechnicalTerms, true) {
		result.TechnicalTermsPreserved = preservedTerms(req.Content, content, lang)
	}
	return result, nil
}

func dateLayout(locale string) string {
	switch localeLanguage(locale) {
	case "zh", "ja", "ko":
		return "YYYY/MM/DD"
	}
	if locale == "en" || locale == "en-us" {
		return "MM/DD/YYYY"
	}
	return "DD/MM/YYYY"
}

// adaptDates rewrites US MM/DD/YYYY dates and format hints for the locale.
func adaptDates(content, locale string) (string, bool) {
	layout := dateLayout(locale)
	if layout == "MM/DD/YYYY" {
		return content, false
	}
	out := strings.ReplaceAll(content, "MM/DD/YYYY", layout)
	out = usDatePattern.ReplaceAllStringFunc(out, func(date string) string {
		m := usDatePattern.FindStringSubmatch(date)
		if layout == "YYYY/MM/DD" {
			return m[3] + "/" + m[1] + "/" + m[2]
		}
		return m[2] + "/" + m[1] + "/" + m[3]
	})
	return out, out != content
}

// adaptNumbers swaps US separators in numbers such as 1,234.5.
func adaptNumbers(content, lang string) (string, bool) {
	var thousands string
	switch lang {
	case "es", "de", "pt":
		thousands = "."
	case "fr":
		thousands = " "
	default:
		return content, false
	}
	out := usNumberPattern.ReplaceAllStringFunc(content, func(n string) string {
		intPart, frac, _ := strings.Cut(n, ".")
		intPart = strings.ReplaceAll(intPart, ",", thousands)
		if frac != "" {
			return intPart + "," + frac
		}
		return intPart
	})
	return out, out != content
}
