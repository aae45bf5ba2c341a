package translation

import "strings"

// Language describes a supported language.
type Language struct {
	Code              string   `json:"language_code"`
	Name              string   `json:"language_name"`
	NativeName        string   `json:"native_name"`
	SupportedFeatures []string `json:"supported_features"`
	RTL               bool     `json:"rtl"`
}

var (
	fullFeatures  = []string{"translation", "localization", "detection"}
	localFeatures = []string{"translation", "localization"}
)

var supportedLanguages = []Language{
	{Code: "en", Name: "English", NativeName: "English", SupportedFeatures: fullFeatures},
	{Code: "es", Name: "Spanish", NativeName: "Español", SupportedFeatures: fullFeatures},
	{Code: "fr", Name: "French", NativeName: "Français", SupportedFeatures: fullFeatures},
	{Code: "de", Name: "German", NativeName: "Deutsch", SupportedFeatures: localFeatures},
	{Code: "zh", Name: "Chinese (Simplified)", NativeName: "中文", SupportedFeatures: fullFeatures},
	{Code: "ja", Name: "Japanese", NativeName: "日本語", SupportedFeatures: fullFeatures},
	{Code: "ko", Name: "Korean", NativeName: "한국어", SupportedFeatures: fullFeatures},
	{Code: "ar", Name: "Arabic", NativeName: "العربية", SupportedFeatures: fullFeatures, RTL: true},
	{Code: "hi", Name: "Hindi", NativeName: "हिन्दी", SupportedFeatures: []string{"translation", "detection"}},
	{Code: "pt", Name: "Portuguese", NativeName: "Português", SupportedFeatures: localFeatures},
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	out := make([]Language, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// LookupLanguage finds a supported language by code.
func LookupLanguage(code string) (Language, bool) {
	for _, l := range supportedLanguages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether code is a supported language.
func IsSupported(code string) bool {
	_, ok := LookupLanguage(code)
	return ok
}

// localeLanguage maps "es-MX" or "pt_BR" to its language code.
func localeLanguage(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		return locale[:i]
	}
	return locale
}

// Technical terms are kept verbatim or mapped to the listed equivalent.
// The lists are parallel: index i names the same concept in each language.
var technicalTerms = map[string][]string{
	"en": {
		"API", "REST", "JSON", "XML", "HTTP", "HTTPS", "SSL", "TLS",
		"Git", "GitHub", "Docker", "Kubernetes", "Microservices",
		"Database", "SQL", "NoSQL", "MongoDB", "PostgreSQL",
		"JavaScript", "Python", "Java", "C++", "React", "Vue",
		"Node.js", "Express", "FastAPI", "Django", "Flask",
	},
	"es": {
		"API", "REST", "JSON", "XML", "HTTP", "HTTPS", "SSL", "TLS",
		"Git", "GitHub", "Docker", "Kubernetes", "Microservicios",
		"Base de datos", "SQL", "NoSQL", "MongoDB", "PostgreSQL",
		"JavaScript", "Python", "Java", "C++", "React", "Vue",
		"Node.js", "Express", "FastAPI", "Django", "Flask",
	},
	"fr": {
		"API", "REST", "JSON", "XML", "HTTP", "HTTPS", "SSL", "TLS",
		"Git", "GitHub", "Docker", "Kubernetes", "Microservices",
		"Base de données", "SQL", "NoSQL", "MongoDB", "PostgreSQL",
		"JavaScript", "Python", "Java", "C++", "React", "Vue",
		"Node.js", "Express", "FastAPI", "Django", "Flask",
	},
}

// preservedTerms lists the English technical terms found in source that
// survive into translated, either verbatim or as their target equivalent.
func preservedTerms(source, translated, target string) []string {
	equivalents := technicalTerms[target]
	out := []string{}
	for i, term := range technicalTerms["en"] {
		if !containsTerm(source, term) {
			continue
		}
		if strings.Contains(translated, term) ||
			(i < len(equivalents) && strings.Contains(translated, equivalents[i])) {
			out = append(out, term)
		}
	}
	return out
}

func containsTerm(text, term string) bool {
	idx := strings.Index(text, term)
	for idx >= 0 {
		end := idx + len(term)
		if (idx == 0 || !isWordByte(text[idx-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		next := strings.Index(text[idx+1:], term)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
