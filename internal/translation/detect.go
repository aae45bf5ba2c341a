package translation

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// DetectRequest is the body of POST /multilingual/detect.
type DetectRequest struct {
	Content string `json:"content" validate:"notblank"`
	Context string `json:"context"`
}

// Alternative is a less likely language candidate.
type Alternative struct {
	LanguageCode string  `json:"language_code"`
	Confidence   float64 `json:"confidence"`
}

// DetectResult is the answer of Detect.
type DetectResult struct {
	DetectedLanguage     string        `json:"detected_language"`
	Confidence           float64       `json:"confidence"`
	AlternativeLanguages []Alternative `json:"alternative_languages"`
}

// minStopwordHits is the number of stopword hits needed to leave English.
const minStopwordHits = 3

var (
	spanishStopwords = wordSet("el la los las de del que y en un una es por con para como pero más está son se su al lo muy también")
	frenchStopwords  = wordSet("le la les de des du et un une est pour dans avec que qui sur pas ce il sont au aux mais vous nous être")
)

var scriptLanguages = []struct {
	code  string
	table *unicode.RangeTable
}{
	{"ko", unicode.Hangul},
	{"ar", unicode.Arabic},
	{"hi", unicode.Devanagari},
	{"zh", unicode.Han},
}

func wordSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// Detect guesses the language of content from its script, then from Spanish
// and French stopword counts, defaulting to English.
func (s *Service) Detect(content string) DetectResult {
	if code, ok := detectScript(content); ok {
		return DetectResult{DetectedLanguage: code, Confidence: 0.95, AlternativeLanguages: []Alternative{}}
	}

	var es, fr int
	for _, w := range strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if spanishStopwords[w] {
			es++
		}
		if frenchStopwords[w] {
			fr++
		}
	}

	result := DetectResult{DetectedLanguage: "en", Confidence: 0.6}
	switch {
	case es > fr && es > minStopwordHits:
		result.DetectedLanguage, result.Confidence = "es", 0.9
	case fr > es && fr > minStopwordHits:
		result.DetectedLanguage, result.Confidence = "fr", 0.9
	}

	scores := map[string]float64{
		"es": math.Min(0.8, float64(es)*0.1),
		"fr": math.Min(0.8, float64(fr)*0.1),
		"en": 0.3,
	}
	alternatives := []Alternative{}
	for code, score := range scores {
		if code == result.DetectedLanguage || score == 0 {
			continue
		}
		alternatives = append(alternatives, Alternative{LanguageCode: code, Confidence: math.Round(score*100) / 100})
	}
	sort.Slice(alternatives, func(i, j int) bool {
		if alternatives[i].Confidence != alternatives[j].Confidence {
			return alternatives[i].Confidence > alternatives[j].Confidence
		}
		return alternatives[i].LanguageCode < alternatives[j].LanguageCode
	})
	result.AlternativeLanguages = alternatives
	return result
}

// detectScript recognises non-Latin scripts. Kana marks Japanese even when
// mixed with Han characters.
func detectScript(content string) (string, bool) {
	counts := make(map[string]int)
	for _, r := range content {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return "ja", true
		}
		for _, sl := range scriptLanguages {
			if unicode.Is(sl.table, r) {
				counts[sl.code]++
				break
			}
		}
	}

	best, bestCount := "", 0
	for _, sl := range scriptLanguages {
		if counts[sl.code] > bestCount {
			best, bestCount = sl.code, counts[sl.code]
		}
	}
	return best, bestCount > 0
}
