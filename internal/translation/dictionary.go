package translation

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var dictionaryYAML []byte

// Dictionary translates English text word by word from an embedded phrasebook.
type Dictionary struct {
	pairs map[string]*phrasebook
}

type phrasebook struct {
	entries map[string]string // lowercased source phrase -> translation
	pattern *regexp.Regexp
}

// LoadDictionary decodes the embedded phrasebook.
func LoadDictionary() (*Dictionary, error) {
	return parseDictionary(dictionaryYAML)
}

func parseDictionary(data []byte) (*Dictionary, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode dictionary: %w", err)
	}

	d := &Dictionary{pairs: make(map[string]*phrasebook, len(raw))}
	for pair, words := range raw {
		if len(words) == 0 {
			continue
		}
		book := &phrasebook{entries: make(map[string]string, len(words))}
		keys := make([]string, 0, len(words))
		for src, dst := range words {
			lower := strings.ToLower(src)
			if _, dup := book.entries[lower]; dup {
				continue
			}
			book.entries[lower] = dst
			keys = append(keys, regexp.QuoteMeta(lower))
		}
		// Longer phrases first so "getting started" beats "started".
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		book.pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(keys, "|") + `)\b`)
		d.pairs[pair] = book
	}
	return d, nil
}

// Supports reports whether a phrasebook exists for the language pair.
func (d *Dictionary) Supports(source, target string) bool {
	if d == nil {
		return false
	}
	_, ok := d.pairs[source+"-"+target]
	return ok
}

// Translate returns the dictionary rendering of content and whether any word
// was replaced.
func (d *Dictionary) Translate(content, source, target string) (string, bool) {
	if !d.Supports(source, target) {
		return content, false
	}
	book := d.pairs[source+"-"+target]

	// A whole-phrase hit wins outright.
	trimmed := strings.TrimSpace(content)
	body := strings.TrimRight(trimmed, ".!?")
	if dst, ok := book.entries[strings.ToLower(body)]; ok {
		return matchCase(body, dst) + trimmed[len(body):], true
	}

	changed := false
	out := book.pattern.ReplaceAllStringFunc(content, func(word string) string {
		dst, ok := book.entries[strings.ToLower(word)]
		if !ok {
			return word
		}
		dst = matchCase(word, dst)
		if dst != word {
			changed = true
		}
		return dst
	})
	return out, changed
}

// matchCase shapes replacement after the capitalisation of the matched text.
func matchCase(matched, replacement string) string {
	if replacement == "" || isUpperWord(replacement) {
		return replacement
	}
	if isUpperWord(matched) && utf8.RuneCountInString(matched) > 1 {
		return strings.ToUpper(replacement)
	}
	first, _ := utf8.DecodeRuneInString(matched)
	rFirst, rSize := utf8.DecodeRuneInString(replacement)
	if unicode.IsUpper(first) {
		return string(unicode.ToUpper(rFirst)) + replacement[rSize:]
	}
	return string(unicode.ToLower(rFirst)) + replacement[rSize:]
}

func isUpperWord(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
