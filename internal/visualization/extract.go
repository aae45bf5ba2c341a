package visualization

import (
	"regexp"
	"slices"
	"sort"
	"strings"

	"smartdocs-backend/internal/parsing"
)

var (
	callPattern = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*\(`)

	controlPatterns = map[string]*regexp.Regexp{
		"python":     regexp.MustCompile(`^(if|elif|else|for|while|try|except|finally|with|async\s+with|async\s+for)\b`),
		"javascript": regexp.MustCompile(`^(?:\}\s*)?(if|else\s+if|else|for|while|do|switch|case|try|catch|finally)\b`),
		"go":         regexp.MustCompile(`^(?:\}\s*)?(if|else\s+if|else|for|switch|select|case|defer|go)\b`),
	}
	genericControl = regexp.MustCompile(`^(?:\}\s*)?(if|else\s+if|elif|else|for|foreach|while|do|switch|case|when|try|catch|except|finally|unless|loop|match)\b`)

	// callKeywords look like calls but are language syntax or builtins.
	callKeywords = map[string]bool{
		"if": true, "elif": true, "for": true, "while": true, "switch": true, "catch": true,
		"return": true, "function": true, "def": true, "class": true, "func": true,
		"print": true, "len": true, "range": true, "super": true, "await": true,
		"typeof": true, "sizeof": true, "new": true, "make": true, "append": true,
		"with": true, "except": true, "and": true, "or": true, "not": true, "in": true,
	}
)

// span is the line range of a function body, 1-based and inclusive.
type span struct {
	name       string
	start, end int
}

// outline is the parsed view of one source text used by every diagram.
type outline struct {
	language  string
	structure *parsing.Structure
	lines     []string
	spans     []span
	known     map[string]bool
}

func newOutline(code, language string) *outline {
	language = normalizeLanguage(language)
	s, err := parsing.Parse(code, language, "")
	if err != nil {
		// Code that does not parse as Python still gets a best-effort outline.
		s = parsing.ParseGeneric(code, language)
	}
	o := &outline{
		language:  language,
		structure: s,
		lines:     strings.Split(code, "\n"),
		known:     make(map[string]bool),
	}

	fns := slices.Clone(s.Functions)
	sort.SliceStable(fns, func(i, j int) bool { return fns[i].LineNumber < fns[j].LineNumber })
	for i, fn := range fns {
		o.known[fn.Name] = true
		end := len(o.lines)
		if i+1 < len(fns) {
			end = fns[i+1].LineNumber - 1
		}
		o.spans = append(o.spans, span{name: fn.Name, start: fn.LineNumber, end: end})
	}
	return o
}

func normalizeLanguage(language string) string {
	switch l := strings.ToLower(strings.TrimSpace(language)); l {
	case "":
		return "python"
	case "js", "jsx", "node":
		return "javascript"
	case "ts", "tsx":
		return "typescript"
	case "py":
		return "python"
	case "golang":
		return "go"
	default:
		return l
	}
}

// owner returns the function whose body contains line, or "".
func (o *outline) owner(line int) string {
	for i := len(o.spans) - 1; i >= 0; i-- {
		if o.spans[i].start <= line && line <= o.spans[i].end {
			return o.spans[i].name
		}
	}
	return ""
}

// body returns the lines of a function after its declaration.
func (o *outline) body(sp span) []string {
	if sp.start < 1 || sp.start > len(o.lines) {
		return nil
	}
	return o.lines[sp.start:min(sp.end, len(o.lines))]
}

// calls maps each function to the known functions it calls, in order of
// first appearance.
func (o *outline) calls() map[string][]string {
	out := make(map[string][]string)
	for _, sp := range o.spans {
		for _, line := range o.body(sp) {
			for _, m := range callPattern.FindAllStringSubmatch(stripLineComment(line), -1) {
				callee := m[1]
				if callee == sp.name || callKeywords[callee] || !o.known[callee] || slices.Contains(out[sp.name], callee) {
					continue
				}
				out[sp.name] = append(out[sp.name], callee)
			}
		}
	}
	return out
}

// control is one control-flow statement.
type control struct {
	keyword string
	line    int
	owner   string
}

func (o *outline) controls() []control {
	pattern, ok := controlPatterns[o.language]
	if !ok && o.language == "typescript" {
		pattern, ok = controlPatterns["javascript"]
	}
	if !ok {
		pattern = genericControl
	}
	var out []control
	for i, line := range o.lines {
		m := pattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		kw := strings.Join(strings.Fields(m[1]), " ")
		out = append(out, control{keyword: kw, line: i + 1, owner: o.owner(i + 1)})
	}
	return out
}

func stripLineComment(line string) string {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"#", "//"} {
		if strings.HasPrefix(trimmed, marker) {
			return ""
		}
	}
	return line
}
