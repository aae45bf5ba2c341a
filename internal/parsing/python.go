package parsing

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	pyDef      = regexp.MustCompile(`^(async\s+)?def\s+(\w+)\s*\((.*)\)\s*(?:->\s*[^:]+)?:(.*)$`)
	pyClass    = regexp.MustCompile(`^class\s+(\w+)\s*(?:\((.*)\))?\s*:(.*)$`)
	pyImport   = regexp.MustCompile(`^import\s+(.+)$`)
	pyFrom     = regexp.MustCompile(`^from\s+(\.*[\w.]*)\s+import\s+(.+)$`)
	identifier = regexp.MustCompile(`^[A-Za-z_]\w*$`)
)

// SyntaxError reports source that could not be parsed.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// logicalLine is one statement with bracketed continuations joined.
type logicalLine struct {
	text   string
	line   int
	indent int
}

// logicalLines splits Python source into statements. Comments are dropped,
// string literals are kept verbatim and bracket or backslash continuations
// are joined with a space.
func logicalLines(src string) ([]logicalLine, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var (
		out   []logicalLine
		b     strings.Builder
		depth int
		quote string
		line  = 1
		start = 1
	)
	flush := func() {
		text := b.String()
		if strings.TrimSpace(text) != "" {
			out = append(out, logicalLine{text: strings.TrimSpace(text), line: start, indent: indentOf(text)})
		}
		b.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != "" {
			switch {
			case c == '\\' && i+1 < len(src):
				if src[i+1] == '\n' {
					line++
				}
				b.WriteByte(c)
				b.WriteByte(src[i+1])
				i++
			case strings.HasPrefix(src[i:], quote):
				b.WriteString(quote)
				i += len(quote) - 1
				quote = ""
			case c == '\n':
				if len(quote) == 1 {
					return nil, &SyntaxError{Line: line, Msg: "unterminated string literal"}
				}
				line++
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch c {
		case '#':
			for i+1 < len(src) && src[i+1] != '\n' {
				i++
			}
			continue
		case '"', '\'':
			q := string(c)
			if strings.HasPrefix(src[i:], strings.Repeat(q, 3)) {
				q = strings.Repeat(q, 3)
			}
			quote = q
			b.WriteString(q)
			i += len(q) - 1
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth < 0 {
				return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("unmatched '%c'", c)}
			}
		case '\\':
			if i+1 < len(src) && src[i+1] == '\n' {
				i++
				line++
				b.WriteByte(' ')
				continue
			}
		case '\n':
			line++
			if depth == 0 {
				flush()
				start = line
				continue
			}
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}

	if quote != "" {
		return nil, &SyntaxError{Line: start, Msg: "unterminated string literal"}
	}
	if depth > 0 {
		return nil, &SyntaxError{Line: start, Msg: "bracket was never closed"}
	}
	flush()
	return out, nil
}

func indentOf(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

type pyBlock struct {
	indent int
	class  int
}

// ParsePython outlines Python source by indentation. Methods are reported
// both as functions and on their class.
func ParsePython(code string) (*Structure, error) {
	lines, err := logicalLines(code)
	if err != nil {
		return nil, err
	}

	s := newStructure("python")
	var (
		stack      []pyBlock
		decorators []string
	)
	for i, ll := range lines {
		for len(stack) > 0 && stack[len(stack)-1].indent >= ll.indent {
			stack = stack[:len(stack)-1]
		}
		text := ll.text

		switch {
		case strings.HasPrefix(text, "@"):
			decorators = append(decorators, decoratorName(text))
			continue

		case strings.HasPrefix(text, "def ") || strings.HasPrefix(text, "async def "):
			m := pyDef.FindStringSubmatch(text)
			if m == nil {
				return nil, &SyntaxError{Line: ll.line, Msg: "invalid function definition"}
			}
			fn := Function{
				Name:       m[2],
				Args:       pythonArgs(m[3]),
				Decorators: append([]string{}, decorators...),
				Docstring:  blockDocstring(m[4], lines, i),
				LineNumber: ll.line,
				Async:      m[1] != "",
			}
			s.Functions = append(s.Functions, fn)
			if len(stack) > 0 && stack[len(stack)-1].class >= 0 {
				c := &s.Classes[stack[len(stack)-1].class]
				c.Methods = append(c.Methods, fn.Name)
			}
			stack = append(stack, pyBlock{indent: ll.indent, class: -1})

		case strings.HasPrefix(text, "class "):
			m := pyClass.FindStringSubmatch(text)
			if m == nil {
				return nil, &SyntaxError{Line: ll.line, Msg: "invalid class definition"}
			}
			s.Classes = append(s.Classes, Class{
				Name:       m[1],
				Bases:      pythonBases(m[2]),
				Methods:    []string{},
				Docstring:  blockDocstring(m[3], lines, i),
				LineNumber: ll.line,
			})
			stack = append(stack, pyBlock{indent: ll.indent, class: len(s.Classes) - 1})

		default:
			if m := pyImport.FindStringSubmatch(text); m != nil {
				for _, name := range splitTopLevel(m[1]) {
					if name = importName(name); name != "" {
						s.Imports = append(s.Imports, name)
					}
				}
			} else if m := pyFrom.FindStringSubmatch(text); m != nil {
				module := strings.TrimLeft(m[1], ".")
				names := strings.Trim(strings.TrimSpace(m[2]), "()")
				for _, name := range splitTopLevel(names) {
					if name = importName(name); name != "" {
						s.Imports = append(s.Imports, module+"."+name)
					}
				}
			}
		}
		decorators = decorators[:0]
	}

	s.score()
	return s, nil
}

func decoratorName(text string) string {
	name := strings.TrimPrefix(text, "@")
	if i := strings.IndexByte(name, '('); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func importName(part string) string {
	part = strings.TrimSpace(part)
	if i := strings.Index(part, " as "); i >= 0 {
		part = part[:i]
	}
	return strings.TrimSpace(part)
}

// pythonArgs returns the positional parameter names. Parsing stops at the
// first starred parameter.
func pythonArgs(params string) []string {
	args := []string{}
	for _, p := range splitTopLevel(params) {
		p = strings.TrimSpace(p)
		if p == "" || p == "/" {
			continue
		}
		if strings.HasPrefix(p, "*") {
			break
		}
		if i := strings.IndexAny(p, ":="); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		if identifier.MatchString(p) {
			args = append(args, p)
		}
	}
	return args
}

func pythonBases(list string) []string {
	bases := []string{}
	for _, b := range splitTopLevel(list) {
		b = strings.TrimSpace(b)
		if identifier.MatchString(b) {
			bases = append(bases, b)
		}
	}
	return bases
}

// splitTopLevel splits on commas outside brackets and quotes.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// blockDocstring returns the docstring of the block opened by lines[i]: a
// string literal on the header line itself or as the first body statement.
func blockDocstring(rest string, lines []logicalLine, i int) string {
	if doc, ok := stringLiteral(strings.TrimSpace(rest)); ok {
		return doc
	}
	if i+1 < len(lines) && lines[i+1].indent > lines[i].indent {
		if doc, ok := stringLiteral(lines[i+1].text); ok {
			return doc
		}
	}
	return ""
}

func stringLiteral(text string) (string, bool) {
	text = strings.TrimLeft(text, "rRuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(text) >= 2*len(q) && strings.HasPrefix(text, q) && strings.HasSuffix(text, q) {
			return cleanDoc(text[len(q) : len(text)-len(q)]), true
		}
	}
	return "", false
}

func cleanDoc(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
