package parsing

import (
	"regexp"
	"strings"
)

// grammar is the set of line patterns used for one language family. Patterns
// use the named groups name, args, base and path.
type grammar struct {
	functions   []*regexp.Regexp
	classes     []*regexp.Regexp
	imports     []*regexp.Regexp
	importBlock *regexp.Regexp
	blockImport *regexp.Regexp
	comments    []string
	nameFirst   bool
}

var controlKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "sizeof": true, "else": true, "do": true, "new": true,
}

var grammars = map[string]*grammar{
	"javascript": jsGrammar,
	"typescript": jsGrammar,
	"go": {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(?P<name>\w+)\s*(?:\[[^\]]*\])?\((?P<args>[^)]*)\)`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^type\s+(?P<name>\w+)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`),
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"(?P<path>[^"]+)"`),
		},
		importBlock: regexp.MustCompile(`^import\s*\($`),
		blockImport: regexp.MustCompile(`^(?:[\w.]+\s+)?"(?P<path>[^"]+)"`),
		comments:    []string{"//", "/*", "*"},
		nameFirst:   true,
	},
	"java": {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|static|final|synchronized|abstract|native|default)\s+)+[\w<>\[\],.?\s]*?\s*(?P<name>\w+)\s*\((?P<args>[^)]*)\)\s*(?:throws\s+[\w.,\s]+)?\s*[{;]?\s*$`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|abstract|final|static|sealed)\s+)*(?:class|interface|enum|record)\s+(?P<name>\w+)(?:<[^>]*>)?(?:\s+extends\s+(?P<base>[\w.]+))?`),
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^import\s+(?:static\s+)?(?P<path>[\w.*]+)\s*;`),
		},
		comments: []string{"//", "/*", "*"},
	},
	"c":   cGrammar,
	"cpp": cGrammar,
	"rust": {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+(?P<name>\w+)\s*(?:<[^>]*>)?\((?P<args>[^)]*)\)`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+(?P<name>\w+)`),
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^use\s+(?P<path>[\w:{}, *]+);`),
		},
		comments: []string{"///", "//", "/*", "*"},
	},
	"php": {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+(?P<name>\w+)\s*\((?P<args>[^)]*)\)`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^(?:(?:abstract|final)\s+)?(?:class|interface|trait)\s+(?P<name>\w+)(?:\s+extends\s+(?P<base>[\w\\]+))?`),
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^(?:use|require_once|require|include_once|include)\s+\(?['"]?(?P<path>[^'";)]+)`),
		},
		comments: []string{"//", "#", "/*", "*"},
	},
	"ruby": {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^def\s+(?:self\.)?(?P<name>[\w?!=]+)\s*(?:\((?P<args>[^)]*)\))?`),
		},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^(?:class|module)\s+(?P<name>[\w:]+)(?:\s*<\s*(?P<base>[\w:]+))?`),
		},
		imports: []*regexp.Regexp{
			regexp.MustCompile(`^(?:require|require_relative|load)\s+\(?['"](?P<path>[^'"]+)['"]`),
		},
		comments: []string{"#"},
	},
}

var jsGrammar = &grammar{
	functions: []*regexp.Regexp{
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(?P<name>\w+)\s*(?:<[^>]*>)?\((?P<args>[^)]*)\)`),
		regexp.MustCompile(`^(?:export\s+)?(?:const|let|var)\s+(?P<name>\w+)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b[^(]*\((?P<args>[^)]*)\)|\((?P<args2>[^)]*)\)\s*(?::\s*[^=]+)?=>|\w+\s*=>)`),
		regexp.MustCompile(`^(?:(?:public|private|protected|static|async|get|set)\s+)*(?P<name>\w+)\s*\((?P<args>[^)]*)\)\s*(?::\s*[^{]+)?\{\s*$`),
	},
	classes: []*regexp.Regexp{
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:abstract\s+)?(?:class|interface)\s+(?P<name>\w+)(?:<[^>]*>)?(?:\s+extends\s+(?P<base>[\w.]+))?`),
	},
	imports: []*regexp.Regexp{
		regexp.MustCompile(`^import\s+.*?\s+from\s+['"](?P<path>[^'"]+)['"]`),
		regexp.MustCompile(`^import\s+['"](?P<path>[^'"]+)['"]`),
		regexp.MustCompile(`require\(\s*['"](?P<path>[^'"]+)['"]\s*\)`),
	},
	comments: []string{"//", "/*", "*"},
}

var cGrammar = &grammar{
	functions: []*regexp.Regexp{
		regexp.MustCompile(`^(?:(?:static|inline|extern|virtual|const|unsigned|signed)\s+)*[\w:<>]+[\s*&]+(?P<name>[\w:~]+)\s*\((?P<args>[^)]*)\)\s*(?:const\s*)?(?:override\s*)?\{?\s*$`),
	},
	classes: []*regexp.Regexp{
		regexp.MustCompile(`^(?:typedef\s+)?(?:class|struct)\s+(?P<name>\w+)(?:\s*:\s*(?:public|private|protected)?\s*(?P<base>[\w:]+))?\s*\{?\s*$`),
	},
	imports: []*regexp.Regexp{
		regexp.MustCompile(`^#\s*include\s*[<"](?P<path>[^>"]+)[>"]`),
		regexp.MustCompile(`^(?:using\s+namespace|import)\s+(?P<path>[\w:.]+)\s*;`),
	},
	comments: []string{"//", "/*", "*"},
}

// fallbackGrammar recognises the common def/fn/function/class shapes.
var fallbackGrammar = &grammar{
	functions: []*regexp.Regexp{
		regexp.MustCompile(`^(?:(?:pub|export|async|public|private|static)\s+)*(?:def|fn|func|function|sub)\s+(?P<name>\w+)\s*\(?(?P<args>[^)]*)`),
	},
	classes: []*regexp.Regexp{
		regexp.MustCompile(`^(?:(?:pub|export|public|abstract)\s+)*(?:class|struct|module|trait|interface)\s+(?P<name>\w+)`),
	},
	imports: []*regexp.Regexp{
		regexp.MustCompile(`^(?:import|from|use|require|include|#include)\b\s*(?P<path>.+?);?$`),
	},
	comments: []string{"//", "#", "/*", "*", "--"},
}

// ParseGeneric outlines source line by line with the language's grammar. A
// comment directly above a function or class is taken as its documentation.
func ParseGeneric(code, language string) *Structure {
	g, ok := grammars[language]
	if !ok {
		g = fallbackGrammar
	}

	s := newStructure(language)
	var (
		comment  []string
		inImport bool
		current  = -1
		opened   bool
		depth    int
		classEnd int
	)
	for i, raw := range strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		lineNo := i + 1

		switch {
		case line == "":
			comment = nil
			continue
		case inImport:
			if line == ")" {
				inImport = false
			} else if m := g.blockImport.FindStringSubmatch(line); m != nil {
				s.Imports = append(s.Imports, group(g.blockImport, m, "path"))
			}
			continue
		case g.importBlock != nil && g.importBlock.MatchString(line):
			inImport = true
			continue
		case isComment(line, g.comments) && !strings.HasPrefix(line, "#include"):
			comment = append(comment, stripComment(line))
			continue
		}

		if name, base, ok := matchAny(g.classes, line, "name", "base"); ok {
			c := Class{Name: name, Bases: []string{}, Methods: []string{}, Docstring: joinComment(comment), LineNumber: lineNo}
			if base != "" {
				c.Bases = append(c.Bases, base)
			}
			s.Classes = append(s.Classes, c)
			current, classEnd, opened = len(s.Classes)-1, depth, false
		} else if name, args, ok := matchFunction(g.functions, line, g.nameFirst); ok && !controlKeywords[name] {
			s.Functions = append(s.Functions, Function{
				Name:       name,
				Args:       args,
				Decorators: []string{},
				Docstring:  joinComment(comment),
				LineNumber: lineNo,
				Async:      strings.Contains(line, "async "),
			})
			if current >= 0 && opened {
				s.Classes[current].Methods = append(s.Classes[current].Methods, name)
			}
		} else if path, _, ok := matchAny(g.imports, line, "path", ""); ok {
			s.Imports = append(s.Imports, strings.TrimSpace(path))
		}

		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if current >= 0 {
			if depth > classEnd {
				opened = true
			} else if opened {
				current, opened = -1, false
			}
		}
		comment = nil
	}

	s.score()
	return s
}

func isComment(line string, markers []string) bool {
	for _, m := range markers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func stripComment(line string) string {
	line = strings.TrimLeft(line, "/#*-!")
	line = strings.TrimSuffix(strings.TrimSpace(line), "*/")
	return strings.TrimSpace(line)
}

func joinComment(lines []string) string {
	var kept []string
	for _, l := range lines {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

func group(re *regexp.Regexp, m []string, name string) string {
	if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
		return m[i]
	}
	return ""
}

func matchAny(patterns []*regexp.Regexp, line, first, second string) (string, string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(line); m != nil {
			v := group(re, m, first)
			if v == "" {
				continue
			}
			return v, group(re, m, second), true
		}
	}
	return "", "", false
}

func matchFunction(patterns []*regexp.Regexp, line string, nameFirst bool) (string, []string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := group(re, m, "name")
		if name == "" {
			continue
		}
		args := group(re, m, "args")
		if args == "" {
			args = group(re, m, "args2")
		}
		return name, paramNames(args, nameFirst), true
	}
	return "", nil, false
}

// paramNames reduces a parameter list to bare names. Go declares the name
// before the type; the other typed languages after it.
func paramNames(params string, nameFirst bool) []string {
	names := []string{}
	for _, p := range splitTopLevel(params) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if i := strings.IndexAny(p, "=:"); i >= 0 {
			p = strings.TrimSpace(p[:i])
		}
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		name := fields[len(fields)-1]
		if nameFirst {
			name = fields[0]
		}
		name = strings.TrimLeft(name, "*&.$")
		if identifier.MatchString(name) {
			names = append(names, name)
		}
	}
	return names
}
