// Package parsing extracts functions, classes and imports from source code
// and endpoints and models from OpenAPI documents.
package parsing

// Function is a function or method found in source.
type Function struct {
	Name       string   `json:"name"`
	Args       []string `json:"args"`
	Decorators []string `json:"decorators"`
	Docstring  string   `json:"docstring"`
	LineNumber int      `json:"line_number"`
	Async      bool     `json:"async"`
}

// Class is a class, struct or interface found in source.
type Class struct {
	Name       string   `json:"name"`
	Bases      []string `json:"bases"`
	Methods    []string `json:"methods"`
	Docstring  string   `json:"docstring"`
	LineNumber int      `json:"line_number"`
}

// Structure is the parsed outline of one source file.
type Structure struct {
	Language        string     `json:"language"`
	Functions       []Function `json:"functions"`
	Classes         []Class    `json:"classes"`
	Imports         []string   `json:"imports"`
	ComplexityScore int        `json:"complexity_score"`
	Documentation   string     `json:"documentation"`
}

// Documented counts functions and classes that carry documentation.
func (s *Structure) Documented() int {
	n := 0
	for _, f := range s.Functions {
		if f.Docstring != "" {
			n++
		}
	}
	for _, c := range s.Classes {
		if c.Docstring != "" {
			n++
		}
	}
	return n
}

func newStructure(language string) *Structure {
	return &Structure{
		Language:  language,
		Functions: []Function{},
		Classes:   []Class{},
		Imports:   []string{},
	}
}

// complexity is one point per function and two per class.
func (s *Structure) score() {
	s.ComplexityScore = len(s.Functions) + 2*len(s.Classes)
}
