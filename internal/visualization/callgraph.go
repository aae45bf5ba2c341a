package visualization

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

var (
	endpointPatterns = []*regexp.Regexp{
		// Flask, FastAPI and Express style route registration.
		regexp.MustCompile(`@?\b(?:app|router|bp|blueprint|api)\.(get|post|put|delete|patch)\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
		// Flask @app.route('/x', methods=['POST']).
		regexp.MustCompile(`@\w+\.route\s*\(\s*['"]([^'"]+)['"](?:[^)]*methods\s*=\s*\[\s*['"](\w+))?`),
		// chi, gorilla and net/http.
		regexp.MustCompile(`\.(Get|Post|Put|Delete|Patch|HandleFunc|Handle)\s*\(\s*"([^"]+)"`),
		// Django path('x/', view).
		regexp.MustCompile(`\b(?:re_)?path\s*\(\s*r?['"]([^'"]*)['"]`),
	}

	externalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:requests|httpx|session|client)\.(?:get|post|put|delete|patch|request)\s*\(\s*f?['"]([^'"]+)['"]`),
		regexp.MustCompile(`\burlopen\s*\(\s*['"]([^'"]+)['"]`),
		regexp.MustCompile(`\bfetch\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
		regexp.MustCompile(`\baxios(?:\.(?:get|post|put|delete|patch))?\s*\(\s*['"` + "`" + `]([^'"` + "`" + `]+)`),
		regexp.MustCompile(`\bhttp\.(?:Get|Post|Head|NewRequest(?:WithContext)?)\s*\((?:[^,"]*,\s*)*"([^"]+)"`),
	}

	databasePattern = regexp.MustCompile(`\.(query|filter|filter_by|execute|executemany|commit|find|find_one|findOne|insert_one|insertOne|insert|update_one|updateOne|save|delete_one|deleteOne|aggregate|QueryContext|QueryRowContext|ExecContext|Query|QueryRow|Exec)\s*\(`)
	sqlPattern      = regexp.MustCompile(`(?i)['"` + "`" + `]\s*(SELECT|INSERT|UPDATE|DELETE)\b`)

	identPattern  = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)
	stringPattern = regexp.MustCompile(`'[^']*'|"[^"]*"|` + "`[^`]*`")
)

// CallGraphRequest is the body of POST /visualizations/api-call-graph.
type CallGraphRequest struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	DocumentID    string `json:"document_id" validate:"omitempty,docid"`
	DocumentTitle string `json:"document_title"`
}

// Validate requires a code source.
func (r CallGraphRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" && r.DocumentID == "" {
		return errNoSource
	}
	return nil
}

// CallGraphResponse is a rendered API call graph.
type CallGraphResponse struct {
	Diagram           string   `json:"diagram"`
	MermaidCode       string   `json:"mermaid_code"`
	Nodes             int      `json:"nodes"`
	Edges             int      `json:"edges"`
	Endpoints         []string `json:"endpoints"`
	ExternalCalls     []string `json:"external_calls"`
	InternalFunctions []string `json:"internal_functions"`
	DatabaseCalls     []string `json:"database_calls"`
	Dependencies      []string `json:"dependencies"`
	Fallback          bool     `json:"fallback"`
	DocumentUsed      string   `json:"document_used,omitempty"`
	DocumentTitle     string   `json:"document_title,omitempty"`
}

// APICallGraph maps route handlers to the functions, external services and
// database operations they reach.
func (s *Service) APICallGraph(ctx context.Context, req CallGraphRequest) (*CallGraphResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	code, title, err := s.source(ctx, req.Code, req.DocumentID, req.DocumentTitle)
	if err != nil {
		return nil, err
	}
	resp := callGraph(newOutline(code, req.Language))
	resp.DocumentUsed = req.DocumentID
	resp.DocumentTitle = title

	s.logger.Debug("API call graph generated",
		zap.Int("endpoints", len(resp.Endpoints)),
		zap.Int("external_calls", len(resp.ExternalCalls)),
		zap.Bool("fallback", resp.Fallback),
	)
	return resp, nil
}

func callGraph(o *outline) *CallGraphResponse {
	resp := &CallGraphResponse{
		Endpoints:         []string{},
		ExternalCalls:     []string{},
		InternalFunctions: []string{},
		DatabaseCalls:     []string{},
		Dependencies:      append([]string{}, o.structure.Imports...),
	}
	g := newGraph("LR")

	for _, fn := range o.structure.Functions {
		if !slices.Contains(resp.InternalFunctions, fn.Name) {
			resp.InternalFunctions = append(resp.InternalFunctions, fn.Name)
			g.node(nodeID("func", fn.Name), fn.Name+"()")
		}
	}
	calls := o.calls()
	for _, sp := range o.spans {
		for _, callee := range calls[sp.name] {
			g.edge(nodeID("func", sp.name), nodeID("func", callee), "")
		}
	}

	for i, line := range o.lines {
		lineNo := i + 1
		text := stripLineComment(line)
		if text == "" {
			continue
		}
		owner := o.owner(lineNo)

		if method, path, ok := matchEndpoint(text); ok {
			label := method + " " + path
			if !slices.Contains(resp.Endpoints, label) {
				resp.Endpoints = append(resp.Endpoints, label)
			}
			id := nodeID("endpoint", label)
			g.shaped(id, label, "[]")
			if handler := o.handlerFor(lineNo, text); handler != "" {
				g.edge(id, nodeID("func", handler), "")
			}
		}

		for _, p := range externalPatterns {
			for _, m := range p.FindAllStringSubmatch(text, -1) {
				target := m[1]
				if !slices.Contains(resp.ExternalCalls, target) {
					resp.ExternalCalls = append(resp.ExternalCalls, target)
				}
				id := nodeID("ext", target)
				g.shaped(id, target, "[[]]")
				if owner != "" {
					g.edge(nodeID("func", owner), id, "HTTP")
				}
			}
		}

		ops := []string{}
		for _, m := range databasePattern.FindAllStringSubmatch(text, -1) {
			ops = append(ops, m[1])
		}
		for _, m := range sqlPattern.FindAllStringSubmatch(text, -1) {
			ops = append(ops, "SQL "+strings.ToUpper(m[1]))
		}
		for _, op := range ops {
			if !slices.Contains(resp.DatabaseCalls, op) {
				resp.DatabaseCalls = append(resp.DatabaseCalls, op)
			}
			id := nodeID("db", op)
			g.shaped(id, op, "[()]")
			if owner != "" {
				g.edge(nodeID("func", owner), id, "")
			}
		}
	}

	if len(g.nodes) == 0 {
		return fallbackCallGraph(resp)
	}
	code := g.String()
	resp.Diagram = code
	resp.MermaidCode = code
	resp.Nodes = len(g.nodes)
	resp.Edges = len(g.edges)
	return resp
}

// matchEndpoint extracts the HTTP method and path of a route registration.
func matchEndpoint(line string) (method, path string, ok bool) {
	if m := endpointPatterns[0].FindStringSubmatch(line); m != nil {
		return strings.ToUpper(m[1]), m[2], true
	}
	if m := endpointPatterns[1].FindStringSubmatch(line); m != nil {
		method = "GET"
		if m[2] != "" {
			method = strings.ToUpper(m[2])
		}
		return method, m[1], true
	}
	if m := endpointPatterns[2].FindStringSubmatch(line); m != nil {
		method = strings.ToUpper(m[1])
		if method == "HANDLEFUNC" || method == "HANDLE" {
			method = "ANY"
		}
		return method, m[2], true
	}
	if m := endpointPatterns[3].FindStringSubmatch(line); m != nil {
		return "ANY", "/" + strings.TrimPrefix(m[1], "/"), true
	}
	return "", "", false
}

// handlerFor finds the function serving a route: a known function named on
// the registration line, else one declared within the next three lines.
func (o *outline) handlerFor(lineNo int, text string) string {
	for _, m := range identPattern.FindAllString(stringPattern.ReplaceAllString(text, ""), -1) {
		if o.known[m] {
			return m
		}
	}
	for _, sp := range o.spans {
		if sp.start > lineNo && sp.start <= lineNo+3 {
			return sp.name
		}
	}
	return ""
}

func fallbackCallGraph(resp *CallGraphResponse) *CallGraphResponse {
	g := newGraph("LR")
	g.shaped("client", "Client", "[]")
	g.node("router", "API Router")
	g.node("handler", "Handler")
	g.shaped("service", "External Service", "[[]]")
	g.edge("client", "router", "")
	g.edge("router", "handler", "")
	g.edge("handler", "service", "")
	code := g.String()
	resp.Diagram = code
	resp.MermaidCode = code
	resp.Nodes = len(g.nodes)
	resp.Edges = len(g.edges)
	resp.Fallback = true
	return resp
}
