package visualization

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Diagram types.
const (
	Flowchart = "flowchart"
	Sequence  = "sequence"
)

const (
	maxControls     = 8
	maxImports      = 5
	maxSequenceCall = 6
	maxLabelArgs    = 3
)

// FlowRequest is the body of POST /visualizations/flow-diagram. Either Code
// or DocumentID is required; a document's content replaces Code.
type FlowRequest struct {
	Code          string `json:"code"`
	Language      string `json:"language"`
	DiagramType   string `json:"diagram_type" validate:"omitempty,oneof=flowchart sequence"`
	DocumentID    string `json:"document_id" validate:"omitempty,docid"`
	DocumentTitle string `json:"document_title"`
}

// Validate requires a code source.
func (r FlowRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" && r.DocumentID == "" {
		return errNoSource
	}
	return nil
}

// FlowResponse is a rendered flow diagram.
type FlowResponse struct {
	Diagram       string         `json:"diagram"`
	MermaidCode   string         `json:"mermaid_code"`
	DiagramType   string         `json:"diagram_type"`
	Nodes         int            `json:"nodes"`
	Edges         int            `json:"edges"`
	Complexity    string         `json:"complexity"`
	Description   string         `json:"description"`
	Fallback      bool           `json:"fallback"`
	DocumentUsed  string         `json:"document_used,omitempty"`
	DocumentTitle string         `json:"document_title,omitempty"`
	Analysis      map[string]any `json:"analysis"`
}

// FlowDiagram renders the structure of code as a Mermaid flowchart or
// sequence diagram.
func (s *Service) FlowDiagram(ctx context.Context, req FlowRequest) (*FlowResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	code, title, err := s.source(ctx, req.Code, req.DocumentID, req.DocumentTitle)
	if err != nil {
		return nil, err
	}
	diagramType := req.DiagramType
	if diagramType == "" {
		diagramType = Flowchart
	}

	o := newOutline(code, req.Language)
	var resp *FlowResponse
	if diagramType == Sequence {
		resp = sequenceDiagram(o)
	} else {
		resp = flowchart(o)
	}
	resp.DocumentUsed = req.DocumentID
	resp.DocumentTitle = title

	s.logger.Debug("Flow diagram generated",
		zap.String("language", o.language),
		zap.String("diagram_type", diagramType),
		zap.Int("nodes", resp.Nodes),
		zap.Bool("fallback", resp.Fallback),
	)
	return resp, nil
}

func flowchart(o *outline) *FlowResponse {
	g := newGraph("TD")
	st := o.structure

	classes := []map[string]any{}
	for _, c := range st.Classes {
		label := c.Name
		if len(c.Bases) > 0 {
			label += " : " + strings.Join(c.Bases, ", ")
		}
		g.shaped(nodeID("class", c.Name), label, "[]")
		classes = append(classes, map[string]any{"name": c.Name, "bases": c.Bases, "methods": c.Methods})
	}

	functions := []map[string]any{}
	for _, fn := range st.Functions {
		args := fn.Args
		suffix := ""
		if len(args) > maxLabelArgs {
			args, suffix = args[:maxLabelArgs], ", ..."
		}
		g.node(nodeID("func", fn.Name), fmt.Sprintf("%s(%s%s)", fn.Name, strings.Join(args, ", "), suffix))
		functions = append(functions, map[string]any{"name": fn.Name, "params": fn.Args, "async": fn.Async})
	}
	for _, c := range st.Classes {
		for _, m := range c.Methods {
			g.edge(nodeID("class", c.Name), nodeID("func", m), "")
		}
	}

	calls := o.calls()
	for _, sp := range o.spans {
		for _, callee := range calls[sp.name] {
			g.edge(nodeID("func", sp.name), nodeID("func", callee), "calls")
		}
	}

	controls := o.controls()
	keywords := []string{}
	prev := ""
	for i, c := range controls {
		if i == maxControls {
			break
		}
		id := fmt.Sprintf("control_%d", i)
		g.shaped(id, c.keyword, "{}")
		keywords = append(keywords, c.keyword)
		switch {
		case prev != "" && controls[i-1].owner == c.owner:
			g.edge(prev, id, "")
		case c.owner != "":
			g.edge(nodeID("func", c.owner), id, "")
		}
		prev = id
	}

	imports := []string{}
	for i, imp := range st.Imports {
		if i == maxImports {
			break
		}
		g.shaped(fmt.Sprintf("import_%d", i), imp, "[]")
		imports = append(imports, imp)
	}

	analysis := map[string]any{
		"functions":          functions,
		"classes":            classes,
		"control_structures": keywords,
		"imports":            imports,
		"language":           o.language,
	}
	if len(g.nodes) == 0 {
		resp := fallbackFlow()
		resp.Analysis = analysis
		return resp
	}

	code := g.String()
	return &FlowResponse{
		Diagram:     code,
		MermaidCode: code,
		DiagramType: Flowchart,
		Nodes:       len(g.nodes),
		Edges:       len(g.edges),
		Complexity:  complexity(len(g.nodes)),
		Description: fmt.Sprintf("Flowchart of %d functions, %d classes and %d control structures", len(functions), len(classes), len(keywords)),
		Analysis:    analysis,
	}
}

func sequenceDiagram(o *outline) *FlowResponse {
	fns := o.structure.Functions
	if len(fns) == 0 {
		resp := fallbackFlow()
		resp.Analysis = map[string]any{"functions": []string{}, "language": o.language}
		return resp
	}

	calls := o.calls()
	var b strings.Builder
	b.WriteString("sequenceDiagram\n")
	b.WriteString("    participant User\n    participant API\n    participant Service\n")
	messages := 0
	names := []string{}
	for i, fn := range fns {
		if i == maxSequenceCall {
			break
		}
		names = append(names, fn.Name)
		fmt.Fprintf(&b, "    User->>API: %s()\n", fn.Name)
		fmt.Fprintf(&b, "    API->>Service: process %s\n", fn.Name)
		messages += 2
		for _, callee := range calls[fn.Name] {
			fmt.Fprintf(&b, "    Service->>Service: %s()\n", callee)
			messages++
		}
		b.WriteString("    Service-->>API: result\n    API-->>User: response\n")
		messages += 2
	}
	code := strings.TrimRight(b.String(), "\n")
	return &FlowResponse{
		Diagram:     code,
		MermaidCode: code,
		DiagramType: Sequence,
		Nodes:       len(names),
		Edges:       messages,
		Complexity:  complexity(len(names)),
		Description: fmt.Sprintf("Sequence of %d calls through the API and service layers", len(names)),
		Analysis:    map[string]any{"functions": names, "language": o.language},
	}
}

func fallbackFlow() *FlowResponse {
	g := newGraph("TD")
	g.node("start", "Start")
	g.node("process", "Process")
	g.node("finish", "End")
	g.edge("start", "process", "")
	g.edge("process", "finish", "")
	code := g.String()
	return &FlowResponse{
		Diagram:     code,
		MermaidCode: code,
		DiagramType: Flowchart,
		Nodes:       3,
		Edges:       2,
		Complexity:  "Simple",
		Description: "No functions, classes or control structures were found; showing a generic flow",
		Fallback:    true,
		Analysis:    map[string]any{},
	}
}
