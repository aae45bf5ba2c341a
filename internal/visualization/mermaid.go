package visualization

import (
	"fmt"
	"strings"
	"unicode"
)

// graph accumulates a Mermaid flowchart. Node ids are unique and edges are
// deduplicated; an edge to an unknown node is dropped.
type graph struct {
	direction string
	nodes     []graphNode
	edges     []graphEdge
	ids       map[string]bool
	edgeSet   map[string]bool
}

type graphNode struct {
	id, label, open, close string
}

type graphEdge struct {
	from, to, label string
}

func newGraph(direction string) *graph {
	return &graph{direction: direction, ids: make(map[string]bool), edgeSet: make(map[string]bool)}
}

// node adds a rounded node and reports whether it was new.
func (g *graph) node(id, label string) bool {
	return g.shaped(id, label, "()")
}

// shaped adds a node drawn with a Mermaid bracket pair such as "[]", "{}"
// or "[()]".
func (g *graph) shaped(id, label, shape string) bool {
	if g.ids[id] {
		return false
	}
	g.ids[id] = true
	half := len(shape) / 2
	g.nodes = append(g.nodes, graphNode{id: id, label: label, open: shape[:half], close: shape[half:]})
	return true
}

func (g *graph) edge(from, to, label string) {
	if from == to || !g.ids[from] || !g.ids[to] {
		return
	}
	key := from + "->" + to
	if g.edgeSet[key] {
		return
	}
	g.edgeSet[key] = true
	g.edges = append(g.edges, graphEdge{from: from, to: to, label: label})
}

func (g *graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "graph %s\n", g.direction)
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "    %s%s\"%s\"%s\n", n.id, n.open, escapeLabel(n.label), n.close)
	}
	for _, e := range g.edges {
		if e.label != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", e.from, escapeLabel(e.label), e.to)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", e.from, e.to)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// nodeID builds a Mermaid-safe identifier.
func nodeID(prefix, name string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('_')
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "/")
	return s
}

// complexity grades a diagram by node count.
func complexity(nodes int) string {
	switch {
	case nodes > 10:
		return "High"
	case nodes > 5:
		return "Medium"
	default:
		return "Simple"
	}
}
