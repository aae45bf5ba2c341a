package parsing

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var httpMethods = []string{"get", "post", "put", "delete", "patch"}

// Endpoint is one operation of an OpenAPI document.
type Endpoint struct {
	Path        string         `json:"path"`
	Method      string         `json:"method"`
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	OperationID string         `json:"operation_id,omitempty"`
	Parameters  []any          `json:"parameters"`
	Responses   map[string]any `json:"responses"`
	Tags        []string       `json:"tags"`
}

// Model is a named schema of an OpenAPI document.
type Model struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required"`
}

// APISpec is the parsed content of an OpenAPI or Swagger document.
type APISpec struct {
	Title     string     `json:"title"`
	Version   string     `json:"version"`
	BaseURL   string     `json:"base_url"`
	Endpoints []Endpoint `json:"endpoints"`
	Models    []Model    `json:"models"`
}

// maxDocumentNodes bounds the values materialized from one document,
// aliases included.
const maxDocumentNodes = 200000

var errDocumentTooLarge = errors.New("document has too many nodes")

// ParseOpenAPI decodes an OpenAPI 3 or Swagger 2 document. Format "json"
// decodes with encoding/json; anything else is read as YAML. Duplicate keys
// keep the last value.
func ParseOpenAPI(content, format string) (*APISpec, error) {
	raw, err := decodeDocument(content, format)
	if err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, errors.New("document is not a mapping")
	}
	_, isOpenAPI := doc["openapi"]
	_, isSwagger := doc["swagger"]
	paths, hasPaths := doc["paths"].(map[string]any)
	if !isOpenAPI && !isSwagger && !hasPaths {
		return nil, errors.New("document has no openapi, swagger or paths field")
	}

	info, _ := doc["info"].(map[string]any)
	spec := &APISpec{
		Title:     str(info["title"]),
		Version:   str(info["version"]),
		BaseURL:   baseURL(doc),
		Endpoints: []Endpoint{},
		Models:    []Model{},
	}

	for _, path := range sortedKeys(paths) {
		ops, _ := paths[path].(map[string]any)
		for _, method := range httpMethods {
			op, ok := ops[method].(map[string]any)
			if !ok {
				continue
			}
			params, _ := op["parameters"].([]any)
			responses, _ := op["responses"].(map[string]any)
			ep := Endpoint{
				Path:        path,
				Method:      strings.ToUpper(method),
				Summary:     str(op["summary"]),
				Description: str(op["description"]),
				OperationID: str(op["operationId"]),
				Parameters:  params,
				Responses:   responses,
				Tags:        strList(op["tags"]),
			}
			if ep.Parameters == nil {
				ep.Parameters = []any{}
			}
			if ep.Responses == nil {
				ep.Responses = map[string]any{}
			}
			spec.Endpoints = append(spec.Endpoints, ep)
		}
	}

	schemas, _ := doc["definitions"].(map[string]any)
	if components, ok := doc["components"].(map[string]any); ok {
		if s, ok := components["schemas"].(map[string]any); ok {
			schemas = s
		}
	}
	for _, name := range sortedKeys(schemas) {
		schema, _ := schemas[name].(map[string]any)
		m := Model{
			Name:       name,
			Type:       str(schema["type"]),
			Properties: map[string]any{},
			Required:   strList(schema["required"]),
		}
		if m.Type == "" {
			m.Type = "object"
		}
		if props, ok := schema["properties"].(map[string]any); ok {
			m.Properties = props
		}
		spec.Models = append(spec.Models, m)
	}
	return spec, nil
}

// Markdown renders the API reference.
func (s *APISpec) Markdown() string {
	title := s.Title
	if title == "" {
		title = "API"
	}
	version := s.Version
	if version == "" {
		version = "Unknown"
	}
	base := s.BaseURL
	if base == "" {
		base = "Not specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# API Documentation for %s\n\n**Version:** %s\n**Base URL:** %s\n\n## Endpoints\n", title, version, base)
	for _, ep := range s.Endpoints {
		summary := ep.Summary
		if summary == "" {
			summary = "No description"
		}
		fmt.Fprintf(&b, "\n### %s %s\n%s\n", ep.Method, ep.Path, summary)
		if ep.Description != "" && ep.Description != ep.Summary {
			fmt.Fprintf(&b, "\n%s\n", ep.Description)
		}
		if len(ep.Parameters) > 0 {
			b.WriteString("\n**Parameters:**\n")
			for _, p := range ep.Parameters {
				pm, _ := p.(map[string]any)
				fmt.Fprintf(&b, "- `%s` (%s)\n", str(pm["name"]), str(pm["in"]))
			}
		}
		if len(ep.Responses) > 0 {
			b.WriteString("\n**Responses:**\n")
			for _, code := range sortedKeys(ep.Responses) {
				rm, _ := ep.Responses[code].(map[string]any)
				fmt.Fprintf(&b, "- `%s`: %s\n", code, str(rm["description"]))
			}
		}
	}
	if len(s.Models) > 0 {
		b.WriteString("\n## Data Models\n")
		for _, m := range s.Models {
			fmt.Fprintf(&b, "\n### %s\nType: %s\n", m.Name, m.Type)
			for _, prop := range sortedKeys(m.Properties) {
				pm, _ := m.Properties[prop].(map[string]any)
				fmt.Fprintf(&b, "- `%s`: %s\n", prop, str(pm["type"]))
			}
		}
	}
	return b.String()
}

func baseURL(doc map[string]any) string {
	if servers, ok := doc["servers"].([]any); ok && len(servers) > 0 {
		if s, ok := servers[0].(map[string]any); ok {
			return str(s["url"])
		}
	}
	host := str(doc["host"])
	if host == "" {
		return ""
	}
	scheme := "https"
	if schemes := strList(doc["schemes"]); len(schemes) > 0 {
		scheme = schemes[0]
	}
	return scheme + "://" + host + str(doc["basePath"])
}

// normalize converts the map[any]any values yaml.v3 produces for non-string
// keys, such as response codes, into map[string]any.
func decodeDocument(content, format string) (any, error) {
	if format == "json" {
		var raw any
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return nil, err
		}
		return raw, nil
	}
	// Decoding into a Node skips the duplicate key scan, which is quadratic
	// in the number of keys of a mapping.
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, err
	}
	budget := maxDocumentNodes
	return nodeValue(&root, &budget)
}

func nodeValue(n *yaml.Node, budget *int) (any, error) {
	if *budget--; *budget < 0 {
		return nil, errDocumentTooLarge
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeValue(n.Content[0], budget)
	case yaml.AliasNode:
		return nodeValue(n.Alias, budget)
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c, budget)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			v, err := nodeValue(val, budget)
			if err != nil {
				return nil, err
			}
			if key.Tag == "!!merge" {
				merged, _ := v.(map[string]any)
				for k, mv := range merged {
					if _, ok := out[k]; !ok {
						out[k] = mv
					}
				}
				continue
			}
			out[key.Value] = v
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, nil
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func strList(v any) []string {
	out := []string{}
	items, _ := v.([]any)
	for _, item := range items {
		out = append(out, str(item))
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
