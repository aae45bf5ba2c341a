package visualization

import (
	"context"
	"strings"
	"testing"

	"smartdocs-backend/internal/docs"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocuments map[string]*docs.Document

func (f fakeDocuments) Get(ctx context.Context, id string) (*docs.Document, error) {
	doc, ok := f[id]
	if !ok {
		return nil, appErrors.NewNotFound("Document not found")
	}
	return doc, nil
}

const pythonSample = `import os
from app import db

class Repo(Base):
    def load(self, key):
        if key:
            return fetch(key)
        return None

def fetch(key):
    for item in items():
        pass
    return key

def items():
    return []
`

const jsSample = `const express = require('express');
function listUsers(req, res) {
  fetch('https://api.example.com/users');
}
router.get('/users', listUsers);
`

func TestFlowDiagramFlowchart(t *testing.T) {
	svc := NewService(nil, nil)

	resp, err := svc.FlowDiagram(context.Background(), FlowRequest{Code: pythonSample, Language: "python"})
	require.NoError(t, err)

	assert.False(t, resp.Fallback)
	assert.Equal(t, Flowchart, resp.DiagramType)
	assert.True(t, strings.HasPrefix(resp.MermaidCode, "graph TD"))
	assert.Equal(t, resp.MermaidCode, resp.Diagram)
	assert.Contains(t, resp.MermaidCode, `class_Repo["Repo : Base"]`)
	assert.Contains(t, resp.MermaidCode, "func_load -->|calls| func_fetch")
	assert.Contains(t, resp.MermaidCode, "func_fetch -->|calls| func_items")
	assert.Contains(t, resp.MermaidCode, "class_Repo --> func_load")
	assert.Contains(t, resp.MermaidCode, `control_0{"if"}`)

	assert.Equal(t, 8, resp.Nodes)
	assert.Equal(t, 5, resp.Edges)
	assert.Equal(t, "Medium", resp.Complexity)
	assert.Equal(t, []string{"if", "for"}, resp.Analysis["control_structures"])
	assert.Equal(t, []string{"os", "app.db"}, resp.Analysis["imports"])
}

func TestFlowDiagramSequence(t *testing.T) {
	svc := NewService(nil, nil)

	resp, err := svc.FlowDiagram(context.Background(), FlowRequest{Code: pythonSample, DiagramType: Sequence})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.MermaidCode, "sequenceDiagram"))
	assert.Contains(t, resp.MermaidCode, "User->>API: load()")
	assert.Contains(t, resp.MermaidCode, "Service->>Service: fetch()")
	assert.Equal(t, 3, resp.Nodes)
	assert.Equal(t, 14, resp.Edges)
	assert.Equal(t, "Simple", resp.Complexity)
}

func TestFlowDiagramFallback(t *testing.T) {
	svc := NewService(nil, nil)

	for _, diagram := range []string{Flowchart, Sequence} {
		resp, err := svc.FlowDiagram(context.Background(), FlowRequest{Code: "x = 1", DiagramType: diagram})
		require.NoError(t, err)
		assert.True(t, resp.Fallback)
		assert.Equal(t, 3, resp.Nodes)
		assert.Equal(t, 2, resp.Edges)
		assert.Equal(t, "Simple", resp.Complexity)
		assert.Contains(t, resp.MermaidCode, "start --> process")
	}
}

func TestFlowDiagramFromDocument(t *testing.T) {
	documents := fakeDocuments{"doc_1": {ID: "doc_1", Title: "Users API", Content: jsSample}}
	svc := NewService(documents, nil)
	ctx := context.Background()

	resp, err := svc.FlowDiagram(ctx, FlowRequest{DocumentID: "doc_1", Language: "js"})
	require.NoError(t, err)
	assert.Equal(t, "doc_1", resp.DocumentUsed)
	assert.Equal(t, "Users API", resp.DocumentTitle)
	assert.Contains(t, resp.MermaidCode, "func_listUsers")

	_, err = svc.FlowDiagram(ctx, FlowRequest{DocumentID: "doc_9"})
	assert.True(t, appErrors.IsNotFound(err))

	_, err = NewService(nil, nil).FlowDiagram(ctx, FlowRequest{DocumentID: "doc_1"})
	assert.True(t, appErrors.IsUnavailable(err))

	_, err = svc.FlowDiagram(ctx, FlowRequest{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.FlowDiagram(ctx, FlowRequest{Code: "x", DiagramType: "gantt"})
	assert.True(t, appErrors.IsValidation(err))
}

func TestAPICallGraphPython(t *testing.T) {
	code := `import requests
from flask import Flask

@app.route('/users', methods=['POST'])
def create_user():
    payload = validate()
    db.session.commit()
    return requests.post('https://hooks.example.com/notify')

def validate():
    return {}
`
	svc := NewService(nil, nil)
	resp, err := svc.APICallGraph(context.Background(), CallGraphRequest{Code: code, Language: "python"})
	require.NoError(t, err)

	assert.False(t, resp.Fallback)
	assert.Equal(t, []string{"POST /users"}, resp.Endpoints)
	assert.Equal(t, []string{"https://hooks.example.com/notify"}, resp.ExternalCalls)
	assert.Equal(t, []string{"create_user", "validate"}, resp.InternalFunctions)
	assert.Equal(t, []string{"commit"}, resp.DatabaseCalls)
	assert.Equal(t, []string{"requests", "flask.Flask"}, resp.Dependencies)

	assert.Equal(t, 5, resp.Nodes)
	assert.Equal(t, 4, resp.Edges)
	assert.Contains(t, resp.MermaidCode, "endpoint_POST__users --> func_create_user")
	assert.Contains(t, resp.MermaidCode, "func_create_user -->|HTTP| ext_")
}

func TestAPICallGraphJavaScript(t *testing.T) {
	svc := NewService(nil, nil)
	resp, err := svc.APICallGraph(context.Background(), CallGraphRequest{Code: jsSample, Language: "javascript"})
	require.NoError(t, err)

	assert.Equal(t, []string{"GET /users"}, resp.Endpoints)
	assert.Equal(t, []string{"https://api.example.com/users"}, resp.ExternalCalls)
	assert.Contains(t, resp.InternalFunctions, "listUsers")
	assert.Contains(t, resp.MermaidCode, "endpoint_GET__users --> func_listUsers")
}

func TestAPICallGraphFallback(t *testing.T) {
	svc := NewService(nil, nil)
	resp, err := svc.APICallGraph(context.Background(), CallGraphRequest{Code: "x = 1"})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Equal(t, 4, resp.Nodes)
	assert.Equal(t, 3, resp.Edges)
	assert.Empty(t, resp.Endpoints)
}

func TestMatchEndpoint(t *testing.T) {
	tests := []struct {
		line   string
		method string
		path   string
	}{
		{`@router.delete("/items/{id}")`, "DELETE", "/items/{id}"},
		{`@app.route("/health")`, "GET", "/health"},
		{`r.Post("/api/docs", h.create)`, "POST", "/api/docs"},
		{`mux.HandleFunc("/ping", ping)`, "ANY", "/ping"},
		{`path('articles/', views.list)`, "ANY", "/articles/"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			method, path, ok := matchEndpoint(tt.line)
			require.True(t, ok)
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.path, path)
		})
	}
	_, _, ok := matchEndpoint("x := compute()")
	assert.False(t, ok)
}

const releaseNotes = `# Changelog
## v1.1.0 - 2024-02-01
- Added dark mode theme
- Fixed crash on startup
- Improved caching performance
## v1.0.0 - 2024-01-15
- Initial release with new editor
- Removed legacy importer
`

func TestChangelogSemantic(t *testing.T) {
	svc := NewService(nil, nil)
	resp, err := svc.Changelog(context.Background(), ChangelogRequest{Content: releaseNotes})
	require.NoError(t, err)

	assert.Equal(t, FormatSemantic, resp.Format)
	assert.Equal(t, 5, resp.TotalChanges)
	assert.Equal(t, 2, resp.VersionCount)
	require.NotNil(t, resp.DateRange)
	assert.Equal(t, DateRange{Start: "2024-01-15", End: "2024-02-01"}, *resp.DateRange)

	require.Len(t, resp.VersionHistory, 2)
	latest := resp.VersionHistory[0]
	assert.Equal(t, "v1.1.0", latest.Version)
	assert.Equal(t, "2024-02-01", latest.Date)
	assert.Equal(t, []string{"Added dark mode theme"}, latest.Changes["Added"])
	assert.Equal(t, []string{"Fixed crash on startup"}, latest.Changes["Fixed"])
	assert.Equal(t, []string{"Improved caching performance"}, latest.Changes["Changed"])
	assert.Equal(t, []string{"Removed legacy importer"}, resp.VersionHistory[1].Changes["Removed"])

	assert.Contains(t, resp.Changelog, "## [v1.1.0] - 2024-02-01")
	assert.Contains(t, resp.Changelog, "### Added\n\n- Added dark mode theme")
	assert.Contains(t, resp.MermaidCode, "release_v1_1_0 --> release_v1_0_0")
}

func TestChangelogFeature(t *testing.T) {
	svc := NewService(nil, nil)
	resp, err := svc.Changelog(context.Background(), ChangelogRequest{Content: releaseNotes, Format: "feature-based"})
	require.NoError(t, err)

	assert.Equal(t, FormatFeature, resp.Format)
	assert.Equal(t, 4, resp.TotalChanges)
	cats := map[string]string{}
	for _, e := range resp.Entries {
		cats[e.Description] = e.Category
	}
	assert.Equal(t, map[string]string{
		"Added dark mode theme":           "UI/UX",
		"Fixed crash on startup":          "Bug Fixes",
		"Improved caching performance":    "Performance",
		"Initial release with new editor": "New Features",
	}, cats)
	assert.Contains(t, resp.Changelog, "## UI/UX\n\n- Added dark mode theme (v1.1.0)")
	assert.Contains(t, resp.MermaidCode, "--> release")
}

func TestChangelogChronologicalCommits(t *testing.T) {
	svc := NewService(nil, nil)
	resp, err := svc.Changelog(context.Background(), ChangelogRequest{
		Format: FormatChronological,
		Commits: []Commit{
			{Message: "feat: add search", Date: "2024-03-01T10:00:00Z", Version: "1.2.0"},
			{Message: "fix(api): handle empty body", Date: "2024-03-02"},
			{Message: "Tidy up readme", Date: "2024-03-02"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalChanges)
	assert.Equal(t, 1, resp.VersionCount)
	require.Len(t, resp.VersionHistory, 2)
	assert.Equal(t, "2024-03-02", resp.VersionHistory[0].Date)
	assert.Equal(t, []string{"handle empty body"}, resp.VersionHistory[0].Changes["Fixed"])
	assert.Equal(t, []string{"Tidy up readme"}, resp.VersionHistory[0].Changes["Changed"])
	assert.Equal(t, []string{"add search"}, resp.VersionHistory[1].Changes["Added"])

	assert.Contains(t, resp.Changelog, "## 2024-03-02")
	assert.Contains(t, resp.Changelog, "- **Fixed**: handle empty body")
	assert.Contains(t, resp.Changelog, "## 2024-03-01 (v1.2.0)")
	assert.True(t, strings.HasPrefix(resp.MermaidCode, "timeline"))
}

func TestChangelogValidation(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()

	_, err := svc.Changelog(ctx, ChangelogRequest{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Changelog(ctx, ChangelogRequest{Content: "x", Format: "weekly"})
	assert.True(t, appErrors.IsValidation(err))

	resp, err := svc.Changelog(ctx, ChangelogRequest{Content: "nothing to see"})
	require.NoError(t, err)
	assert.Zero(t, resp.TotalChanges)
	assert.Contains(t, resp.Changelog, "No changes found.")
	assert.Nil(t, resp.DateRange)
}

func TestHealth(t *testing.T) {
	h := NewService(nil, nil).Health()
	assert.Equal(t, "healthy", h["status"])
	assert.Len(t, h["generators"], 3)
}
