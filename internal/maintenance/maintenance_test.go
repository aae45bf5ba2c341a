package maintenance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"smartdocs-backend/internal/events"
	"smartdocs-backend/internal/observability"
	appErrors "smartdocs-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapFileSystem map[string]fstest.MapFS

func (m mapFileSystem) Dir(root string) (fs.FS, error) {
	tree, ok := m[root]
	if !ok {
		return nil, errors.New("no such directory")
	}
	return tree, nil
}

func newTestService(t *testing.T, tree fstest.MapFS, secret string) (*Service, *events.Recorder) {
	t.Helper()
	rec := &events.Recorder{}
	svc := NewService(mapFileSystem{"/repo": tree}, nil, rec, observability.NewCollector("test"), secret, zap.NewNop())
	return svc, rec
}

func sampleRepo() fstest.MapFS {
	now := time.Now()
	return fstest.MapFS{
		"src/app.py":           {Data: []byte("def run():\n    pass\n"), ModTime: now},
		"src/app.md":           {Data: []byte("# App\n"), ModTime: now.Add(-48 * time.Hour)},
		"src/orphan.js":        {Data: []byte("function x() {}\n"), ModTime: now},
		"lib/helper.go":        {Data: []byte("package lib\n"), ModTime: now},
		"docs/helper.md":       {Data: []byte("# Helper\n"), ModTime: now},
		"node_modules/dep.js":  {Data: []byte("module.exports = {}\n"), ModTime: now},
		"node_modules/dep.txt": {Data: []byte("ignored\n"), ModTime: now},
	}
}

func TestDetectDrift(t *testing.T) {
	tree := sampleRepo()
	svc, rec := newTestService(t, tree, "")

	report, err := svc.DetectDrift(context.Background(), DriftRequest{RepoPath: "/repo"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.CodeFiles)
	assert.Equal(t, 2, report.DocFiles)
	assert.Equal(t, 5, report.TotalFiles)
	require.Len(t, report.DriftedFiles, 2)

	byPath := map[string]DriftedFile{}
	for _, f := range report.DriftedFiles {
		byPath[f.FilePath] = f
	}
	assert.Equal(t, DriftOutdated, byPath["src/app.py"].DriftType)
	assert.Equal(t, "high", byPath["src/app.py"].Severity)
	assert.Equal(t, "src/app.md", byPath["src/app.py"].DocFile)
	assert.Equal(t, DriftMissing, byPath["src/orphan.js"].DriftType)
	assert.Equal(t, "medium", byPath["src/orphan.js"].Severity)
	assert.Len(t, byPath["src/app.py"].CodeHash, 64)

	assert.InDelta(t, 0.4, report.DriftScore, 1e-9)
	assert.Equal(t, []string{
		"High documentation drift detected. Consider comprehensive review.",
		"Several code files lack documentation. Prioritize creating missing docs.",
		"Update outdated documentation to match recent code changes.",
	}, report.Recommendations)
	assert.Empty(t, report.ChangedFiles)
	assert.Equal(t, []string{events.DriftDetected}, rec.Types())

	tree["src/app.py"] = &fstest.MapFile{Data: []byte("def run():\n    return 1\n"), ModTime: time.Now()}
	second, err := svc.DetectDrift(context.Background(), DriftRequest{RepoPath: "/repo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/app.py"}, second.ChangedFiles)

	history := svc.DriftHistory(0)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
}

func TestDetectDriftExplicitFiles(t *testing.T) {
	svc, rec := newTestService(t, sampleRepo(), "")

	report, err := svc.DetectDrift(context.Background(), DriftRequest{
		RepoPath:  "/repo",
		CodeFiles: []string{"./lib/helper.go", "missing.go"},
		DocFiles:  []string{"docs/helper.md"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CodeFiles)
	assert.Equal(t, 2, report.TotalFiles)
	assert.Empty(t, report.DriftedFiles)
	assert.Zero(t, report.DriftScore)
	assert.Empty(t, report.Recommendations)
	assert.Empty(t, rec.Events())
}

func TestDetectDriftCustomDocsPath(t *testing.T) {
	now := time.Now()
	tree := fstest.MapFS{
		"pkg/store.rb":      {Data: []byte("class Store\nend\n"), ModTime: now},
		"manual/store.md":   {Data: []byte("# Store\n"), ModTime: now},
		"pkg/other.unknown": {Data: []byte("x"), ModTime: now},
	}
	svc, _ := newTestService(t, tree, "")

	report, err := svc.DetectDrift(context.Background(), DriftRequest{RepoPath: "/repo", DocsPath: "/repo/manual", CodeExtensions: []string{"rb"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.CodeFiles)
	assert.Empty(t, report.DriftedFiles)
}

func TestDetectDriftErrors(t *testing.T) {
	svc, _ := newTestService(t, sampleRepo(), "")
	ctx := context.Background()

	_, err := svc.DetectDrift(ctx, DriftRequest{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.DetectDrift(ctx, DriftRequest{RepoPath: "/nowhere"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.DetectDrift(ctx, DriftRequest{RepoPath: "/repo", DocsPath: "/elsewhere/docs"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.DetectDrift(ctx, DriftRequest{RepoPath: "/repo", DocsPath: "../docs"})
	assert.True(t, appErrors.IsValidation(err))
}

func TestNotifyChange(t *testing.T) {
	svc, rec := newTestService(t, nil, "")
	ctx := context.Background()

	n, err := svc.NotifyChange(ctx, ChangeRequest{
		ComponentName: "auth",
		ChangeType:    "modified",
		FilePath:      "src/auth.py",
	})
	require.NoError(t, err)
	assert.Len(t, n.ID, 12)
	assert.Equal(t, StatusPending, n.Status)
	assert.Equal(t, []string{"src/auth.md", "docs/auth.md"}, n.AffectedDocs)
	assert.True(t, n.ActionRequired)
	assert.Equal(t, []string{events.ChangeNotified}, rec.Types())

	off := false
	quiet, err := svc.NotifyChange(ctx, ChangeRequest{ComponentName: "cli", ChangeType: "added", ActionRequired: &off})
	require.NoError(t, err)
	assert.Empty(t, quiet.AffectedDocs)
	assert.False(t, quiet.ActionRequired)

	_, err = svc.NotifyChange(ctx, ChangeRequest{ComponentName: "x", ChangeType: "renamed"})
	assert.True(t, appErrors.IsValidation(err))

	list, err := svc.Notifications(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)

	updated, err := svc.UpdateNotification(ctx, n.ID, "acknowledged")
	require.NoError(t, err)
	assert.Equal(t, StatusAcknowledged, updated.Status)

	list, err = svc.Notifications(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	all, err := svc.Notifications(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	_, err = svc.UpdateNotification(ctx, "missing", "resolved")
	assert.True(t, appErrors.IsNotFound(err))

	_, err = svc.Notifications(ctx, "archived")
	assert.True(t, appErrors.IsValidation(err))
}

func TestNotificationID(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, notificationID("auth", at), notificationID("auth", at))
	assert.NotEqual(t, notificationID("auth", at), notificationID("auth", at.Add(time.Nanosecond)))
	assert.Len(t, notificationID("auth", at), 12)
}

func TestSuggestRequestShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"object", `{"code_changes":[{"file_path":"a.py","change_type":"added"}]}`, 1},
		{"bare array", ` [{"file_path":"a.py","change_type":"added"},{"file_path":"b.py","change_type":"modified"}]`, 2},
		{"empty object", `{}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SuggestRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Len(t, req.CodeChanges, tt.want)
		})
	}
}

func TestSuggestUpdates(t *testing.T) {
	tests := []struct {
		change     CodeChange
		kind       string
		priority   string
		confidence float64
	}{
		{CodeChange{FilePath: "src/api.py", ChangeType: "added"}, "add_section", "high", 0.9},
		{CodeChange{FilePath: "src/api.py", ChangeType: "modified"}, "update_section", "medium", 0.7},
		{CodeChange{FilePath: "src/api.py", ChangeType: "removed"}, "remove_section", "medium", 0.8},
	}
	for _, tt := range tests {
		t.Run(tt.change.ChangeType, func(t *testing.T) {
			s := SuggestForChange(tt.change)
			assert.Equal(t, "docs/api.md", s.DocFile)
			assert.Equal(t, tt.priority, s.Priority)
			assert.Equal(t, "5 minutes", s.EstimatedEffort)
			require.Len(t, s.SuggestedChanges, 1)
			assert.Equal(t, tt.kind, s.SuggestedChanges[0].Type)
			assert.Equal(t, "api", s.SuggestedChanges[0].Section)
			assert.Equal(t, tt.confidence, s.SuggestedChanges[0].Confidence)
		})
	}

	svc, _ := newTestService(t, nil, "")
	resp, err := svc.SuggestUpdates(SuggestRequest{CodeChanges: []CodeChange{
		{FilePath: "a.go", ChangeType: "added"},
		{FilePath: "b.go", ChangeType: "deleted", ComponentName: "billing"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "billing", resp.Suggestions[1].SuggestedChanges[0].Section)

	_, err = svc.SuggestUpdates(SuggestRequest{})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.SuggestUpdates(SuggestRequest{CodeChanges: []CodeChange{{FilePath: "a.go", ChangeType: "moved"}}})
	assert.True(t, appErrors.IsValidation(err))
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGitHubWebhook(t *testing.T) {
	const secret = "s3cret"
	payload := []byte(`{
		"ref": "refs/heads/main",
		"repository": {"full_name": "acme/widgets"},
		"commits": [
			{"id": "abc123", "added": ["src/new.py", "README.md"], "modified": ["lib/a.go"], "removed": []},
			{"id": "def456", "added": [], "modified": [], "removed": ["web/old.js"]}
		]
	}`)

	t.Run("push", func(t *testing.T) {
		svc, rec := newTestService(t, nil, secret)
		res, err := svc.GitHubWebhook(context.Background(), "push", payload, sign(secret, payload))
		require.NoError(t, err)
		assert.Equal(t, "webhook processed", res.Status)
		assert.Equal(t, 3, res.Processed)
		assert.Len(t, rec.Events(), 3)

		list, err := svc.Notifications(context.Background(), "")
		require.NoError(t, err)
		types := map[string]string{}
		for _, n := range list.Notifications {
			types[n.FilePath] = n.ChangeType
		}
		assert.Equal(t, map[string]string{"src/new.py": "added", "lib/a.go": "modified", "web/old.js": "removed"}, types)
	})

	t.Run("bad signature", func(t *testing.T) {
		svc, _ := newTestService(t, nil, secret)
		_, err := svc.GitHubWebhook(context.Background(), "push", payload, sign("wrong", payload))
		assert.True(t, appErrors.IsUnauthorized(err))

		_, err = svc.GitHubWebhook(context.Background(), "push", payload, "")
		assert.True(t, appErrors.IsUnauthorized(err))
	})

	t.Run("ping", func(t *testing.T) {
		svc, _ := newTestService(t, nil, "")
		res, err := svc.GitHubWebhook(context.Background(), "ping", []byte(`{}`), "")
		require.NoError(t, err)
		assert.Equal(t, "pong", res.Status)
	})

	t.Run("invalid payload", func(t *testing.T) {
		svc, _ := newTestService(t, nil, "")
		_, err := svc.GitHubWebhook(context.Background(), "push", []byte(`not json`), "")
		assert.True(t, appErrors.IsValidation(err))
	})
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"a":1}`)
	assert.True(t, VerifySignature("", body, ""))
	assert.True(t, VerifySignature("k", body, sign("k", body)))
	assert.False(t, VerifySignature("k", body, "sha1=abc"))
	assert.False(t, VerifySignature("k", body, "sha256=zz"))
}

func TestHealth(t *testing.T) {
	svc, _ := newTestService(t, sampleRepo(), "k")
	_, err := svc.NotifyChange(context.Background(), ChangeRequest{ComponentName: "a", ChangeType: "added"})
	require.NoError(t, err)

	h := svc.Health(context.Background())
	assert.Equal(t, "healthy", h["status"])
	assert.Equal(t, 1, h["total_notifications"])
	assert.Equal(t, 0, h["drift_reports"])
	assert.Equal(t, true, h["webhook_verified"])
}
