package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	appErrors "smartdocs-backend/pkg/errors"
)

const gitHubName = "github"

var repoURLPattern = regexp.MustCompile(`github\.com/([^/\s]+)/([^/\s?#]+)`)

// Repository is the subset of repository metadata SmartDocs uses.
type Repository struct {
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	HTMLURL       string   `json:"html_url"`
	DefaultBranch string   `json:"default_branch"`
	Stars         int      `json:"stargazers_count"`
	Forks         int      `json:"forks_count"`
	Topics        []string `json:"topics"`
}

// ContentEntry is one item of a directory listing.
type ContentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        int    `json:"size"`
	DownloadURL string `json:"download_url"`
}

type fileContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GitHub reads repositories through the REST API. A token is optional for
// public repositories.
type GitHub struct {
	token   string
	baseURL string
	client  *http.Client
	caller  *Caller
}

// NewGitHub creates a GitHub client.
func NewGitHub(token, baseURL string, client *http.Client, caller *Caller) *GitHub {
	if client == nil {
		client = http.DefaultClient
	}
	return &GitHub{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		caller:  caller,
	}
}

// HasToken reports whether authenticated requests are made.
func (g *GitHub) HasToken() bool { return g.token != "" }

// Repo fetches repository metadata.
func (g *GitHub) Repo(ctx context.Context, owner, repo string) (*Repository, error) {
	var out Repository
	if err := g.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns the entries of a directory. An empty path lists the root.
func (g *GitHub) List(ctx context.Context, owner, repo, path string) ([]ContentEntry, error) {
	var out []ContentEntry
	if err := g.get(ctx, contentsPath(owner, repo, path), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// File returns the decoded text of a file.
func (g *GitHub) File(ctx context.Context, owner, repo, path string) (string, error) {
	var out fileContent
	if err := g.get(ctx, contentsPath(owner, repo, path), &out); err != nil {
		return "", err
	}
	if out.Encoding != "base64" {
		return out.Content, nil
	}
	// The API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(out.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", path, err)
	}
	return string(raw), nil
}

func (g *GitHub) get(ctx context.Context, path string, out any) error {
	return g.caller.Do(ctx, gitHubName, func(ctx context.Context) error {
		header := http.Header{}
		header.Set("Accept", "application/vnd.github.v3+json")
		if g.token != "" {
			header.Set("Authorization", "token "+g.token)
		}
		return DoJSON(ctx, g.client, gitHubName, http.MethodGet, g.baseURL+path, header, nil, out)
	})
}

func contentsPath(owner, repo, path string) string {
	p := fmt.Sprintf("/repos/%s/%s/contents", owner, repo)
	path = strings.Trim(path, "/")
	if path == "" {
		return p
	}
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return p + "/" + strings.Join(segments, "/")
}

// ParseRepoURL extracts owner and repository name from a GitHub URL.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	m := repoURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", "", appErrors.NewValidation("invalid GitHub URL: " + raw)
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), nil
}
