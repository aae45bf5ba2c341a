package validation

import (
	"errors"
	"testing"

	appErrors "smartdocs-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title    string   `json:"title" validate:"notblank,max=10"`
	Language string   `json:"language" validate:"omitempty,langcode"`
	DocID    string   `json:"document_id" validate:"omitempty,docid"`
	Repo     string   `json:"repo_url" validate:"omitempty,githuburl"`
	Kind     string   `json:"kind" validate:"omitempty,oneof=brief detailed"`
	Tags     []string `json:"tags" validate:"max=2"`
}

type rangeRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r rangeRequest) Validate() error {
	if r.From > r.To {
		return errors.New("from must not exceed to")
	}
	return nil
}

func TestStruct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     sampleRequest
		wantErr string
	}{
		{name: "valid", req: sampleRequest{Title: "Intro", Language: "es", DocID: "doc_1", Repo: "https://github.com/a/b", Kind: "brief"}},
		{name: "blank title", req: sampleRequest{Title: "   "}, wantErr: "title: this field is required"},
		{name: "long title", req: sampleRequest{Title: "a very long title"}, wantErr: "title: must be at most 10"},
		{name: "bad language", req: sampleRequest{Title: "x", Language: "english"}, wantErr: "language:"},
		{name: "bad doc id", req: sampleRequest{Title: "x", DocID: "../etc"}, wantErr: "document_id:"},
		{name: "bad repo", req: sampleRequest{Title: "x", Repo: "https://gitlab.com/a/b"}, wantErr: "repo_url:"},
		{name: "oneof", req: sampleRequest{Title: "x", Kind: "huge"}, wantErr: "kind: must be one of: brief, detailed"},
		{name: "too many tags", req: sampleRequest{Title: "x", Tags: []string{"a", "b", "c"}}, wantErr: "tags:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStructRunsSelfValidation(t *testing.T) {
	err := New().Struct(rangeRequest{From: 3, To: 1})

	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
	assert.Contains(t, err.Error(), "from must not exceed to")
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("auto", "langcode"))
	assert.Error(t, v.Var("", "notblank"))
}
