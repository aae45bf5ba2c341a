// Package docs stores documentation documents and serves their CRUD, search,
// template and upload operations.
package docs

import (
	"context"
	"time"
)

// Content types.
const (
	ContentMarkdown = "markdown"
	ContentHTML     = "html"
	ContentRST      = "rst"
	ContentText     = "text"
)

// Statuses.
const (
	StatusDraft     = "draft"
	StatusReview    = "review"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Document is a piece of documentation.
type Document struct {
	ID          string    `json:"doc_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	Language    string    `json:"language"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Author      string    `json:"author"`
	Version     string    `json:"version"`
	Status      string    `json:"status"`
}

func (d *Document) clone() *Document {
	c := *d
	c.Tags = append([]string{}, d.Tags...)
	return &c
}

// Store persists documents. Get, Update and Delete return a NOT_FOUND
// AppError for unknown ids.
type Store interface {
	NextID(ctx context.Context) (string, error)
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	Update(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Document, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
