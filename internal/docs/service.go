package docs

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"smartdocs-backend/internal/events"
	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/validation"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// CreateRequest creates a document.
type CreateRequest struct {
	Title       string   `json:"title" validate:"notblank,max=200"`
	Content     string   `json:"content" validate:"notblank"`
	ContentType string   `json:"content_type" validate:"omitempty,oneof=markdown html rst text"`
	Language    string   `json:"language" validate:"omitempty,langcode"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author"`
	Version     string   `json:"version"`
}

// UpdateRequest changes the non-nil fields of a document.
type UpdateRequest struct {
	Title   *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
	Version *string   `json:"version"`
	Status  *string   `json:"status" validate:"omitempty,oneof=draft review published archived"`
}

// SearchRequest searches documents by substring.
type SearchRequest struct {
	Query       string   `json:"query" validate:"notblank"`
	Language    string   `json:"language"`
	Tags        []string `json:"tags"`
	ContentType string   `json:"content_type"`
	Limit       int      `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SearchResult is the answer of Search.
type SearchResult struct {
	Results    []*Document `json:"results"`
	Total      int         `json:"total"`
	Query      string      `json:"query"`
	SearchTime float64     `json:"search_time"`
}

// UploadRequest creates a document from an uploaded file.
type UploadRequest struct {
	Filename string
	Data     []byte
	Title    string
	Language string
	Tags     string
	Author   string
}

// Stats summarises the store.
type Stats struct {
	TotalDocuments     int            `json:"total_documents"`
	Languages          map[string]int `json:"languages"`
	ContentTypes       map[string]int `json:"content_types"`
	Statuses           map[string]int `json:"statuses"`
	TemplatesAvailable int            `json:"templates_available"`
}

// Service implements document operations over a Store.
type Service struct {
	store       Store
	validator   *validation.Validator
	publisher   events.Publisher
	metrics     *observability.Collector
	logger      *zap.Logger
	maxFileSize int64
	now         func() time.Time
}

// NewService creates a document service. publisher and metrics may be nil.
func NewService(store Store, publisher events.Publisher, metrics *observability.Collector, logger *zap.Logger, maxFileSize int64) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &Service{
		store:       store,
		validator:   validation.New(),
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
		maxFileSize: maxFileSize,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new draft document.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	id, err := s.store.NextID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &Document{
		ID:          id,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		ContentType: defaultString(req.ContentType, ContentMarkdown),
		Language:    defaultString(req.Language, "en"),
		Tags:        cleanTags(req.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
		Author:      defaultString(req.Author, "anonymous"),
		Version:     defaultString(req.Version, "1.0.0"),
		Status:      StatusDraft,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("Document created", zap.String("doc_id", doc.ID), zap.String("title", doc.Title))
	s.publish(ctx, events.DocumentCreated, doc)
	s.refreshGauge(ctx)
	return doc, nil
}

// Get returns a document.
func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.store.Get(ctx, id)
}

// Update applies the non-nil fields of req.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		doc.Content = *req.Content
	}
	if req.Tags != nil {
		doc.Tags = cleanTags(*req.Tags)
	}
	if req.Version != nil {
		doc.Version = *req.Version
	}
	if req.Status != nil {
		doc.Status = *req.Status
	}
	doc.UpdatedAt = s.now()

	if err := s.store.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.publish(ctx, events.DocumentUpdated, doc)
	return doc, nil
}

// Delete removes a document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Document deleted", zap.String("doc_id", id))
	s.publish(ctx, events.DocumentDeleted, &Document{ID: id})
	s.refreshGauge(ctx)
	return nil
}

// Search returns documents whose title, content or tags contain the query.
// Total counts every match; Results is cut to the limit.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	start := time.Now()

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	query := strings.ToLower(req.Query)
	var matches []*Document
	for _, doc := range all {
		if req.Language != "" && doc.Language != req.Language {
			continue
		}
		if req.ContentType != "" && doc.ContentType != req.ContentType {
			continue
		}
		if len(req.Tags) > 0 && !anyTag(doc.Tags, req.Tags) {
			continue
		}
		if matchesQuery(doc, query) {
			matches = append(matches, doc)
		}
	}
	sortByRecency(matches)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	result := &SearchResult{
		Results:    matches,
		Total:      len(matches),
		Query:      req.Query,
		SearchTime: time.Since(start).Seconds(),
	}
	if len(result.Results) > limit {
		result.Results = result.Results[:limit]
	}
	if result.Results == nil {
		result.Results = []*Document{}
	}
	return result, nil
}

// List returns documents newest first, optionally filtered.
func (s *Service) List(ctx context.Context, language, status string) ([]*Document, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Document, 0, len(all))
	for _, doc := range all {
		if language != "" && doc.Language != language {
			continue
		}
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, doc)
	}
	sortByRecency(out)
	return out, nil
}

// Upload creates a document from a file. The content type follows the
// extension and the title defaults to the file name.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Document, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, appErrors.NewValidation("No file provided")
	}
	if s.maxFileSize > 0 && int64(len(req.Data)) > s.maxFileSize {
		return nil, appErrors.NewValidation("file exceeds the maximum upload size")
	}
	if !utf8.Valid(req.Data) {
		return nil, appErrors.NewValidation("file is not valid UTF-8 text")
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = filepath.Base(req.Filename)
	}

	return s.Create(ctx, CreateRequest{
		Title:       title,
		Content:     string(req.Data),
		ContentType: ContentTypeForFile(req.Filename),
		Language:    req.Language,
		Tags:        strings.Split(req.Tags, ","),
		Author:      req.Author,
	})
}

// Stats counts documents by language, content type and status.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		TotalDocuments:     len(all),
		Languages:          map[string]int{},
		ContentTypes:       map[string]int{},
		Statuses:           map[string]int{},
		TemplatesAvailable: len(builtinTemplates),
	}
	for _, doc := range all {
		stats.Languages[doc.Language]++
		stats.ContentTypes[doc.ContentType]++
		stats.Statuses[doc.Status]++
	}
	return stats, nil
}

// Count returns the number of stored documents.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// ContentTypeForFile maps a file extension to a content type.
func ContentTypeForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return ContentMarkdown
	case ".html", ".htm":
		return ContentHTML
	case ".rst":
		return ContentRST
	default:
		return ContentText
	}
}

func (s *Service) publish(ctx context.Context, eventType string, doc *Document) {
	data := map[string]any{"title": doc.Title, "status": doc.Status}
	if err := s.publisher.Publish(ctx, events.New(eventType, doc.ID, data)); err != nil {
		s.logger.Warn("Failed to publish document event",
			zap.String("event_type", eventType),
			zap.String("doc_id", doc.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) refreshGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.store.Count(ctx); err == nil {
		s.metrics.SetDocuments(n)
	}
}

func matchesQuery(doc *Document, query string) bool {
	if strings.Contains(strings.ToLower(doc.Title), query) || strings.Contains(strings.ToLower(doc.Content), query) {
		return true
	}
	for _, tag := range doc.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func anyTag(docTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range docTags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func sortByRecency(docs []*Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
		}
		return docs[i].ID > docs[j].ID
	})
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
