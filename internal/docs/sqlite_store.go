package docs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	appErrors "smartdocs-backend/pkg/errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists documents in a SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at path. ":memory:" is
// accepted for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("docs: create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("docs: open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("docs: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("docs: migration: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			content      TEXT NOT NULL,
			content_type TEXT NOT NULL,
			language     TEXT NOT NULL,
			tags         TEXT NOT NULL DEFAULT '[]',
			author       TEXT NOT NULL,
			version      TEXT NOT NULL,
			status       TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS counters (
			name  TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) NextID(ctx context.Context) (string, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value) VALUES ('documents', 1)
		ON CONFLICT(name) DO UPDATE SET value = value + 1
		RETURNING value`).Scan(&n)
	if err != nil {
		return "", appErrors.Wrap(err, "failed to allocate document id")
	}
	return fmt.Sprintf("doc_%d", n), nil
}

func (s *SQLiteStore) Create(ctx context.Context, doc *Document) error {
	tags, err := json.Marshal(nonNil(doc.Tags))
	if err != nil {
		return appErrors.Wrap(err, "failed to encode tags")
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, content_type, language, tags, author, version, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		doc.ID, doc.Title, doc.Content, doc.ContentType, doc.Language, string(tags),
		doc.Author, doc.Version, doc.Status, formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return appErrors.Wrap(err, "failed to insert document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewConflict("document already exists: " + doc.ID)
	}
	return nil
}

const selectColumns = `id, title, content, content_type, language, tags, author, version, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var (
		doc                  Document
		tags                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.ContentType, &doc.Language, &tags,
		&doc.Author, &doc.Version, &doc.Status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
		return nil, fmt.Errorf("decode tags of %s: %w", doc.ID, err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &doc, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.NewNotFound("Document not found")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to read document")
	}
	return doc, nil
}

func (s *SQLiteStore) Update(ctx context.Context, doc *Document) error {
	tags, err := json.Marshal(nonNil(doc.Tags))
	if err != nil {
		return appErrors.Wrap(err, "failed to encode tags")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET title = ?, content = ?, content_type = ?, language = ?, tags = ?, author = ?, version = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		doc.Title, doc.Content, doc.ContentType, doc.Language, string(tags),
		doc.Author, doc.Version, doc.Status, formatTime(doc.UpdatedAt), doc.ID,
	)
	if err != nil {
		return appErrors.Wrap(err, "failed to update document")
	}
	return requireAffected(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return appErrors.Wrap(err, "failed to delete document")
	}
	return requireAffected(res)
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM documents`)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to list documents")
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, appErrors.Wrap(err, "failed to read document")
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.Wrap(err, "failed to list documents")
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, appErrors.Wrap(err, "failed to count documents")
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return appErrors.Wrap(err, "failed to read affected rows")
	}
	if n == 0 {
		return appErrors.NewNotFound("Document not found")
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
