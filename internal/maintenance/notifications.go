package maintenance

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"smartdocs-backend/internal/events"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

// Notification statuses.
const (
	StatusPending      = "pending"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// ChangeRequest is the body of POST /maintenance/notify-change.
type ChangeRequest struct {
	ComponentName  string   `json:"component_name" validate:"notblank"`
	ChangeType     string   `json:"change_type" validate:"required,oneof=added modified removed deleted"`
	FilePath       string   `json:"file_path"`
	CommitHash     string   `json:"commit_hash"`
	AffectedDocs   []string `json:"affected_docs"`
	ActionRequired *bool    `json:"action_required"`
}

// Notification records a code change that may need documentation work.
type Notification struct {
	ID             string    `json:"notification_id"`
	ComponentName  string    `json:"component_name"`
	ChangeType     string    `json:"change_type"`
	FilePath       string    `json:"file_path,omitempty"`
	CommitHash     string    `json:"commit_hash,omitempty"`
	AffectedDocs   []string  `json:"affected_docs"`
	ActionRequired bool      `json:"action_required"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NotificationList is the response of GET /maintenance/notifications.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
}

// NotificationStore persists notifications.
type NotificationStore interface {
	Add(ctx context.Context, n Notification) error
	List(ctx context.Context, status string) ([]Notification, error)
	SetStatus(ctx context.Context, id, status string) (*Notification, error)
	Count(ctx context.Context) (int, error)
}

// MemoryNotificationStore keeps notifications in process memory.
type MemoryNotificationStore struct {
	mu    sync.RWMutex
	items map[string]Notification
}

// NewMemoryNotificationStore creates an empty store.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{items: make(map[string]Notification)}
}

func (m *MemoryNotificationStore) Add(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[n.ID]; exists {
		return appErrors.NewConflict("Notification already exists: " + n.ID)
	}
	m.items[n.ID] = n
	return nil
}

// List returns notifications with the given status, or all when status is
// empty, newest first.
func (m *MemoryNotificationStore) List(ctx context.Context, status string) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Notification{}
	for _, n := range m.items {
		if status == "" || n.Status == status {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryNotificationStore) SetStatus(ctx context.Context, id, status string) (*Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok {
		return nil, appErrors.NewNotFound("Notification not found: " + id)
	}
	n.Status = status
	n.UpdatedAt = time.Now().UTC()
	m.items[id] = n
	return &n, nil
}

func (m *MemoryNotificationStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

// NotifyChange records a code change and publishes it.
func (s *Service) NotifyChange(ctx context.Context, req ChangeRequest) (*Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()

	affected := req.AffectedDocs
	if len(affected) == 0 && req.FilePath != "" {
		affected = candidateDocs(req.FilePath)
	}
	if affected == nil {
		affected = []string{}
	}
	actionRequired := len(affected) > 0
	if req.ActionRequired != nil {
		actionRequired = *req.ActionRequired
	}

	n := Notification{
		ID:             notificationID(req.ComponentName, now),
		ComponentName:  req.ComponentName,
		ChangeType:     req.ChangeType,
		FilePath:       req.FilePath,
		CommitHash:     req.CommitHash,
		AffectedDocs:   affected,
		ActionRequired: actionRequired,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.notifications.Add(ctx, n); err != nil {
		return nil, err
	}
	s.metrics.CountNotification()

	ev := events.New(events.ChangeNotified, n.ID, map[string]any{
		"component_name":  n.ComponentName,
		"change_type":     n.ChangeType,
		"file_path":       n.FilePath,
		"affected_docs":   n.AffectedDocs,
		"action_required": n.ActionRequired,
	})
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish change event", zap.String("notification_id", n.ID), zap.Error(err))
	}

	s.logger.Info("Change notification created",
		zap.String("notification_id", n.ID),
		zap.String("component", n.ComponentName),
		zap.String("change_type", n.ChangeType),
	)
	return &n, nil
}

// Notifications lists notifications, optionally filtered by status.
func (s *Service) Notifications(ctx context.Context, status string) (*NotificationList, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !validStatus(status) {
		return nil, appErrors.NewValidation("status must be one of pending, acknowledged, resolved")
	}
	items, err := s.notifications.List(ctx, status)
	if err != nil {
		return nil, appErrors.NewInternal("Failed to list notifications", err)
	}
	return &NotificationList{Notifications: items, Total: len(items)}, nil
}

// UpdateNotification moves a notification to a new status.
func (s *Service) UpdateNotification(ctx context.Context, id, status string) (*Notification, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validStatus(status) {
		return nil, appErrors.NewValidation("status must be one of pending, acknowledged, resolved")
	}
	return s.notifications.SetStatus(ctx, id, status)
}

func validStatus(status string) bool {
	switch status {
	case StatusPending, StatusAcknowledged, StatusResolved:
		return true
	}
	return false
}

// notificationID is the first 12 hex digits of md5(component + timestamp).
func notificationID(component string, at time.Time) string {
	sum := md5.Sum([]byte(component + at.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:12]
}

// candidateDocs lists where documentation for a code file usually lives.
func candidateDocs(file string) []string {
	file = strings.TrimPrefix(path.Clean(strings.ReplaceAll(file, "\\", "/")), "./")
	base := strings.TrimSuffix(file, path.Ext(file))
	return []string{
		base + ".md",
		path.Join(defaultDocsPath, path.Base(base)+".md"),
	}
}
