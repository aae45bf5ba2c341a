// Package maintenance detects documentation drift, records code change
// notifications and suggests documentation updates.
package maintenance

import (
	"context"
	"time"

	"smartdocs-backend/internal/events"
	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/validation"

	"go.uber.org/zap"
)

// Service implements the /api/maintenance operations.
type Service struct {
	fs            FileSystem
	notifications NotificationStore
	publisher     events.Publisher
	metrics       *observability.Collector
	history       *driftHistory
	webhookSecret string
	validator     *validation.Validator
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a maintenance service. A nil publisher logs events.
func NewService(
	fsys FileSystem,
	notifications NotificationStore,
	publisher events.Publisher,
	metrics *observability.Collector,
	webhookSecret string,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	if notifications == nil {
		notifications = NewMemoryNotificationStore()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	return &Service{
		fs:            fsys,
		notifications: notifications,
		publisher:     publisher,
		metrics:       metrics,
		history:       newDriftHistory(),
		webhookSecret: webhookSecret,
		validator:     validation.New(),
		logger:        logger,
		now:           time.Now,
	}
}

// Health reports the state of the maintenance components.
func (s *Service) Health(ctx context.Context) map[string]any {
	total, err := s.notifications.Count(ctx)
	status := "healthy"
	if err != nil {
		s.logger.Warn("Failed to count notifications", zap.Error(err))
		status = "degraded"
	}
	return map[string]any{
		"status":              status,
		"service":             "maintenance",
		"drift_detector":      "active",
		"change_monitor":      "active",
		"update_suggester":    "active",
		"total_notifications": total,
		"drift_reports":       s.history.len(),
		"webhook_verified":    s.webhookSecret != "",
	}
}
