package audit

import (
	"context"
	"time"

	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Event describes one state change worth keeping in the audit trail.
type Event struct {
	ActorID    string            `json:"actor_id"`
	ActorName  string            `json:"actor_name"`
	Action     model.AuditAction `json:"action"`
	Resource   string            `json:"resource"`
	ResourceID string            `json:"resource_id"`
	Status     model.AuditStatus `json:"status"`
	Details    string            `json:"details,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Sink receives audit events. Implementations must not block the caller for long.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

func (e *Event) normalize() {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = model.AuditSuccess
	}
}

// DBSink appends events to the audit_logs table.
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Record(ctx context.Context, e Event) error {
	e.normalize()
	row := model.AuditLog{
		Timestamp:  e.Timestamp,
		ActorID:    e.ActorID,
		ActorName:  e.ActorName,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Status:     e.Status,
		Details:    e.Details,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns the newest entries first, optionally filtered by resource.
func (s *DBSink) List(ctx context.Context, resource string, limit int) ([]model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Order("timestamp DESC, id DESC").Limit(limit)
	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	var logs []model.AuditLog
	err := q.Find(&logs).Error
	return logs, err
}

// MultiSink fans out to every sink and logs, rather than returns, their failures.
type MultiSink struct {
	sinks  []Sink
	logger *logrus.Logger
}

func NewMultiSink(log *logrus.Logger, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: log}
}

func (m *MultiSink) Record(ctx context.Context, e Event) error {
	e.normalize()
	for _, s := range m.sinks {
		if err := s.Record(ctx, e); err != nil && m.logger != nil {
			logger.LogError(m.logger, "audit", "Record", "audit sink failed", e, err)
		}
	}
	return nil
}
