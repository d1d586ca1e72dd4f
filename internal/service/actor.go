package service

import (
	"context"

	"go-schoolfeeding/internal/audit"
	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/ws"
	"go-schoolfeeding/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Actor identifies who performs an operation. It is used for attribution only.
type Actor struct {
	UserID     string
	Name       string
	Email      string
	Role       string
	SchoolID   *uuid.UUID
	DistrictID *uuid.UUID
}

// SystemActor is used by CLIs and seeders.
var SystemActor = Actor{UserID: "system", Name: "System"}

// Events publishes the after-commit side effects of an operation: the audit
// trail and the websocket feed. Every field may be nil.
type Events struct {
	sink   audit.Sink
	hub    *ws.Hub
	logger *logrus.Logger
}

func NewEvents(sink audit.Sink, hub *ws.Hub, log *logrus.Logger) *Events {
	return &Events{sink: sink, hub: hub, logger: log}
}

func (e *Events) record(ctx context.Context, actor Actor, action model.AuditAction, resource string, id uuid.UUID, details string) {
	if e == nil || e.sink == nil {
		return
	}
	err := e.sink.Record(ctx, audit.Event{
		ActorID:    actor.UserID,
		ActorName:  actor.Name,
		Action:     action,
		Resource:   resource,
		ResourceID: id.String(),
		Details:    details,
	})
	if err != nil && e.logger != nil {
		logger.LogError(e.logger, resource, string(action), "audit record failed", id.String(), err)
	}
}

func (e *Events) broadcast(kind, action string, data map[string]interface{}, actor Actor, message string) {
	if e == nil {
		return
	}
	payload := map[string]interface{}{
		"type":   kind,
		"action": action,
		"data":   data,
		"user": map[string]interface{}{
			"id":    actor.UserID,
			"name":  actor.Name,
			"email": actor.Email,
		},
		"message": message,
	}
	e.hub.Publish(payload)
}

func (e *Events) logError(module, funcName, context string, data any, err error) {
	if e == nil || e.logger == nil {
		return
	}
	logger.LogError(e.logger, module, funcName, context, data, err)
}
