package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sectrain/internal/model"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

// AuditEmitter appends lifecycle events after successful state transitions.
// Emission is best-effort: a failed append is logged and counted but never
// fails the operation that triggered it. Metadata must stay identifiers and
// numbers only.
type AuditEmitter struct {
	sink    AuditSink
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewAuditEmitter creates an emitter over a sink.
func NewAuditEmitter(sink AuditSink, log *logger.Logger, m *metrics.Metrics) *AuditEmitter {
	return &AuditEmitter{
		sink:    sink,
		log:     log,
		metrics: m,
	}
}

// Emit appends one event.
func (e *AuditEmitter) Emit(ctx context.Context, tenantID, eventType, employeeID, sessionID string, metadata map[string]interface{}) {
	event := &model.AuditEvent{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		EventType:  eventType,
		EmployeeID: employeeID,
		SessionID:  sessionID,
		Timestamp:  time.Now().UTC(),
		Metadata:   metadata,
	}
	if err := e.sink.Append(ctx, event); err != nil {
		e.metrics.AuditDropped.Inc()
		e.log.Warn("audit append failed",
			"eventType", eventType,
			"tenantId", tenantID,
			"sessionId", sessionID,
			"error", err)
	}
}
