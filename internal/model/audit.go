package model

import "time"

// Audit event types emitted by the engines. Metadata carries identifiers and
// numbers only; never instructional text, question text, or answers.
const (
	EventSessionStarted       = "training-session-started"
	EventModuleCompleted      = "training-module-completed"
	EventQuizSubmitted        = "training-quiz-submitted"
	EventEvaluationCompleted  = "training-evaluation-completed"
	EventRemediationInitiated = "training-remediation-initiated"
	EventSessionAbandoned     = "training-session-abandoned"
	EventSessionExhausted     = "training-session-exhausted"
)

// AuditEvent is one append-only lifecycle record.
type AuditEvent struct {
	ID         string                 `json:"id" bson:"_id"`
	TenantID   string                 `json:"tenantId" bson:"tenantId"`
	EventType  string                 `json:"eventType" bson:"eventType"`
	EmployeeID string                 `json:"employeeId" bson:"employeeId"`
	SessionID  string                 `json:"sessionId" bson:"sessionId"`
	Timestamp  time.Time              `json:"timestamp" bson:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
}
