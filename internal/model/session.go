package model

import "time"

type SessionStatus string

const (
	SessionCurriculumGenerating SessionStatus = "curriculum-generating"
	SessionInProgress           SessionStatus = "in-progress"
	SessionEvaluating           SessionStatus = "evaluating"
	SessionPassed               SessionStatus = "passed"
	SessionFailed               SessionStatus = "failed"
	SessionInRemediation        SessionStatus = "in-remediation"
	SessionExhausted            SessionStatus = "exhausted"
	SessionAbandoned            SessionStatus = "abandoned"
)

// Terminal reports whether no further lifecycle operation is permitted.
func (s SessionStatus) Terminal() bool {
	return s == SessionPassed || s == SessionExhausted || s == SessionAbandoned
}

// NextAction tells the client what to do after evaluation.
type NextAction string

const (
	NextActionComplete             NextAction = "complete"
	NextActionRemediationAvailable NextAction = "remediation-available"
	NextActionExhausted            NextAction = "exhausted"
)

// TrainingSession is one full pass through the curriculum by an employee.
// There is at most one non-terminal session per (tenant, employee).
type TrainingSession struct {
	ID                 string        `json:"id" bson:"_id"`
	TenantID           string        `json:"tenantId" bson:"tenantId"`
	EmployeeID         string        `json:"employeeId" bson:"employeeId"`
	AttemptNumber      int           `json:"attemptNumber" bson:"attemptNumber"`
	Status             SessionStatus `json:"status" bson:"status"`
	AggregateScore     *float64      `json:"aggregateScore,omitempty" bson:"aggregateScore,omitempty"`
	NextAction         NextAction    `json:"nextAction,omitempty" bson:"nextAction,omitempty"`
	WeakAreas          []string      `json:"weakAreas,omitempty" bson:"weakAreas,omitempty"`
	ModuleCount        int           `json:"moduleCount" bson:"moduleCount"`
	RoleProfileVersion string        `json:"roleProfileVersion" bson:"roleProfileVersion"`
	ConfigHash         string        `json:"configHash" bson:"configHash"`
	Version            int64         `json:"-" bson:"version"`
	CreatedAt          time.Time     `json:"createdAt" bson:"createdAt"`
	CompletedAt        *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}
