package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// TenantPolicy is the per-tenant grading policy snapshot. It is resolved once
// per operation and pinned on the session via ConfigHash so an attempt is
// always auditable against the policy it was graded under.
type TenantPolicy struct {
	PassThreshold float64 `json:"passThreshold" koanf:"pass_threshold"`
	MaxAttempts   int     `json:"maxAttempts" koanf:"max_attempts"`
	RetentionDays int     `json:"retentionDays" koanf:"retention_days"`
}

// Hash returns a short stable digest of the policy values.
func (p TenantPolicy) Hash() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%.4f|%d|%d", p.PassThreshold, p.MaxAttempts, p.RetentionDays)))
	return hex.EncodeToString(sum[:])[:12]
}

// RoleProfile is an employee's confirmed role assignment; it drives curriculum
// planning and gates session start.
type RoleProfile struct {
	TenantID   string   `json:"tenantId" bson:"tenantId"`
	EmployeeID string   `json:"employeeId" bson:"employeeId"`
	Role       string   `json:"role" bson:"role"`
	Version    string   `json:"version" bson:"version"`
	Confirmed  bool     `json:"confirmed" bson:"confirmed"`
	RiskAreas  []string `json:"riskAreas,omitempty" bson:"riskAreas,omitempty"`
}
