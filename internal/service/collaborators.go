// Package service holds the session lifecycle engine and the module
// progression engine, plus the collaborator contracts they consume.
package service

import (
	"context"

	"sectrain/config"
	"sectrain/internal/cache"
	"sectrain/internal/model"
	"sectrain/pkg/logger"
)

// CurriculumPlanner decides the ordered module topics for an employee.
type CurriculumPlanner interface {
	PlanCurriculum(ctx context.Context, tenantID string, profile *model.RoleProfile) ([]string, error)
}

// ContentGenerator produces one module's instructional content. Calls may be
// slow and may fail; the progression engine owns retry semantics.
type ContentGenerator interface {
	GenerateModuleContent(ctx context.Context, tenantID string, profile *model.RoleProfile, topic string) (*model.ModuleContent, error)
}

// FreeTextGrader scores a free-text answer against a rubric.
type FreeTextGrader interface {
	GradeFreeText(ctx context.Context, question, rubric, response string) (*model.FreeTextEvaluation, error)
}

// RoleProfileProvider gates session start on a confirmed role profile.
// A nil profile with nil error means the employee has none.
type RoleProfileProvider interface {
	FindConfirmed(ctx context.Context, tenantID, employeeID string) (*model.RoleProfile, error)
}

// PolicyProvider resolves the tenant policy snapshot for an operation.
type PolicyProvider interface {
	PolicyFor(ctx context.Context, tenantID string) (model.TenantPolicy, error)
}

// AuditSink appends lifecycle events; append-only, best effort.
type AuditSink interface {
	Append(ctx context.Context, event *model.AuditEvent) error
}

// ConfigPolicyProvider serves policies straight from loaded config.
type ConfigPolicyProvider struct {
	cfg *config.Config
}

// NewConfigPolicyProvider creates a config-backed policy provider.
func NewConfigPolicyProvider(cfg *config.Config) *ConfigPolicyProvider {
	return &ConfigPolicyProvider{cfg: cfg}
}

func (p *ConfigPolicyProvider) PolicyFor(_ context.Context, tenantID string) (model.TenantPolicy, error) {
	return p.cfg.PolicyFor(tenantID), nil
}

// CachedPolicyProvider is a read-through redis cache over another provider.
// Cache failures degrade to the inner provider; they never fail the request.
type CachedPolicyProvider struct {
	inner PolicyProvider
	cache cache.PolicyCache
	log   *logger.Logger
}

// NewCachedPolicyProvider wraps inner with a policy cache.
func NewCachedPolicyProvider(inner PolicyProvider, c cache.PolicyCache, log *logger.Logger) *CachedPolicyProvider {
	return &CachedPolicyProvider{inner: inner, cache: c, log: log}
}

func (p *CachedPolicyProvider) PolicyFor(ctx context.Context, tenantID string) (model.TenantPolicy, error) {
	cached, err := p.cache.Get(ctx, tenantID)
	if err != nil {
		p.log.Warn("policy cache read failed", "tenantId", tenantID, "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	policy, err := p.inner.PolicyFor(ctx, tenantID)
	if err != nil {
		return model.TenantPolicy{}, err
	}
	if err := p.cache.Set(ctx, tenantID, &policy); err != nil {
		p.log.Warn("policy cache write failed", "tenantId", tenantID, "error", err)
	}
	return policy, nil
}
