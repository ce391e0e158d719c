package service

import (
	"context"
	"errors"
	"time"

	"sectrain/internal/model"
	"sectrain/internal/repository"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

// PurgeService scrubs free-text answer transcripts from modules of terminal
// sessions once the tenant's retention window has passed. Scores and
// everything else stay. Idempotent; a conflicted or skipped module is picked
// up again on the next run.
type PurgeService struct {
	sessions  repository.SessionRepo
	modules   repository.ModuleRepo
	policies  PolicyProvider
	batchSize int
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewPurgeService creates the retention purge job.
func NewPurgeService(
	sessions repository.SessionRepo,
	modules repository.ModuleRepo,
	policies PolicyProvider,
	batchSize int,
	log *logger.Logger,
	m *metrics.Metrics,
) *PurgeService {
	return &PurgeService{
		sessions:  sessions,
		modules:   modules,
		policies:  policies,
		batchSize: batchSize,
		log:       log,
		metrics:   m,
	}
}

// Run purges every tenant that has sessions and a retention window.
func (s *PurgeService) Run(ctx context.Context) error {
	tenants, err := s.sessions.ListTenantIDs(ctx)
	if err != nil {
		return err
	}
	for _, tenantID := range tenants {
		if err := s.RunTenant(ctx, tenantID); err != nil {
			s.log.Error("tenant purge failed", "tenantId", tenantID, "error", err)
		}
	}
	return nil
}

// RunTenant purges one tenant. Returns the first storage error; individual
// module conflicts are skipped, not failed.
func (s *PurgeService) RunTenant(ctx context.Context, tenantID string) error {
	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return err
	}
	if policy.RetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -policy.RetentionDays)
	stale, err := s.modules.FindStale(ctx, tenantID, cutoff, s.batchSize)
	if err != nil {
		return err
	}

	terminal := make(map[string]bool)
	purged := 0
	for _, module := range stale {
		isTerminal, known := terminal[module.SessionID]
		if !known {
			session, err := s.sessions.GetByID(ctx, tenantID, module.SessionID)
			if err != nil {
				return err
			}
			isTerminal = session.Status.Terminal()
			terminal[module.SessionID] = isTerminal
		}
		// Never purge live data.
		if !isTerminal {
			continue
		}
		if !scrubModule(module) {
			continue
		}
		if err := s.modules.UpdateVersioned(ctx, module); err != nil {
			if errors.Is(err, model.ErrConflict) {
				continue
			}
			return err
		}
		purged++
		s.metrics.ModulesPurged.Inc()
	}

	if purged > 0 {
		s.log.Info("retention purge completed",
			"tenantId", tenantID,
			"modulesPurged", purged,
			"retentionDays", policy.RetentionDays)
	}
	return nil
}

// scrubModule nulls free-text fields in place and reports whether anything
// changed. Scores are untouched.
func scrubModule(module *model.TrainingModule) bool {
	changed := false
	for i := range module.ScenarioResponses {
		r := &module.ScenarioResponses[i]
		if r.FreeTextResponse != "" || r.Rationale != "" {
			r.FreeTextResponse = ""
			r.Rationale = ""
			changed = true
		}
	}
	for i := range module.QuizAnswers {
		a := &module.QuizAnswers[i]
		if a.FreeTextResponse != "" || a.Rationale != "" {
			a.FreeTextResponse = ""
			a.Rationale = ""
			changed = true
		}
	}
	return changed
}
