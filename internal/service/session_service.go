package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sectrain/internal/cache"
	"sectrain/internal/model"
	"sectrain/internal/repository"
	"sectrain/internal/scoring"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

// SessionService is the session lifecycle engine: start, abandon, evaluate,
// and remediation restarts. All mutations go through versioned
// compare-then-write, so a concurrent request that advanced the state first
// surfaces as ErrConflict and the caller re-fetches.
type SessionService struct {
	sessions repository.SessionRepo
	modules  repository.ModuleRepo
	txn      repository.TxnRunner
	planner  CurriculumPlanner
	profiles RoleProfileProvider
	policies PolicyProvider
	audit    *AuditEmitter
	views    cache.SessionViewCache
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewSessionService creates the session lifecycle engine.
func NewSessionService(
	sessions repository.SessionRepo,
	modules repository.ModuleRepo,
	txn repository.TxnRunner,
	planner CurriculumPlanner,
	profiles RoleProfileProvider,
	policies PolicyProvider,
	audit *AuditEmitter,
	views cache.SessionViewCache,
	log *logger.Logger,
	m *metrics.Metrics,
) *SessionService {
	return &SessionService{
		sessions: sessions,
		modules:  modules,
		txn:      txn,
		planner:  planner,
		profiles: profiles,
		policies: policies,
		audit:    audit,
		views:    views,
		log:      log,
		metrics:  m,
	}
}

// Start creates a fresh attempt for an employee. It requires a confirmed role
// profile and no active session for the same (tenant, employee).
func (s *SessionService) Start(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	session, err := s.start(ctx, tenantID, employeeID, 1)
	s.observe("start", err)
	return session, err
}

// StartRemediation restarts training for an employee whose latest attempt
// failed and who has attempts remaining. The full curriculum is regenerated;
// the failed session is marked in-remediation and superseded.
func (s *SessionService) StartRemediation(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	session, err := s.startRemediation(ctx, tenantID, employeeID)
	s.observe("start_remediation", err)
	return session, err
}

func (s *SessionService) startRemediation(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	latest, err := s.sessions.FindLatest(ctx, tenantID, employeeID)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: no prior attempt", model.ErrRemediationUnavailable)
	}
	if err != nil {
		return nil, err
	}
	if latest.Status != model.SessionFailed {
		return nil, fmt.Errorf("%w: latest session is %s", model.ErrRemediationUnavailable, latest.Status)
	}

	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if latest.AttemptNumber >= policy.MaxAttempts {
		return nil, fmt.Errorf("%w: attempts spent", model.ErrRemediationUnavailable)
	}

	// Supersede the failed attempt first; a lost race means another tab
	// already started remediation.
	latest.Status = model.SessionInRemediation
	if err := s.sessions.UpdateVersioned(ctx, latest); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, latest.ID)

	session, err := s.start(ctx, tenantID, employeeID, latest.AttemptNumber+1)
	if err != nil {
		// Put the failed attempt back so remediation stays available.
		latest.Status = model.SessionFailed
		if rbErr := s.sessions.UpdateVersioned(ctx, latest); rbErr != nil {
			s.log.Error("remediation rollback failed", "sessionId", latest.ID, "error", rbErr)
		}
		return nil, err
	}

	s.audit.Emit(ctx, tenantID, model.EventRemediationInitiated, employeeID, session.ID, map[string]interface{}{
		"attemptNumber":  session.AttemptNumber,
		"priorSessionId": latest.ID,
	})
	return session, nil
}

func (s *SessionService) start(ctx context.Context, tenantID, employeeID string, attemptNumber int) (*model.TrainingSession, error) {
	profile, err := s.profiles.FindConfirmed(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.ErrNoRoleProfile
	}

	if _, err := s.sessions.FindActive(ctx, tenantID, employeeID); err == nil {
		return nil, model.ErrSessionAlreadyActive
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	topics, err := s.planner.PlanCurriculum(ctx, tenantID, profile)
	if err != nil {
		return nil, err
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("curriculum planner returned no topics")
	}

	now := time.Now().UTC()
	session := &model.TrainingSession{
		ID:                 uuid.NewString(),
		TenantID:           tenantID,
		EmployeeID:         employeeID,
		AttemptNumber:      attemptNumber,
		Status:             model.SessionInProgress,
		ModuleCount:        len(topics),
		RoleProfileVersion: profile.Version,
		ConfigHash:         policy.Hash(),
		Version:            1,
		CreatedAt:          now,
	}
	modules := make([]*model.TrainingModule, len(topics))
	for i, topic := range topics {
		modules[i] = &model.TrainingModule{
			ID:                uuid.NewString(),
			SessionID:         session.ID,
			TenantID:          tenantID,
			ModuleIndex:       i,
			Topic:             topic,
			Status:            model.ModuleLocked,
			ScenarioResponses: []model.ScenarioResponse{},
			QuizAnswers:       []model.QuizAnswer{},
			Version:           1,
			UpdatedAt:         now,
		}
	}

	err = s.txn.InTransaction(ctx, func(txCtx context.Context) error {
		if err := s.sessions.Create(txCtx, session); err != nil {
			return err
		}
		return s.modules.CreateMany(txCtx, modules)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("training session started",
		"tenantId", tenantID,
		"sessionId", session.ID,
		"attemptNumber", attemptNumber,
		"moduleCount", len(topics))
	s.audit.Emit(ctx, tenantID, model.EventSessionStarted, employeeID, session.ID, map[string]interface{}{
		"attemptNumber": attemptNumber,
		"moduleCount":   len(topics),
	})
	return session, nil
}

// Abandon terminates a non-terminal session. It consumes an attempt exactly
// like a failed one.
func (s *SessionService) Abandon(ctx context.Context, tenantID, sessionID string) (*model.TrainingSession, error) {
	session, err := s.abandon(ctx, tenantID, sessionID)
	s.observe("abandon", err)
	return session, err
}

func (s *SessionService) abandon(ctx context.Context, tenantID, sessionID string) (*model.TrainingSession, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, model.ErrSessionTerminal
	}
	if session.Status == model.SessionInRemediation {
		// Superseded by a remediation restart; the live attempt is the one
		// to abandon. The caller must refresh.
		return nil, model.ErrConflict
	}

	scored, err := s.modules.CountScored(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session.Status = model.SessionAbandoned
	session.CompletedAt = &now
	if err := s.sessions.UpdateVersioned(ctx, session); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, sessionID)

	s.log.Info("training session abandoned",
		"tenantId", tenantID,
		"sessionId", sessionID,
		"modulesCompleted", scored)
	s.audit.Emit(ctx, tenantID, model.EventSessionAbandoned, session.EmployeeID, sessionID, map[string]interface{}{
		"modulesCompleted": scored,
		"totalModules":     session.ModuleCount,
	})
	return session, nil
}

// Evaluate aggregates module scores into the attempt outcome once every
// module is scored.
func (s *SessionService) Evaluate(ctx context.Context, tenantID, sessionID string) (*model.EvaluationOutcome, error) {
	outcome, err := s.evaluate(ctx, tenantID, sessionID)
	s.observe("evaluate", err)
	return outcome, err
}

func (s *SessionService) evaluate(ctx context.Context, tenantID, sessionID string) (*model.EvaluationOutcome, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, model.ErrSessionTerminal
	}
	if session.Status != model.SessionInProgress && session.Status != model.SessionEvaluating {
		// failed or in-remediation: another actor moved the session on;
		// the caller must refresh.
		return nil, model.ErrConflict
	}

	modules, err := s.modules.GetBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if m.Status != model.ModuleScored {
			return nil, model.ErrIncompleteModules
		}
	}

	// Resolve everything fallible before claiming, so a transient policy or
	// scoring failure leaves the session re-evaluable.
	aggregate, err := scoring.AggregateScore(modules)
	if err != nil {
		return nil, err
	}
	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// Claim the evaluation before writing the outcome, so a concurrent
	// Evaluate loses the compare-and-swap instead of double-writing. A
	// session already in evaluating is a retry after an interrupted run;
	// it skips the claim and relies on the final versioned write.
	if session.Status == model.SessionInProgress {
		session.Status = model.SessionEvaluating
		if err := s.sessions.UpdateVersioned(ctx, session); err != nil {
			return nil, err
		}
	}

	passed := scoring.Passed(aggregate, policy.PassThreshold)
	now := time.Now().UTC()
	session.AggregateScore = &aggregate
	session.CompletedAt = &now
	switch {
	case passed:
		session.Status = model.SessionPassed
		session.NextAction = model.NextActionComplete
	case session.AttemptNumber < policy.MaxAttempts:
		session.Status = model.SessionFailed
		session.NextAction = model.NextActionRemediationAvailable
		session.WeakAreas = scoring.WeakAreas(modules, policy.PassThreshold)
	default:
		session.Status = model.SessionExhausted
		session.NextAction = model.NextActionExhausted
		session.WeakAreas = scoring.WeakAreas(modules, policy.PassThreshold)
	}
	if err := s.sessions.UpdateVersioned(ctx, session); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, sessionID)

	s.log.Info("training session evaluated",
		"tenantId", tenantID,
		"sessionId", sessionID,
		"aggregateScore", aggregate,
		"status", session.Status)
	s.audit.Emit(ctx, tenantID, model.EventEvaluationCompleted, session.EmployeeID, sessionID, map[string]interface{}{
		"aggregateScore": aggregate,
		"passed":         passed,
		"attemptNumber":  session.AttemptNumber,
		"passThreshold":  policy.PassThreshold,
	})
	if session.Status == model.SessionExhausted {
		s.audit.Emit(ctx, tenantID, model.EventSessionExhausted, session.EmployeeID, sessionID, map[string]interface{}{
			"attemptNumber": session.AttemptNumber,
		})
	}

	return &model.EvaluationOutcome{
		SessionID:      sessionID,
		Status:         session.Status,
		AggregateScore: aggregate,
		Passed:         passed,
		NextAction:     session.NextAction,
		WeakAreas:      session.WeakAreas,
	}, nil
}

// GetSession returns the client-safe view of a session and its modules.
func (s *SessionService) GetSession(ctx context.Context, tenantID, sessionID string) (*SessionView, error) {
	var cached SessionView
	hit, err := s.views.Get(ctx, tenantID, sessionID, &cached)
	if err != nil {
		s.log.Warn("session view cache read failed", "sessionId", sessionID, "error", err)
	}
	if hit {
		return &cached, nil
	}

	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	modules, err := s.modules.GetBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	view := NewSessionView(session, modules)
	if err := s.views.Set(ctx, tenantID, sessionID, view); err != nil {
		s.log.Warn("session view cache write failed", "sessionId", sessionID, "error", err)
	}
	return view, nil
}

func (s *SessionService) invalidateView(ctx context.Context, tenantID, sessionID string) {
	if err := s.views.Invalidate(ctx, tenantID, sessionID); err != nil {
		s.log.Warn("session view invalidation failed", "sessionId", sessionID, "error", err)
	}
}

func (s *SessionService) observe(op string, err error) {
	s.metrics.Operations.WithLabelValues(op, outcomeFor(err)).Inc()
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, model.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, model.ErrNoRoleProfile),
		errors.Is(err, model.ErrSessionAlreadyActive),
		errors.Is(err, model.ErrSessionTerminal),
		errors.Is(err, model.ErrModuleNotUnlockable),
		errors.Is(err, model.ErrInvalidModulePhase),
		errors.Is(err, model.ErrScenarioAlreadyAnswered),
		errors.Is(err, model.ErrUnknownScenario),
		errors.Is(err, model.ErrQuizIncomplete),
		errors.Is(err, model.ErrIncompleteModules),
		errors.Is(err, model.ErrRemediationUnavailable):
		return metrics.OutcomePrecondition
	default:
		return metrics.OutcomeError
	}
}
