package service

import (
	"context"
	"fmt"
	"time"

	"sectrain/internal/cache"
	"sectrain/internal/model"
	"sectrain/internal/repository"
	"sectrain/internal/scoring"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

// ModuleService is the module progression engine. Modules advance strictly in
// index order through locked -> content-generating -> learning ->
// scenario-active -> quiz-active -> scored; every write is a versioned
// compare-then-write.
type ModuleService struct {
	sessions  repository.SessionRepo
	modules   repository.ModuleRepo
	generator ContentGenerator
	grader    FreeTextGrader
	profiles  RoleProfileProvider
	audit     *AuditEmitter
	views     cache.SessionViewCache
	log       *logger.Logger
	metrics   *metrics.Metrics
}

// NewModuleService creates the module progression engine.
func NewModuleService(
	sessions repository.SessionRepo,
	modules repository.ModuleRepo,
	generator ContentGenerator,
	grader FreeTextGrader,
	profiles RoleProfileProvider,
	audit *AuditEmitter,
	views cache.SessionViewCache,
	log *logger.Logger,
	m *metrics.Metrics,
) *ModuleService {
	return &ModuleService{
		sessions:  sessions,
		modules:   modules,
		generator: generator,
		grader:    grader,
		profiles:  profiles,
		audit:     audit,
		views:     views,
		log:       log,
		metrics:   m,
	}
}

// GenerateContent unlocks the next module and fills in its generated content.
// A failed generator call leaves the module content-generating so the call
// can be retried; re-invoking on the current module is a no-op once content
// exists.
func (s *ModuleService) GenerateContent(ctx context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error) {
	module, err := s.generateContent(ctx, tenantID, sessionID, moduleIndex)
	s.observe("generate_content", err)
	return module, err
}

func (s *ModuleService) generateContent(ctx context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error) {
	session, err := s.activeSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	modules, err := s.modules.GetBySession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if moduleIndex < 0 || moduleIndex >= len(modules) {
		return nil, model.ErrNotFound
	}
	for _, m := range modules[:moduleIndex] {
		if m.Status != model.ModuleScored {
			return nil, model.ErrModuleNotUnlockable
		}
	}
	module := modules[moduleIndex]

	switch module.Status {
	case model.ModuleLocked:
		module.Status = model.ModuleContentGenerating
		if err := s.modules.UpdateVersioned(ctx, module); err != nil {
			return nil, err
		}
		s.invalidateView(ctx, tenantID, sessionID)
	case model.ModuleContentGenerating:
		// Retry after a failed or interrupted generation.
	case model.ModuleScored:
		return nil, model.ErrModuleNotUnlockable
	default:
		// Content already present; reloading clients get the module as is.
		return module, nil
	}

	profile, err := s.profiles.FindConfirmed(ctx, tenantID, session.EmployeeID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, model.ErrNoRoleProfile
	}

	content, err := s.generator.GenerateModuleContent(ctx, tenantID, profile, module.Topic)
	if err != nil {
		// Module stays content-generating; the client retries.
		return nil, err
	}

	module.Content = content
	module.Status = model.ModuleLearning
	if err := s.modules.UpdateVersioned(ctx, module); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, sessionID)

	s.log.Info("module content generated",
		"tenantId", tenantID,
		"sessionId", sessionID,
		"moduleIndex", moduleIndex,
		"scenarios", len(content.Scenarios),
		"quizQuestions", len(content.QuizQuestions))
	return module, nil
}

// SubmitScenarioAnswer grades one scenario answer and appends the response.
// Each scenario is answered at most once; a grader failure writes nothing.
func (s *ModuleService) SubmitScenarioAnswer(ctx context.Context, tenantID, sessionID string, moduleIndex int, scenarioID string, sub model.ScenarioSubmission) (*model.ScenarioResult, error) {
	result, err := s.submitScenarioAnswer(ctx, tenantID, sessionID, moduleIndex, scenarioID, sub)
	s.observe("submit_scenario", err)
	return result, err
}

func (s *ModuleService) submitScenarioAnswer(ctx context.Context, tenantID, sessionID string, moduleIndex int, scenarioID string, sub model.ScenarioSubmission) (*model.ScenarioResult, error) {
	if _, err := s.activeSession(ctx, tenantID, sessionID); err != nil {
		return nil, err
	}

	module, err := s.modules.Get(ctx, tenantID, sessionID, moduleIndex)
	if err != nil {
		return nil, err
	}
	if module.Status != model.ModuleLearning && module.Status != model.ModuleScenarioActive {
		return nil, model.ErrInvalidModulePhase
	}

	scenario := module.Content.ScenarioByID(scenarioID)
	if scenario == nil {
		return nil, model.ErrUnknownScenario
	}
	if module.ScenarioResponseFor(scenarioID) != nil {
		return nil, model.ErrScenarioAlreadyAnswered
	}

	response := model.ScenarioResponse{
		ScenarioID: scenarioID,
		AnsweredAt: time.Now().UTC(),
	}
	switch scenario.ResponseType {
	case model.ResponseMultipleChoice:
		response.SelectedOption = sub.SelectedOption
		response.Score = scoring.MultipleChoice(sub.SelectedOption, scenario.AnswerKey)
	case model.ResponseFreeText:
		verdict, err := s.grader.GradeFreeText(ctx, scenario.Prompt, scenario.Rubric, sub.FreeText)
		if err != nil {
			return nil, err
		}
		response.FreeTextResponse = sub.FreeText
		response.Score = verdict.Score
		response.Rationale = verdict.Rationale
	default:
		return nil, fmt.Errorf("scenario %q has unknown response type %q", scenarioID, scenario.ResponseType)
	}

	module.ScenarioResponses = append(module.ScenarioResponses, response)
	if module.Status == model.ModuleLearning {
		module.Status = model.ModuleScenarioActive
	}
	if err := s.modules.UpdateVersioned(ctx, module); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, sessionID)

	return &model.ScenarioResult{
		ScenarioID: scenarioID,
		Score:      response.Score,
		Rationale:  response.Rationale,
		Remaining:  len(module.Content.Scenarios) - len(module.ScenarioResponses),
	}, nil
}

// SubmitQuiz grades a full quiz-answer set, writes it atomically, and scores
// the module. The answer set must cover every question exactly once.
func (s *ModuleService) SubmitQuiz(ctx context.Context, tenantID, sessionID string, moduleIndex int, answers []model.QuizSubmission) (*model.TrainingModule, error) {
	module, err := s.submitQuiz(ctx, tenantID, sessionID, moduleIndex, answers)
	s.observe("submit_quiz", err)
	return module, err
}

func (s *ModuleService) submitQuiz(ctx context.Context, tenantID, sessionID string, moduleIndex int, answers []model.QuizSubmission) (*model.TrainingModule, error) {
	session, err := s.activeSession(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	module, err := s.modules.Get(ctx, tenantID, sessionID, moduleIndex)
	if err != nil {
		return nil, err
	}
	switch module.Status {
	case model.ModuleScenarioActive:
		if !module.ScenariosComplete() {
			return nil, model.ErrInvalidModulePhase
		}
	case model.ModuleQuizActive:
		// Resubmission after a grader failure or a racing submission.
	default:
		return nil, model.ErrInvalidModulePhase
	}

	if err := validateQuizCover(module.Content.QuizQuestions, answers); err != nil {
		return nil, err
	}

	if module.Status == model.ModuleScenarioActive {
		// Claim the quiz before grading so concurrent submissions resolve
		// through the compare-and-swap rather than double-grading.
		module.Status = model.ModuleQuizActive
		if err := s.modules.UpdateVersioned(ctx, module); err != nil {
			return nil, err
		}
		s.invalidateView(ctx, tenantID, sessionID)
	}

	// Grade everything before writing anything: a grader failure must leave
	// no partial quizAnswers entry behind.
	graded := make([]model.QuizAnswer, len(answers))
	for i, a := range answers {
		question := module.Content.QuestionByID(a.QuestionID)
		answer := model.QuizAnswer{QuestionID: a.QuestionID}
		switch question.ResponseType {
		case model.ResponseMultipleChoice:
			answer.SelectedOption = a.SelectedOption
			answer.Score = scoring.MultipleChoice(a.SelectedOption, question.AnswerKey)
		case model.ResponseFreeText:
			verdict, err := s.grader.GradeFreeText(ctx, question.Prompt, question.Rubric, a.FreeText)
			if err != nil {
				return nil, err
			}
			answer.FreeTextResponse = a.FreeText
			answer.Score = verdict.Score
			answer.Rationale = verdict.Rationale
		default:
			return nil, fmt.Errorf("question %q has unknown response type %q", a.QuestionID, question.ResponseType)
		}
		graded[i] = answer
	}

	moduleScore := scoring.ModuleScore(graded)
	module.QuizAnswers = graded
	module.ModuleScore = &moduleScore
	module.Status = model.ModuleScored
	if err := s.modules.UpdateVersioned(ctx, module); err != nil {
		return nil, err
	}
	s.invalidateView(ctx, tenantID, sessionID)

	s.log.Info("module scored",
		"tenantId", tenantID,
		"sessionId", sessionID,
		"moduleIndex", moduleIndex,
		"moduleScore", moduleScore)
	s.audit.Emit(ctx, tenantID, model.EventQuizSubmitted, session.EmployeeID, sessionID, map[string]interface{}{
		"moduleIndex":   moduleIndex,
		"questionCount": len(graded),
	})
	s.audit.Emit(ctx, tenantID, model.EventModuleCompleted, session.EmployeeID, sessionID, map[string]interface{}{
		"moduleIndex": moduleIndex,
		"moduleScore": moduleScore,
	})
	return module, nil
}

// activeSession loads the session and rejects any module mutation on a
// session that is no longer accepting them.
func (s *ModuleService) activeSession(ctx context.Context, tenantID, sessionID string) (*model.TrainingSession, error) {
	session, err := s.sessions.GetByID(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, model.ErrSessionTerminal
	}
	if session.Status != model.SessionInProgress {
		return nil, model.ErrConflict
	}
	return session, nil
}

// validateQuizCover checks that answers cover every question exactly once.
func validateQuizCover(questions []model.QuizQuestion, answers []model.QuizSubmission) error {
	if len(answers) != len(questions) {
		return model.ErrQuizIncomplete
	}
	seen := make(map[string]bool, len(answers))
	for _, a := range answers {
		if seen[a.QuestionID] {
			return model.ErrQuizIncomplete
		}
		seen[a.QuestionID] = true
	}
	for _, q := range questions {
		if !seen[q.ID] {
			return model.ErrQuizIncomplete
		}
	}
	return nil
}

func (s *ModuleService) invalidateView(ctx context.Context, tenantID, sessionID string) {
	if err := s.views.Invalidate(ctx, tenantID, sessionID); err != nil {
		s.log.Warn("session view invalidation failed", "sessionId", sessionID, "error", err)
	}
}

func (s *ModuleService) observe(op string, err error) {
	s.metrics.Operations.WithLabelValues(op, outcomeFor(err)).Inc()
}
