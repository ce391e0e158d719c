package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sectrain/internal/model"
	"sectrain/internal/service"
	"sectrain/pkg/logger"
	"sectrain/pkg/metrics"
)

// fakeSessionRepo is an in-memory SessionRepo with the same versioned
// compare-then-write semantics as the Mongo implementation.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.TrainingSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]model.TrainingSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *model.TrainingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, tenantID, id string) (*model.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.TenantID != tenantID {
		return nil, model.ErrNotFound
	}
	copied := s
	return &copied, nil
}

func (r *fakeSessionRepo) FindActive(_ context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.TenantID != tenantID || s.EmployeeID != employeeID {
			continue
		}
		switch s.Status {
		case model.SessionPassed, model.SessionExhausted, model.SessionAbandoned, model.SessionInRemediation:
			continue
		}
		copied := s
		return &copied, nil
	}
	return nil, model.ErrNotFound
}

func (r *fakeSessionRepo) FindLatest(_ context.Context, tenantID, employeeID string) (*model.TrainingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.TrainingSession
	for _, s := range r.sessions {
		if s.TenantID != tenantID || s.EmployeeID != employeeID {
			continue
		}
		if latest == nil || s.AttemptNumber > latest.AttemptNumber {
			copied := s
			latest = &copied
		}
	}
	if latest == nil {
		return nil, model.ErrNotFound
	}
	return latest, nil
}

func (r *fakeSessionRepo) UpdateVersioned(_ context.Context, session *model.TrainingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.sessions[session.ID]
	if !ok || stored.TenantID != session.TenantID || stored.Version != session.Version {
		return model.ErrConflict
	}
	next := *session
	next.Version = session.Version + 1
	r.sessions[session.ID] = next
	session.Version = next.Version
	return nil
}

func (r *fakeSessionRepo) ListTenantIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]bool)
	var ids []string
	for _, s := range r.sessions {
		if !seen[s.TenantID] {
			seen[s.TenantID] = true
			ids = append(ids, s.TenantID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// setSession force-writes a session, bypassing the version check. Test setup only.
func (r *fakeSessionRepo) setSession(s *model.TrainingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
}

// fakeModuleRepo mirrors the Mongo module repository in memory.
type fakeModuleRepo struct {
	mu      sync.Mutex
	modules map[string]model.TrainingModule
}

func newFakeModuleRepo() *fakeModuleRepo {
	return &fakeModuleRepo{modules: make(map[string]model.TrainingModule)}
}

func (r *fakeModuleRepo) CreateMany(_ context.Context, modules []*model.TrainingModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range modules {
		r.modules[m.ID] = *m
	}
	return nil
}

func (r *fakeModuleRepo) GetBySession(_ context.Context, tenantID, sessionID string) ([]*model.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TrainingModule
	for _, m := range r.modules {
		if m.TenantID == tenantID && m.SessionID == sessionID {
			copied := m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModuleIndex < out[j].ModuleIndex })
	return out, nil
}

func (r *fakeModuleRepo) Get(_ context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.modules {
		if m.TenantID == tenantID && m.SessionID == sessionID && m.ModuleIndex == moduleIndex {
			copied := m
			return &copied, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *fakeModuleRepo) UpdateVersioned(_ context.Context, module *model.TrainingModule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.modules[module.ID]
	if !ok || stored.TenantID != module.TenantID || stored.Version != module.Version {
		return model.ErrConflict
	}
	next := *module
	next.Version = module.Version + 1
	next.UpdatedAt = time.Now().UTC()
	r.modules[module.ID] = next
	module.Version = next.Version
	module.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *fakeModuleRepo) CountScored(_ context.Context, tenantID, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.modules {
		if m.TenantID == tenantID && m.SessionID == sessionID && m.Status == model.ModuleScored {
			n++
		}
	}
	return n, nil
}

func (r *fakeModuleRepo) FindStale(_ context.Context, tenantID string, cutoff time.Time, limit int) ([]*model.TrainingModule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.TrainingModule
	for _, m := range r.modules {
		if m.TenantID == tenantID && m.UpdatedAt.Before(cutoff) {
			copied := m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// setModule force-writes a module, bypassing the version check. Test setup only.
func (r *fakeModuleRepo) setModule(m *model.TrainingModule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[m.ID] = *m
}

// fakeTxn runs the function directly; the in-memory repos need no transaction.
type fakeTxn struct{}

func (fakeTxn) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePlanner struct {
	topics []string
	err    error
}

func (p *fakePlanner) PlanCurriculum(_ context.Context, _ string, _ *model.RoleProfile) ([]string, error) {
	return p.topics, p.err
}

type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	err     error
	content func(topic string) *model.ModuleContent
}

func (g *fakeGenerator) GenerateModuleContent(_ context.Context, _ string, _ *model.RoleProfile, topic string) (*model.ModuleContent, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return g.content(topic), nil
}

type fakeGrader struct {
	grade func(ctx context.Context, question, rubric, response string) (*model.FreeTextEvaluation, error)
}

func (g *fakeGrader) GradeFreeText(ctx context.Context, question, rubric, response string) (*model.FreeTextEvaluation, error) {
	if g.grade != nil {
		return g.grade(ctx, question, rubric, response)
	}
	return &model.FreeTextEvaluation{Score: 1.0, Rationale: "good answer"}, nil
}

type fakeProfiles struct {
	profiles map[string]*model.RoleProfile
}

func (p *fakeProfiles) FindConfirmed(_ context.Context, tenantID, employeeID string) (*model.RoleProfile, error) {
	return p.profiles[tenantID+"/"+employeeID], nil
}

type fakePolicies struct {
	policy model.TenantPolicy
	err    error
}

func (p *fakePolicies) PolicyFor(_ context.Context, _ string) (model.TenantPolicy, error) {
	if p.err != nil {
		return model.TenantPolicy{}, p.err
	}
	return p.policy, nil
}

// captureSink records appended audit events; fail makes every append error.
type captureSink struct {
	mu     sync.Mutex
	events []*model.AuditEvent
	fail   bool
}

func (s *captureSink) Append(_ context.Context, event *model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("audit store down")
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) ofType(eventType string) []*model.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.AuditEvent
	for _, e := range s.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// nopViews is a SessionViewCache that never hits and never fails.
type nopViews struct{}

func (nopViews) Get(_ context.Context, _, _ string, _ interface{}) (bool, error) { return false, nil }
func (nopViews) Set(_ context.Context, _, _ string, _ interface{}) error         { return nil }
func (nopViews) Invalidate(_ context.Context, _, _ string) error                 { return nil }

func sampleContent(topic string) *model.ModuleContent {
	return &model.ModuleContent{
		Instruction: "About " + topic,
		Scenarios: []model.Scenario{
			{
				ID:           "s1",
				Prompt:       "Pick the safe option.",
				ResponseType: model.ResponseMultipleChoice,
				Options:      []string{"Comply", "Decline and report"},
				AnswerKey:    "Decline and report",
			},
			{
				ID:           "s2",
				Prompt:       "Describe your response.",
				ResponseType: model.ResponseFreeText,
				Rubric:       "Looks for reporting.",
			},
		},
		QuizQuestions: []model.QuizQuestion{
			{
				ID:           "q1",
				Prompt:       "Safest first step?",
				ResponseType: model.ResponseMultipleChoice,
				Options:      []string{"Investigate alone", "Report it"},
				AnswerKey:    "Report it",
			},
			{
				ID:           "q2",
				Prompt:       "Why does this matter?",
				ResponseType: model.ResponseFreeText,
				Rubric:       "Looks for a concrete connection.",
			},
		},
	}
}

// env wires both engines over in-memory fakes. Tweak the fakes before using
// the services.
type env struct {
	sessions *fakeSessionRepo
	modules  *fakeModuleRepo
	planner  *fakePlanner
	gen      *fakeGenerator
	grader   *fakeGrader
	profiles *fakeProfiles
	policies *fakePolicies
	sink     *captureSink

	svc  *service.SessionService
	mods *service.ModuleService
}

func newEnv() *env {
	e := &env{
		sessions: newFakeSessionRepo(),
		modules:  newFakeModuleRepo(),
		planner:  &fakePlanner{topics: []string{"Phishing and suspicious email", "Password hygiene and MFA"}},
		gen:      &fakeGenerator{content: sampleContent},
		grader:   &fakeGrader{},
		profiles: &fakeProfiles{profiles: map[string]*model.RoleProfile{
			"t1/e1": {TenantID: "t1", EmployeeID: "e1", Role: "engineer", Version: "v1", Confirmed: true},
		}},
		policies: &fakePolicies{policy: model.TenantPolicy{PassThreshold: 0.8, MaxAttempts: 3, RetentionDays: 90}},
		sink:     &captureSink{},
	}
	log := logger.NewNop()
	m := metrics.NewNop()
	audit := service.NewAuditEmitter(e.sink, log, m)
	e.svc = service.NewSessionService(e.sessions, e.modules, fakeTxn{}, e.planner, e.profiles, e.policies, audit, nopViews{}, log, m)
	e.mods = service.NewModuleService(e.sessions, e.modules, e.gen, e.grader, e.profiles, audit, nopViews{}, log, m)
	return e
}

// completeModule walks one module from locked to scored with correct answers.
func (e *env) completeModule(ctx context.Context, sessionID string, index int) (*model.TrainingModule, error) {
	if _, err := e.mods.GenerateContent(ctx, "t1", sessionID, index); err != nil {
		return nil, err
	}
	if _, err := e.mods.SubmitScenarioAnswer(ctx, "t1", sessionID, index, "s1", model.ScenarioSubmission{SelectedOption: "Decline and report"}); err != nil {
		return nil, err
	}
	if _, err := e.mods.SubmitScenarioAnswer(ctx, "t1", sessionID, index, "s2", model.ScenarioSubmission{FreeText: "I would report it."}); err != nil {
		return nil, err
	}
	return e.mods.SubmitQuiz(ctx, "t1", sessionID, index, []model.QuizSubmission{
		{QuestionID: "q1", SelectedOption: "Report it"},
		{QuestionID: "q2", FreeText: "Because everyone owns security."},
	})
}
