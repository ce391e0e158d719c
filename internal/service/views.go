package service

import "sectrain/internal/model"

// SessionView is the client-safe projection of a session and its modules.
// Answer keys and rubrics never leave the server.
type SessionView struct {
	Session *model.TrainingSession `json:"session"`
	Modules []ModuleView           `json:"modules"`
}

type ModuleView struct {
	ID                string                   `json:"id"`
	ModuleIndex       int                      `json:"moduleIndex"`
	Topic             string                   `json:"topic"`
	Status            model.ModuleStatus       `json:"status"`
	Content           *ContentView             `json:"content,omitempty"`
	ScenarioResponses []model.ScenarioResponse `json:"scenarioResponses"`
	QuizAnswers       []model.QuizAnswer       `json:"quizAnswers"`
	ModuleScore       *float64                 `json:"moduleScore,omitempty"`
}

type ContentView struct {
	Instruction   string     `json:"instruction"`
	Scenarios     []ItemView `json:"scenarios"`
	QuizQuestions []ItemView `json:"quizQuestions"`
}

// ItemView is a scenario or quiz question with grading data stripped.
type ItemView struct {
	ID           string             `json:"id"`
	Prompt       string             `json:"prompt"`
	ResponseType model.ResponseType `json:"responseType"`
	Options      []string           `json:"options,omitempty"`
}

// NewSessionView projects a session and its modules for the client.
func NewSessionView(session *model.TrainingSession, modules []*model.TrainingModule) *SessionView {
	view := &SessionView{
		Session: session,
		Modules: make([]ModuleView, len(modules)),
	}
	for i, m := range modules {
		view.Modules[i] = NewModuleView(m)
	}
	return view
}

// NewModuleView projects one module for the client, stripping answer keys
// and rubrics. Every handler that returns a module must go through here.
func NewModuleView(m *model.TrainingModule) ModuleView {
	view := ModuleView{
		ID:                m.ID,
		ModuleIndex:       m.ModuleIndex,
		Topic:             m.Topic,
		Status:            m.Status,
		ScenarioResponses: m.ScenarioResponses,
		QuizAnswers:       m.QuizAnswers,
		ModuleScore:       m.ModuleScore,
	}
	if m.Content != nil {
		content := &ContentView{
			Instruction:   m.Content.Instruction,
			Scenarios:     make([]ItemView, len(m.Content.Scenarios)),
			QuizQuestions: make([]ItemView, len(m.Content.QuizQuestions)),
		}
		for i, s := range m.Content.Scenarios {
			content.Scenarios[i] = ItemView{
				ID:           s.ID,
				Prompt:       s.Prompt,
				ResponseType: s.ResponseType,
				Options:      s.Options,
			}
		}
		for i, q := range m.Content.QuizQuestions {
			content.QuizQuestions[i] = ItemView{
				ID:           q.ID,
				Prompt:       q.Prompt,
				ResponseType: q.ResponseType,
				Options:      q.Options,
			}
		}
		view.Content = content
	}
	return view
}
