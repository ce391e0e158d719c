package model

import "time"

type ModuleStatus string

const (
	ModuleLocked            ModuleStatus = "locked"
	ModuleContentGenerating ModuleStatus = "content-generating"
	ModuleLearning          ModuleStatus = "learning"
	ModuleScenarioActive    ModuleStatus = "scenario-active"
	ModuleQuizActive        ModuleStatus = "quiz-active"
	ModuleScored            ModuleStatus = "scored"
)

// TrainingModule is one unit of a session's curriculum. Modules are completed
// strictly in moduleIndex order; content is immutable once generated.
type TrainingModule struct {
	ID                string             `json:"id" bson:"_id"`
	SessionID         string             `json:"sessionId" bson:"sessionId"`
	TenantID          string             `json:"tenantId" bson:"tenantId"`
	ModuleIndex       int                `json:"moduleIndex" bson:"moduleIndex"`
	Topic             string             `json:"topic" bson:"topic"`
	Status            ModuleStatus       `json:"status" bson:"status"`
	Content           *ModuleContent     `json:"content,omitempty" bson:"content,omitempty"`
	ScenarioResponses []ScenarioResponse `json:"scenarioResponses" bson:"scenarioResponses"`
	QuizAnswers       []QuizAnswer       `json:"quizAnswers" bson:"quizAnswers"`
	ModuleScore       *float64           `json:"moduleScore,omitempty" bson:"moduleScore,omitempty"`
	Version           int64              `json:"-" bson:"version"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ScenarioResponse records one graded scenario answer. Scenario scores are
// formative feedback; they never enter the module score.
type ScenarioResponse struct {
	ScenarioID       string    `json:"scenarioId" bson:"scenarioId"`
	SelectedOption   string    `json:"selectedOption,omitempty" bson:"selectedOption,omitempty"`
	FreeTextResponse string    `json:"freeTextResponse,omitempty" bson:"freeTextResponse,omitempty"`
	Score            float64   `json:"score" bson:"score"`
	Rationale        string    `json:"rationale,omitempty" bson:"rationale,omitempty"`
	AnsweredAt       time.Time `json:"answeredAt" bson:"answeredAt"`
}

// QuizAnswer records one graded quiz answer. The full set is written
// atomically on quiz submission.
type QuizAnswer struct {
	QuestionID       string  `json:"questionId" bson:"questionId"`
	SelectedOption   string  `json:"selectedOption,omitempty" bson:"selectedOption,omitempty"`
	FreeTextResponse string  `json:"freeTextResponse,omitempty" bson:"freeTextResponse,omitempty"`
	Score            float64 `json:"score" bson:"score"`
	Rationale        string  `json:"rationale,omitempty" bson:"rationale,omitempty"`
}

// ScenarioResponseFor returns the recorded response for a scenario, if any.
func (m *TrainingModule) ScenarioResponseFor(scenarioID string) *ScenarioResponse {
	for i := range m.ScenarioResponses {
		if m.ScenarioResponses[i].ScenarioID == scenarioID {
			return &m.ScenarioResponses[i]
		}
	}
	return nil
}

// ScenariosComplete reports whether every scenario in content has a response.
func (m *TrainingModule) ScenariosComplete() bool {
	if m.Content == nil {
		return false
	}
	return len(m.ScenarioResponses) == len(m.Content.Scenarios)
}
