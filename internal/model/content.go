package model

// ResponseType defines how an assessed item is answered and graded.
type ResponseType string

const (
	ResponseMultipleChoice ResponseType = "multiple-choice" // exact-match against answer key
	ResponseFreeText       ResponseType = "free-text"       // AI-graded against rubric
)

// ModuleContent is the generated instructional payload for one module.
// Immutable once stored.
type ModuleContent struct {
	Instruction   string         `json:"instruction" bson:"instruction"`
	Scenarios     []Scenario     `json:"scenarios" bson:"scenarios"`
	QuizQuestions []QuizQuestion `json:"quizQuestions" bson:"quizQuestions"`
}

// Scenario is a formative exercise. AnswerKey and Rubric are grading data and
// must never be sent to the client.
type Scenario struct {
	ID           string       `json:"id" bson:"id"`
	Prompt       string       `json:"prompt" bson:"prompt"`
	ResponseType ResponseType `json:"responseType" bson:"responseType"`
	Options      []string     `json:"options,omitempty" bson:"options,omitempty"`
	AnswerKey    string       `json:"answerKey,omitempty" bson:"answerKey,omitempty"`
	Rubric       string       `json:"rubric,omitempty" bson:"rubric,omitempty"`
}

// QuizQuestion is a summative item; quiz scores alone make up the module score.
type QuizQuestion struct {
	ID           string       `json:"id" bson:"id"`
	Prompt       string       `json:"prompt" bson:"prompt"`
	ResponseType ResponseType `json:"responseType" bson:"responseType"`
	Options      []string     `json:"options,omitempty" bson:"options,omitempty"`
	AnswerKey    string       `json:"answerKey,omitempty" bson:"answerKey,omitempty"`
	Rubric       string       `json:"rubric,omitempty" bson:"rubric,omitempty"`
}

// ScenarioByID looks up a scenario in content.
func (c *ModuleContent) ScenarioByID(id string) *Scenario {
	for i := range c.Scenarios {
		if c.Scenarios[i].ID == id {
			return &c.Scenarios[i]
		}
	}
	return nil
}

// QuestionByID looks up a quiz question in content.
func (c *ModuleContent) QuestionByID(id string) *QuizQuestion {
	for i := range c.QuizQuestions {
		if c.QuizQuestions[i].ID == id {
			return &c.QuizQuestions[i]
		}
	}
	return nil
}
