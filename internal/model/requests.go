package model

// ScenarioSubmission is one scenario answer from the client. Exactly one of
// SelectedOption / FreeText is used, depending on the scenario's responseType.
type ScenarioSubmission struct {
	SelectedOption string `json:"selectedOption,omitempty"`
	FreeText       string `json:"freeText,omitempty"`
}

// QuizSubmission is one quiz answer from the client; a full quiz submission
// must cover every question id exactly once.
type QuizSubmission struct {
	QuestionID     string `json:"questionId"`
	SelectedOption string `json:"selectedOption,omitempty"`
	FreeText       string `json:"freeText,omitempty"`
}

// ScenarioResult is returned to the client after a scenario submission.
type ScenarioResult struct {
	ScenarioID string  `json:"scenarioId"`
	Score      float64 `json:"score"`
	Rationale  string  `json:"rationale,omitempty"`
	Remaining  int     `json:"remaining"`
}

// EvaluationOutcome is returned by session evaluation.
type EvaluationOutcome struct {
	SessionID      string        `json:"sessionId"`
	Status         SessionStatus `json:"status"`
	AggregateScore float64       `json:"aggregateScore"`
	Passed         bool          `json:"passed"`
	NextAction     NextAction    `json:"nextAction"`
	WeakAreas      []string      `json:"weakAreas,omitempty"`
}
