package model

// FreeTextEvaluation is the rubric-grading verdict for one free-text answer.
type FreeTextEvaluation struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}
