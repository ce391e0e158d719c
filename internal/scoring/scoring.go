// Package scoring holds the pure scoring and aggregation rules. Multiple
// choice is exact-match with no partial credit; module and session scores are
// arithmetic means; all values live in [0,1].
package scoring

import (
	"fmt"

	"sectrain/internal/model"
)

// MultipleChoice scores a submitted option against the stored answer key.
func MultipleChoice(selected, answerKey string) float64 {
	if selected != "" && selected == answerKey {
		return 1.0
	}
	return 0.0
}

// Clamp01 bounds a score into [0,1]. AI-produced scores pass through here
// before they are stored.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mean returns the arithmetic mean of vs, or 0 for an empty slice.
func Mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// ModuleScore aggregates a full quiz-answer set. Scenario responses are
// deliberately excluded; they are formative only.
func ModuleScore(answers []model.QuizAnswer) float64 {
	scores := make([]float64, len(answers))
	for i, a := range answers {
		scores[i] = a.Score
	}
	return Mean(scores)
}

// AggregateScore averages module scores across the whole session. Every
// module must already be scored.
func AggregateScore(modules []*model.TrainingModule) (float64, error) {
	if len(modules) == 0 {
		return 0, fmt.Errorf("no modules to aggregate")
	}
	scores := make([]float64, len(modules))
	for i, m := range modules {
		if m.ModuleScore == nil {
			return 0, fmt.Errorf("module %d has no score", m.ModuleIndex)
		}
		scores[i] = *m.ModuleScore
	}
	return Mean(scores), nil
}

// Passed compares an aggregate score against the tenant's pass threshold.
func Passed(score, threshold float64) bool {
	return score >= threshold
}

// WeakAreas returns the topics of modules that scored strictly below the
// pass threshold, in module order.
func WeakAreas(modules []*model.TrainingModule, threshold float64) []string {
	var topics []string
	for _, m := range modules {
		if m.ModuleScore != nil && *m.ModuleScore < threshold {
			topics = append(topics, m.Topic)
		}
	}
	return topics
}
