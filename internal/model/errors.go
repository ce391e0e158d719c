package model

import "errors"

// Precondition violations: caller error, surfaced directly, never retried
// automatically.
var (
	ErrNoRoleProfile           = errors.New("no confirmed role profile")
	ErrSessionAlreadyActive    = errors.New("a non-terminal session already exists")
	ErrSessionTerminal         = errors.New("session is terminal")
	ErrModuleNotUnlockable     = errors.New("module is not unlockable")
	ErrInvalidModulePhase      = errors.New("module is not in a phase that accepts this action")
	ErrScenarioAlreadyAnswered = errors.New("scenario already answered")
	ErrUnknownScenario         = errors.New("scenario is not part of module content")
	ErrQuizIncomplete          = errors.New("quiz answers do not cover every question exactly once")
	ErrIncompleteModules       = errors.New("not every module is scored")
	ErrRemediationUnavailable  = errors.New("remediation is not available")
)

// Concurrency and dependency failures.
var (
	// ErrConflict means a concurrent mutation advanced the state first.
	// Callers must re-fetch canonical state before deciding the next action.
	ErrConflict = errors.New("conflicting concurrent mutation")

	// ErrAIUnavailable is a transient model/provider failure; safe to
	// resubmit the same answer.
	ErrAIUnavailable = errors.New("ai grader unavailable")

	// ErrEvaluationFailed is an input validation failure; not retryable
	// without changing the input.
	ErrEvaluationFailed = errors.New("evaluation rejected")

	ErrNotFound = errors.New("not found")
)
