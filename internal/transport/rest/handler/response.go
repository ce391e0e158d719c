package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sectrain/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":    err.Error(),
		"conflict": errors.Is(err, model.ErrConflict),
	})
}

// statusFor maps the engine error taxonomy onto HTTP. Conflicts get their own
// status so clients know to re-fetch state instead of retrying blindly;
// AI unavailability is a transient 503 the client may retry as-is.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrAIUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrEvaluationFailed):
		return http.StatusBadRequest
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
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
