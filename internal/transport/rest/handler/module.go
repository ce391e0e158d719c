package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"sectrain/internal/model"
	"sectrain/internal/service"
	"sectrain/internal/transport/rest/middleware"
)

// ModuleAPI is the slice of the module progression engine the handler needs.
type ModuleAPI interface {
	GenerateContent(ctx context.Context, tenantID, sessionID string, moduleIndex int) (*model.TrainingModule, error)
	SubmitScenarioAnswer(ctx context.Context, tenantID, sessionID string, moduleIndex int, scenarioID string, sub model.ScenarioSubmission) (*model.ScenarioResult, error)
	SubmitQuiz(ctx context.Context, tenantID, sessionID string, moduleIndex int, answers []model.QuizSubmission) (*model.TrainingModule, error)
}

// ModuleHandler handles module progression endpoints.
type ModuleHandler struct {
	modules ModuleAPI
}

// NewModuleHandler creates a module handler.
func NewModuleHandler(modules ModuleAPI) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

func moduleVars(r *http.Request) (sessionID string, moduleIndex int, ok bool) {
	vars := mux.Vars(r)
	sessionID = vars["sessionId"]
	moduleIndex, err := strconv.Atoi(vars["index"])
	if err != nil || moduleIndex < 0 {
		return "", 0, false
	}
	return sessionID, moduleIndex, true
}

// GenerateContent handles POST /v1/sessions/{sessionId}/modules/{index}/content
func (h *ModuleHandler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID, index, ok := moduleVars(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid module index"})
		return
	}

	module, err := h.modules.GenerateContent(r.Context(), tenantID, sessionID, index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.NewModuleView(module))
}

// SubmitScenarioAnswer handles
// POST /v1/sessions/{sessionId}/modules/{index}/scenarios/{scenarioId}/answer
func (h *ModuleHandler) SubmitScenarioAnswer(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID, index, ok := moduleVars(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid module index"})
		return
	}
	scenarioID := mux.Vars(r)["scenarioId"]

	var sub model.ScenarioSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.modules.SubmitScenarioAnswer(r.Context(), tenantID, sessionID, index, scenarioID, sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SubmitQuizRequest is the request body for a full quiz submission.
type SubmitQuizRequest struct {
	Answers []model.QuizSubmission `json:"answers"`
}

// SubmitQuiz handles POST /v1/sessions/{sessionId}/modules/{index}/quiz
func (h *ModuleHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID, index, ok := moduleVars(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid module index"})
		return
	}

	var req SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	module, err := h.modules.SubmitQuiz(r.Context(), tenantID, sessionID, index, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, service.NewModuleView(module))
}
