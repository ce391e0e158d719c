// Package handler exposes the engine operations over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"sectrain/internal/model"
	"sectrain/internal/service"
	"sectrain/internal/transport/rest/middleware"
)

// SessionAPI is the slice of the session lifecycle engine the handler needs.
type SessionAPI interface {
	Start(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error)
	StartRemediation(ctx context.Context, tenantID, employeeID string) (*model.TrainingSession, error)
	Abandon(ctx context.Context, tenantID, sessionID string) (*model.TrainingSession, error)
	Evaluate(ctx context.Context, tenantID, sessionID string) (*model.EvaluationOutcome, error)
	GetSession(ctx context.Context, tenantID, sessionID string) (*service.SessionView, error)
}

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessions SessionAPI
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(sessions SessionAPI) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start handles POST /v1/employees/{employeeId}/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	employeeID := mux.Vars(r)["employeeId"]

	session, err := h.sessions.Start(r.Context(), tenantID, employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// StartRemediation handles POST /v1/employees/{employeeId}/remediation
func (h *SessionHandler) StartRemediation(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	employeeID := mux.Vars(r)["employeeId"]

	session, err := h.sessions.StartRemediation(r.Context(), tenantID, employeeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Get handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	view, err := h.sessions.GetSession(r.Context(), tenantID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Abandon handles POST /v1/sessions/{sessionId}/abandon
func (h *SessionHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.sessions.Abandon(r.Context(), tenantID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Evaluate handles POST /v1/sessions/{sessionId}/evaluate
func (h *SessionHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	outcome, err := h.sessions.Evaluate(r.Context(), tenantID, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
