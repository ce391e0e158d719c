// Package rest wires the HTTP surface for the training engine.
package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sectrain/internal/transport/rest/handler"
	"sectrain/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router.
type Container struct {
	Sessions handler.SessionAPI
	Modules  handler.ModuleAPI
	Registry *prometheus.Registry
}

// NewRouter creates the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	sessionHandler := handler.NewSessionHandler(c.Sessions)
	moduleHandler := handler.NewModuleHandler(c.Modules)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	if c.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})).Methods("GET")
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.RequireTenant)

	v1.HandleFunc("/employees/{employeeId}/sessions", sessionHandler.Start).Methods("POST")
	v1.HandleFunc("/employees/{employeeId}/remediation", sessionHandler.StartRemediation).Methods("POST")
	v1.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET")
	v1.HandleFunc("/sessions/{sessionId}/abandon", sessionHandler.Abandon).Methods("POST")
	v1.HandleFunc("/sessions/{sessionId}/evaluate", sessionHandler.Evaluate).Methods("POST")

	v1.HandleFunc("/sessions/{sessionId}/modules/{index}/content", moduleHandler.GenerateContent).Methods("POST")
	v1.HandleFunc("/sessions/{sessionId}/modules/{index}/scenarios/{scenarioId}/answer", moduleHandler.SubmitScenarioAnswer).Methods("POST")
	v1.HandleFunc("/sessions/{sessionId}/modules/{index}/quiz", moduleHandler.SubmitQuiz).Methods("POST")

	return r
}
