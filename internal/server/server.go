package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/avaldivia/cosecha/internal/agent"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/service"
)

// Deps collects everything the HTTP API needs.
type Deps struct {
	Runner    *agent.Runner
	Producers service.ProducerService
	Forms     service.FormService
	Plans     service.PlanService
	Tasks     service.TaskService
	Alerts    service.AlertService
	Logs      service.LogService
	Configs   repository.AgentConfigRepo
}

// New builds the HTTP handler for the messaging bridge and admin API.
func New(deps Deps) http.Handler {
	s := &server{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.health)

	// Bridge-facing endpoints.
	r.Post("/agent", s.agentTurn)
	r.Post("/form/update", s.updateForm)
	r.Post("/alert", s.createAlert)
	r.Get("/alerts/pending", s.pendingAlerts)
	r.Post("/alerts/{id}/sent", s.markAlertSent)

	// Plan management.
	r.Post("/plans/templates", s.createTemplate)
	r.Get("/plans/templates", s.listTemplates)
	r.Post("/plans/assign", s.assignPlan)

	// Admin JSON API.
	r.Route("/admin", func(r chi.Router) {
		r.Get("/producers", s.listProducers)
		r.Post("/producers", s.createProducer)
		r.Patch("/producers/{id}", s.updateProducer)
		r.Get("/producers/{id}/tasks", s.producerTasks)
		r.Get("/producers/{id}/alerts", s.producerAlerts)
		r.Get("/producers/{id}/progress", s.producerProgress)
		r.Patch("/tasks/{id}", s.updateTask)
		r.Get("/log-types", s.listLogTypes)
		r.Post("/log-types", s.createLogType)
		r.Get("/agent-configs", s.listAgentConfigs)
		r.Patch("/agent-configs/{role}", s.updateAgentConfig)
	})

	return r
}

type server struct {
	deps Deps
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
