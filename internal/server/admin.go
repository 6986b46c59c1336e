package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/service"
)

type producerDTO struct {
	ID                 string  `json:"id"`
	Phone              string  `json:"phone"`
	Name               string  `json:"name,omitempty"`
	Zone               string  `json:"zone,omitempty"`
	PreferredLanguage  string  `json:"preferred_language"`
	Allowed            bool    `json:"allowed"`
	Status             string  `json:"status"`
	Timezone           string  `json:"timezone"`
	LastCheckinDate    string  `json:"last_checkin_date,omitempty"`
	AssignedRole       *string `json:"assigned_role,omitempty"`
	EnableFormulario   bool    `json:"enable_formulario"`
	EnableConsulta     bool    `json:"enable_consulta"`
	EnableIntervencion bool    `json:"enable_intervencion"`
	CreatedAt          string  `json:"created_at"`
}

func toProducerDTO(p *domain.Producer) producerDTO {
	dto := producerDTO{
		ID:                 p.ID,
		Phone:              p.Phone,
		Name:               p.Name,
		Zone:               p.Zone,
		PreferredLanguage:  p.PreferredLanguage,
		Allowed:            p.Allowed,
		Status:             string(p.Status),
		Timezone:           p.Timezone,
		LastCheckinDate:    p.LastCheckinDate,
		EnableFormulario:   p.EnableFormulario,
		EnableConsulta:     p.EnableConsulta,
		EnableIntervencion: p.EnableIntervencion,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
	if p.AssignedRole != nil {
		role := string(*p.AssignedRole)
		dto.AssignedRole = &role
	}
	return dto
}

func formDTO(f *domain.Form) map[string]any {
	return map[string]any{
		"id":              f.ID,
		"status":          string(f.Status),
		"cultivo":         f.Crop,
		"sintoma":         f.Symptom,
		"inicio_problema": f.ProblemOnset,
		"foto_recibida":   f.PhotoReceived,
	}
}

func (s *server) listProducers(w http.ResponseWriter, r *http.Request) {
	producers, err := s.deps.Producers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]producerDTO, 0, len(producers))
	for _, p := range producers {
		out = append(out, toProducerDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"producers": out})
}

type createProducerRequest struct {
	Phone        string  `json:"phone"`
	Name         string  `json:"name,omitempty"`
	Zone         string  `json:"zone,omitempty"`
	Timezone     string  `json:"timezone,omitempty"`
	Allowed      bool    `json:"allowed"`
	AssignedRole *string `json:"assigned_role,omitempty"`
}

func (s *server) createProducer(w http.ResponseWriter, r *http.Request) {
	var req createProducerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	producer, err := s.deps.Producers.GetOrCreateByPhone(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	producer.Name = req.Name
	producer.Zone = req.Zone
	if req.Timezone != "" {
		producer.Timezone = req.Timezone
	}
	producer.Allowed = req.Allowed
	if req.AssignedRole != nil {
		role := domain.Role(*req.AssignedRole)
		producer.AssignedRole = &role
	}
	if err := s.deps.Producers.Update(r.Context(), producer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "producer": toProducerDTO(producer)})
}

type updateProducerRequest struct {
	Name               *string `json:"name,omitempty"`
	Zone               *string `json:"zone,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	Allowed            *bool   `json:"allowed,omitempty"`
	Status             *string `json:"status,omitempty"`
	AssignedRole       *string `json:"assigned_role,omitempty"`
	EnableFormulario   *bool   `json:"enable_formulario,omitempty"`
	EnableConsulta     *bool   `json:"enable_consulta,omitempty"`
	EnableIntervencion *bool   `json:"enable_intervencion,omitempty"`
}

func (s *server) updateProducer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	producer, err := s.deps.Producers.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateProducerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name != nil {
		producer.Name = *req.Name
	}
	if req.Zone != nil {
		producer.Zone = *req.Zone
	}
	if req.Timezone != nil {
		producer.Timezone = *req.Timezone
	}
	if req.Allowed != nil {
		producer.Allowed = *req.Allowed
	}
	if req.Status != nil {
		producer.Status = domain.ProducerStatus(*req.Status)
	}
	if req.AssignedRole != nil {
		if *req.AssignedRole == "" {
			producer.AssignedRole = nil
		} else {
			role := domain.Role(*req.AssignedRole)
			producer.AssignedRole = &role
		}
	}
	if req.EnableFormulario != nil {
		producer.EnableFormulario = *req.EnableFormulario
	}
	if req.EnableConsulta != nil {
		producer.EnableConsulta = *req.EnableConsulta
	}
	if req.EnableIntervencion != nil {
		producer.EnableIntervencion = *req.EnableIntervencion
	}
	if err := s.deps.Producers.Update(r.Context(), producer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "producer": toProducerDTO(producer)})
}

type taskDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Sequence       int     `json:"seq"`
	Status         string  `json:"status"`
	EstimatedDate  string  `json:"estimated_date,omitempty"`
	CompletionDate string  `json:"completion_date,omitempty"`
	ProgressPct    *int    `json:"progress_pct,omitempty"`
	BlockerReason  *string `json:"blocker_reason,omitempty"`
}

func toTaskDTO(t *domain.Task) taskDTO {
	return taskDTO{
		ID:             t.ID,
		Name:           t.Name,
		Sequence:       t.Sequence,
		Status:         string(t.Status),
		EstimatedDate:  t.EstimatedDate,
		CompletionDate: t.CompletionDate,
		ProgressPct:    t.ProgressPct,
		BlockerReason:  t.BlockerReason,
	}
}

func (s *server) producerTasks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tasks, err := s.deps.Tasks.ListByProducer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskDTO(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

func (s *server) producerAlerts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alerts, err := s.deps.Alerts.ListByProducer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, map[string]any{
			"id":      a.ID,
			"level":   string(a.Level),
			"reason":  a.Reason,
			"action":  a.Action,
			"message": a.Message,
			"status":  string(a.Status),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (s *server) producerProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	eval, err := s.deps.Plans.EvaluateProgress(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluation": eval})
}

type updateTaskRequest struct {
	Status        string  `json:"status"`
	ProgressPct   *int    `json:"progress_pct,omitempty"`
	BlockerReason *string `json:"blocker_reason,omitempty"`
}

func (s *server) updateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	status, ok := domain.ParseTaskStatus(req.Status)
	if !ok {
		writeError(w, service.NewValidationError("status", "unknown status token"))
		return
	}
	result, err := s.deps.Tasks.UpdateStatus(r.Context(), id, service.TaskUpdate{
		Status:        status,
		ProgressPct:   req.ProgressPct,
		BlockerReason: req.BlockerReason,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"task":          toTaskDTO(result.Task),
		"shifted_tasks": result.ShiftedTasks,
		"delay_days":    result.DelayDays,
	})
}

func (s *server) listLogTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.deps.Logs.ListLogTypes(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(types))
	for _, lt := range types {
		out = append(out, map[string]any{
			"id":          lt.ID,
			"name":        lt.Name,
			"description": lt.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"log_types": out})
}

type createLogTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *server) createLogType(w http.ResponseWriter, r *http.Request) {
	var req createLogTypeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	lt := &domain.LogType{Name: req.Name, Description: req.Description}
	if err := s.deps.Logs.CreateLogType(r.Context(), lt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "log_type_id": lt.ID})
}

func agentConfigDTO(c *domain.AgentConfig) map[string]any {
	return map[string]any{
		"role":        string(c.Role),
		"enabled":     c.Enabled,
		"description": c.Description,
		"prompt":      c.Prompt,
		"max_tokens":  c.MaxTokens,
	}
}

func (s *server) listAgentConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.deps.Configs.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(configs))
	for _, c := range configs {
		out = append(out, agentConfigDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"agent_configs": out})
}

type updateAgentConfigRequest struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Description *string `json:"description,omitempty"`
	Prompt      *string `json:"prompt,omitempty"`
	MaxTokens   *int    `json:"max_tokens,omitempty"`
}

func (s *server) updateAgentConfig(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(chi.URLParam(r, "role"))
	if !domain.ValidRoles[role] {
		writeError(w, service.NewValidationError("role", "unknown role"))
		return
	}
	cfg, err := s.deps.Configs.GetByRole(r.Context(), role)
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateAgentConfigRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Enabled != nil {
		cfg.Enabled = *req.Enabled
	}
	if req.Description != nil {
		cfg.Description = *req.Description
	}
	if req.Prompt != nil {
		cfg.Prompt = *req.Prompt
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if err := s.deps.Configs.Upsert(r.Context(), cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "agent_config": agentConfigDTO(cfg)})
}
