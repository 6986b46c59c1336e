package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avaldivia/cosecha/internal/agent"
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/service"
)

type agentRequest struct {
	Phone   string `json:"phone"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
}

type agentResponse struct {
	Context     *agent.Snapshot    `json:"context"`
	ModelOutput *agent.ModelOutput `json:"model_output"`
}

func (s *server) agentTurn(w http.ResponseWriter, r *http.Request) {
	var req agentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	result, err := s.deps.Runner.HandleTurn(r.Context(), agent.TurnInput{
		Phone:   req.Phone,
		Role:    req.Role,
		Message: req.Message,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, agentResponse{Context: result.Snapshot, ModelOutput: result.Output})
}

type formUpdateRequest struct {
	Phone   string `json:"phone"`
	Updates struct {
		Crop          *string `json:"cultivo"`
		Symptom       *string `json:"sintoma"`
		ProblemOnset  *string `json:"inicio_problema"`
		PhotoReceived *bool   `json:"foto_recibida"`
	} `json:"updates"`
}

func (s *server) updateForm(w http.ResponseWriter, r *http.Request) {
	var req formUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	producer, err := s.deps.Producers.GetOrCreateByPhone(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	form, err := s.deps.Forms.Update(r.Context(), producer.ID, domain.FormUpdate{
		Crop:          req.Updates.Crop,
		Symptom:       req.Updates.Symptom,
		ProblemOnset:  req.Updates.ProblemOnset,
		PhotoReceived: req.Updates.PhotoReceived,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "form_state": formDTO(form)})
}

type alertRequest struct {
	Phone string `json:"phone"`
	Alert *struct {
		Level             string `json:"nivel"`
		Reason            string `json:"motivo"`
		RecommendedAction string `json:"accion_recomendada"`
		Message           string `json:"mensaje"`
	} `json:"alert"`
}

func (s *server) createAlert(w http.ResponseWriter, r *http.Request) {
	var req alertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Alert == nil {
		writeError(w, service.NewValidationError("alert", "must not be empty"))
		return
	}
	producer, err := s.deps.Producers.GetOrCreateByPhone(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	alert := &domain.Alert{
		ProducerID: producer.ID,
		Level:      domain.ParseAlertLevel(req.Alert.Level),
		Reason:     defaultStr(req.Alert.Reason, "sin motivo"),
		Action:     defaultStr(req.Alert.RecommendedAction, "sin accion"),
		Message:    req.Alert.Message,
	}
	if err := s.deps.Alerts.Create(r.Context(), alert); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "alert_id": alert.ID})
}

type pendingAlertDTO struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Level   string `json:"level"`
	Reason  string `json:"reason"`
	Action  string `json:"action"`
	Phone   string `json:"phone"`
}

func (s *server) pendingAlerts(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.Alerts.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]pendingAlertDTO, 0, len(pending))
	for _, p := range pending {
		out = append(out, pendingAlertDTO{
			ID:      p.Alert.ID,
			Message: p.Alert.Message,
			Level:   string(p.Alert.Level),
			Reason:  p.Alert.Reason,
			Action:  p.Alert.Action,
			Phone:   p.Phone,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func (s *server) markAlertSent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.deps.Alerts.MarkSent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type createTemplateRequest struct {
	CropType string                  `json:"crop_type"`
	Tasks    []domain.TaskDefinition `json:"tasks"`
}

func (s *server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var req createTemplateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	tmpl := &domain.PlanTemplate{CropType: req.CropType, Tasks: req.Tasks}
	if err := s.deps.Plans.CreateTemplate(r.Context(), tmpl); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "template_id": tmpl.ID})
}

func (s *server) listTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.deps.Plans.ListTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(templates))
	for _, t := range templates {
		out = append(out, map[string]any{
			"id":         t.ID,
			"crop_type":  t.CropType,
			"tasks":      t.Tasks,
			"created_at": t.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

type assignPlanRequest struct {
	Phone      string `json:"phone,omitempty"`
	ProducerID string `json:"producer_id,omitempty"`
	TemplateID string `json:"template_id"`
	StartDate  string `json:"start_date"`
}

func (s *server) assignPlan(w http.ResponseWriter, r *http.Request) {
	var req assignPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.TemplateID == "" || req.StartDate == "" {
		writeError(w, service.NewValidationError("template_id", "template_id and start_date required"))
		return
	}

	producerID := req.ProducerID
	if producerID == "" {
		if req.Phone == "" {
			writeError(w, service.NewValidationError("producer_id", "producer_id or phone required"))
			return
		}
		producer, err := s.deps.Producers.GetOrCreateByPhone(r.Context(), req.Phone)
		if err != nil {
			writeError(w, err)
			return
		}
		producerID = producer.ID
	}

	result, err := s.deps.Plans.AssignPlan(r.Context(), service.AssignPlanInput{
		ProducerID: producerID,
		TemplateID: req.TemplateID,
		StartDate:  req.StartDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"plan_id":       result.Plan.ID,
		"assignment_id": result.Assignment.ID,
		"tasks_created": result.TasksCreated,
	})
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
