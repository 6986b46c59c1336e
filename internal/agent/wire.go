package agent

import (
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/service"
)

// ModelOutput is the JSON contract the oracle is prompted to return. Field
// names are Spanish because the prompts are; they must not drift without a
// matching prompt change.
type ModelOutput struct {
	Role      string       `json:"role"`
	ChatReply string       `json:"respuesta_chat"`
	Actions   WireActions  `json:"acciones"`
	State     *WireState   `json:"estado,omitempty"`
}

type WireActions struct {
	FormUpdate *WireFormUpdate `json:"actualizar_formulario,omitempty"`
	Alert      *WireAlert      `json:"alerta,omitempty"`
	Log        *WireLog        `json:"bitacora,omitempty"`
	TaskUpdate *WireTaskUpdate `json:"actualizar_tarea,omitempty"`
}

type WireFormUpdate struct {
	Crop          *string `json:"cultivo,omitempty"`
	Symptom       *string `json:"sintoma,omitempty"`
	ProblemOnset  *string `json:"inicio_problema,omitempty"`
	PhotoReceived *bool   `json:"foto_recibida,omitempty"`
}

type WireAlert struct {
	Level             string `json:"nivel,omitempty"`
	Reason            string `json:"motivo,omitempty"`
	RecommendedAction string `json:"accion_recomendada,omitempty"`
}

type WireLog struct {
	Date      string         `json:"fecha,omitempty"`
	Notes     string         `json:"notas,omitempty"`
	Metrics   domain.Metrics `json:"metricas,omitempty"`
	LogTypeID *string        `json:"log_type_id,omitempty"`
}

type WireTaskUpdate struct {
	TaskID        string  `json:"task_id"`
	Status        string  `json:"status"`
	ProgressPct   *int    `json:"avance,omitempty"`
	BlockerReason *string `json:"motivo,omitempty"`
}

type WireState struct {
	FormComplete bool    `json:"formulario_completo"`
	Confidence   float64 `json:"confianza"`
}

// empty reports whether the form update carries no field at all.
func (u *WireFormUpdate) empty() bool {
	return u == nil || (u.Crop == nil && u.Symptom == nil && u.ProblemOnset == nil && u.PhotoReceived == nil)
}

// ToBundle converts the oracle output into the side-effect bundle the action
// orchestrator applies. The alert's outbound message is the chat reply, and
// a completed form state closes the intake form.
func (o *ModelOutput) ToBundle() service.ActionBundle {
	var bundle service.ActionBundle

	if !o.Actions.FormUpdate.empty() {
		bundle.FormUpdate = &domain.FormUpdate{
			Crop:          o.Actions.FormUpdate.Crop,
			Symptom:       o.Actions.FormUpdate.Symptom,
			ProblemOnset:  o.Actions.FormUpdate.ProblemOnset,
			PhotoReceived: o.Actions.FormUpdate.PhotoReceived,
		}
	}
	if o.State != nil && o.State.FormComplete {
		bundle.CloseForm = true
	}

	if o.Actions.Alert != nil {
		reason := o.Actions.Alert.Reason
		if reason == "" {
			reason = "sin motivo"
		}
		action := o.Actions.Alert.RecommendedAction
		if action == "" {
			action = "sin accion"
		}
		bundle.Alert = &service.AlertDraft{
			Level:   o.Actions.Alert.Level,
			Reason:  reason,
			Action:  action,
			Message: o.ChatReply,
		}
	}

	if o.Actions.Log != nil {
		bundle.Log = &service.LogDraft{
			LogDate:   o.Actions.Log.Date,
			Notes:     o.Actions.Log.Notes,
			Metrics:   o.Actions.Log.Metrics,
			LogTypeID: o.Actions.Log.LogTypeID,
		}
	}

	if o.Actions.TaskUpdate != nil {
		bundle.TaskUpdate = &service.TaskUpdateDraft{
			TaskID:        o.Actions.TaskUpdate.TaskID,
			Status:        o.Actions.TaskUpdate.Status,
			ProgressPct:   o.Actions.TaskUpdate.ProgressPct,
			BlockerReason: o.Actions.TaskUpdate.BlockerReason,
		}
	}

	return bundle
}
