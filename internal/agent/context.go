package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/schedule"
)

// Snapshot is the serialized view of everything the oracle may consult for
// one turn. It is sent verbatim as the user message, so the field names are
// part of the wire contract.
type Snapshot struct {
	Role             string              `json:"role"`
	Producer         ProducerView        `json:"producer"`
	FormState        FormView            `json:"form_state"`
	RecentChat       []string            `json:"recent_chat"`
	ActiveTask       *TaskView           `json:"active_task"`
	DailyLogs        []LogView           `json:"daily_logs"`
	ActivePlan       *PlanView           `json:"active_plan"`
	PlanEvaluation   PlanEvaluationView  `json:"plan_evaluation"`
	DailyPromptNeeded bool               `json:"daily_prompt_needed"`
	WeeklySummary    *string             `json:"weekly_summary"`
	LastUserMessage  string              `json:"last_user_message"`
}

type ProducerView struct {
	ID                string  `json:"id"`
	Phone             string  `json:"phone"`
	Name              string  `json:"name,omitempty"`
	Zone              string  `json:"zone,omitempty"`
	PreferredLanguage string  `json:"preferred_language"`
	Timezone          string  `json:"timezone"`
	LastCheckinDate   string  `json:"last_checkin_date,omitempty"`
	AssignedRole      *string `json:"assigned_role,omitempty"`
}

type FormView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Crop          string `json:"cultivo"`
	Symptom       string `json:"sintoma"`
	ProblemOnset  string `json:"inicio_problema"`
	PhotoReceived bool   `json:"foto_recibida"`
}

type TaskView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Sequence      int     `json:"seq"`
	Status        string  `json:"status"`
	EstimatedDate string  `json:"estimated_date,omitempty"`
	ProgressPct   *int    `json:"progress_pct,omitempty"`
	BlockerReason *string `json:"blocker_reason,omitempty"`
}

type LogView struct {
	LogDate string         `json:"log_date"`
	Notes   string         `json:"notes"`
	Metrics domain.Metrics `json:"metrics"`
}

type PlanView struct {
	PlanID      string         `json:"plan_id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	StartDate   string         `json:"start_date"`
	Targets     domain.Metrics `json:"targets"`
}

type PlanEvaluationView struct {
	Status  string       `json:"status"`
	Flags   []string     `json:"flags"`
	Summary *SummaryView `json:"summary"`
}

type SummaryView struct {
	LogDate      string   `json:"log_date"`
	Observations []string `json:"observaciones"`
}

// ContextBuilder assembles turn snapshots from the producer's stored state.
type ContextBuilder struct {
	forms       repository.FormRepo
	messages    repository.MessageRepo
	tasks       repository.TaskRepo
	logs        repository.DailyLogRepo
	assignments repository.AssignmentRepo

	chatLimit       int
	logLimit        int
	defaultTimezone string
	checkinHour     int
	now             func() time.Time
}

// NewContextBuilder creates a ContextBuilder. The now function may be nil,
// in which case wall-clock time is used.
func NewContextBuilder(
	forms repository.FormRepo,
	messages repository.MessageRepo,
	tasks repository.TaskRepo,
	logs repository.DailyLogRepo,
	assignments repository.AssignmentRepo,
	chatLimit, logLimit int,
	defaultTimezone string,
	checkinHour int,
	now func() time.Time,
) *ContextBuilder {
	if now == nil {
		now = time.Now
	}
	return &ContextBuilder{
		forms:           forms,
		messages:        messages,
		tasks:           tasks,
		logs:            logs,
		assignments:     assignments,
		chatLimit:       chatLimit,
		logLimit:        logLimit,
		defaultTimezone: defaultTimezone,
		checkinHour:     checkinHour,
		now:             now,
	}
}

const weeklySummaryPlaceholder = "7d: sin datos suficientes registrados."

// Build assembles the snapshot for one turn. The consulta and intervencion
// roles get the weekly summary placeholder; intervencion additionally runs
// without chat history so the oracle reasons from logs and alerts alone.
func (b *ContextBuilder) Build(ctx context.Context, role domain.Role, producer *domain.Producer, form *domain.Form, lastUserMessage string) (*Snapshot, error) {
	snap := &Snapshot{
		Role:            string(role),
		Producer:        producerView(producer),
		FormState:       formView(form),
		RecentChat:      []string{},
		DailyLogs:       []LogView{},
		LastUserMessage: lastUserMessage,
	}

	msgs, err := b.messages.ListRecent(ctx, producer.ID, b.chatLimit)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		snap.RecentChat = append(snap.RecentChat, fmt.Sprintf("%s: %s", m.Direction, m.Content))
	}

	task, err := b.tasks.GetActiveByProducer(ctx, producer.ID)
	if err == nil {
		tv := taskView(task)
		snap.ActiveTask = &tv
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	logs, err := b.logs.ListRecent(ctx, producer.ID, b.logLimit)
	if err != nil {
		return nil, err
	}
	for _, l := range logs {
		snap.DailyLogs = append(snap.DailyLogs, LogView{LogDate: l.LogDate, Notes: l.Notes, Metrics: l.Metrics})
	}

	plan, err := b.assignments.GetActiveByProducer(ctx, producer.ID)
	if err == nil {
		snap.ActivePlan = &PlanView{
			PlanID:      plan.PlanID,
			Name:        plan.Name,
			Description: plan.Description,
			StartDate:   plan.StartDate,
			Targets:     plan.Targets,
		}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	eval := schedule.EvaluateProgress(plan, logs)
	snap.PlanEvaluation = evaluationView(eval)
	snap.DailyPromptNeeded = b.CheckinDue(producer)

	if role == domain.RoleConsulta || role == domain.RoleIntervencion {
		summary := weeklySummaryPlaceholder
		snap.WeeklySummary = &summary
	}
	if role == domain.RoleIntervencion {
		snap.RecentChat = []string{}
	}

	return snap, nil
}

// CheckinDue reports whether the producer should be nudged to log today's
// check-in: local time past the check-in hour and no log dated today.
func (b *ContextBuilder) CheckinDue(producer *domain.Producer) bool {
	tzName := producer.Timezone
	if tzName == "" {
		tzName = b.defaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc, err = time.LoadLocation(b.defaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	now := b.now().In(loc)
	if producer.LastCheckinDate == now.Format(domain.DateLayout) {
		return false
	}
	return now.Hour() >= b.checkinHour
}

func producerView(p *domain.Producer) ProducerView {
	v := ProducerView{
		ID:                p.ID,
		Phone:             p.Phone,
		Name:              p.Name,
		Zone:              p.Zone,
		PreferredLanguage: p.PreferredLanguage,
		Timezone:          p.Timezone,
		LastCheckinDate:   p.LastCheckinDate,
	}
	if p.AssignedRole != nil {
		role := string(*p.AssignedRole)
		v.AssignedRole = &role
	}
	return v
}

func formView(f *domain.Form) FormView {
	return FormView{
		ID:            f.ID,
		Status:        string(f.Status),
		Crop:          f.Crop,
		Symptom:       f.Symptom,
		ProblemOnset:  f.ProblemOnset,
		PhotoReceived: f.PhotoReceived,
	}
}

func taskView(t *domain.Task) TaskView {
	return TaskView{
		ID:            t.ID,
		Name:          t.Name,
		Sequence:      t.Sequence,
		Status:        string(t.Status),
		EstimatedDate: t.EstimatedDate,
		ProgressPct:   t.ProgressPct,
		BlockerReason: t.BlockerReason,
	}
}

func evaluationView(eval schedule.ProgressEvaluation) PlanEvaluationView {
	v := PlanEvaluationView{
		Status: eval.Status,
		Flags:  eval.Flags,
	}
	if v.Flags == nil {
		v.Flags = []string{}
	}
	if eval.Summary != nil {
		v.Summary = &SummaryView{
			LogDate:      eval.Summary.LogDate,
			Observations: eval.Summary.Observations,
		}
	}
	return v
}
