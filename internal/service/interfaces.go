package service

import (
	"context"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/schedule"
)

// ProducerService manages producer registry operations.
type ProducerService interface {
	// GetOrCreateByPhone resolves a producer by phone, registering a new
	// inactive-by-default record on first contact.
	GetOrCreateByPhone(ctx context.Context, phone string) (*domain.Producer, error)
	GetByID(ctx context.Context, id string) (*domain.Producer, error)
	List(ctx context.Context) ([]*domain.Producer, error)
	Update(ctx context.Context, p *domain.Producer) error
}

// FormService manages the per-producer intake form.
type FormService interface {
	// GetOrCreateOpen returns the producer's open form, creating an empty
	// one when none exists.
	GetOrCreateOpen(ctx context.Context, producerID string) (*domain.Form, error)
	Update(ctx context.Context, producerID string, upd domain.FormUpdate) (*domain.Form, error)
	Close(ctx context.Context, producerID string) error
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Form, error)
}

// AssignPlanInput names the producer, the template to expand, and the
// civil start date for the new plan.
type AssignPlanInput struct {
	ProducerID string
	TemplateID string
	StartDate  string
}

// AssignPlanResult reports what one assignment created.
type AssignPlanResult struct {
	Plan         *domain.Plan
	Assignment   *domain.PlanAssignment
	TasksCreated int
}

// PlanService manages plan templates and assignments.
type PlanService interface {
	CreateTemplate(ctx context.Context, t *domain.PlanTemplate) error
	GetTemplate(ctx context.Context, id string) (*domain.PlanTemplate, error)
	ListTemplates(ctx context.Context) ([]*domain.PlanTemplate, error)
	UpdateTemplate(ctx context.Context, t *domain.PlanTemplate) error

	// AssignPlan expands a template into dated tasks for a producer and
	// creates the plan and its assignment in a single transaction.
	AssignPlan(ctx context.Context, in AssignPlanInput) (*AssignPlanResult, error)

	GetActivePlan(ctx context.Context, producerID string) (*domain.ActivePlan, error)
	EvaluateProgress(ctx context.Context, producerID string) (*schedule.ProgressEvaluation, error)
}

// TaskUpdate carries a status transition for one task. ProgressPct and
// BlockerReason are applied when non-nil.
type TaskUpdate struct {
	Status        domain.TaskStatus
	ProgressPct   *int
	BlockerReason *string
}

// TaskUpdateResult reports the applied transition and how many later tasks
// had their estimated dates shifted by the completion cascade.
type TaskUpdateResult struct {
	Task         *domain.Task
	ShiftedTasks int
	DelayDays    int
}

// TaskService manages the task lifecycle.
type TaskService interface {
	UpdateStatus(ctx context.Context, taskID string, upd TaskUpdate) (*TaskUpdateResult, error)
	GetActiveByProducer(ctx context.Context, producerID string) (*domain.Task, error)
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Task, error)
}

// AlertService manages advisory alerts and their delivery queue.
type AlertService interface {
	Create(ctx context.Context, a *domain.Alert) error
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Alert, error)
	ListPending(ctx context.Context) ([]repository.PendingAlert, error)
	MarkSent(ctx context.Context, id string) error
}

// LogService manages append-only daily logs.
type LogService interface {
	// Append records a daily log and advances the producer's last check-in
	// date to the log's date.
	Append(ctx context.Context, l *domain.DailyLog) error
	ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.DailyLog, error)
	ListLogTypes(ctx context.Context) ([]*domain.LogType, error)
	CreateLogType(ctx context.Context, lt *domain.LogType) error
}

// AlertDraft is an alert sub-action before normalization.
type AlertDraft struct {
	Level   string
	Reason  string
	Action  string
	Message string
}

// LogDraft is a daily-log sub-action before normalization. An empty
// LogDate defaults to today in the producer's timezone.
type LogDraft struct {
	LogDate   string
	Notes     string
	Metrics   domain.Metrics
	LogTypeID *string
}

// TaskUpdateDraft is a task sub-action before validation. Status is the
// raw token as emitted by the oracle.
type TaskUpdateDraft struct {
	TaskID        string
	Status        string
	ProgressPct   *int
	BlockerReason *string
}

// ActionBundle is the parsed set of side effects one oracle turn requested.
// Nil members mean the sub-action was absent.
type ActionBundle struct {
	FormUpdate *domain.FormUpdate
	CloseForm  bool
	Alert      *AlertDraft
	Log        *LogDraft
	TaskUpdate *TaskUpdateDraft
}

// ActionResult reports which sub-actions were applied.
type ActionResult struct {
	FormUpdated bool
	FormClosed  bool
	AlertID     string
	LogID       string
	TaskResult  *TaskUpdateResult
}

// ActionService applies an oracle action bundle atomically: either every
// present sub-action takes effect or none does.
type ActionService interface {
	Apply(ctx context.Context, producer *domain.Producer, bundle ActionBundle) (*ActionResult, error)
}
