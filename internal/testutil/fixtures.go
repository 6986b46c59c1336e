package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
)

var testPhoneCounter atomic.Int64

// Producer options
type ProducerOption func(*domain.Producer)

func WithAllowed(allowed bool) ProducerOption {
	return func(p *domain.Producer) {
		p.Allowed = allowed
	}
}

func WithProducerStatus(s domain.ProducerStatus) ProducerOption {
	return func(p *domain.Producer) {
		p.Status = s
	}
}

func WithTimezone(tz string) ProducerOption {
	return func(p *domain.Producer) {
		p.Timezone = tz
	}
}

func WithLastCheckin(date string) ProducerOption {
	return func(p *domain.Producer) {
		p.LastCheckinDate = date
	}
}

func WithAssignedRole(role domain.Role) ProducerOption {
	return func(p *domain.Producer) {
		p.AssignedRole = &role
	}
}

func WithRoleEnabled(role domain.Role, enabled bool) ProducerOption {
	return func(p *domain.Producer) {
		switch role {
		case domain.RoleFormulario:
			p.EnableFormulario = enabled
		case domain.RoleConsulta:
			p.EnableConsulta = enabled
		case domain.RoleIntervencion:
			p.EnableIntervencion = enabled
		}
	}
}

// NewTestProducer creates an allowed, active producer with a unique phone.
func NewTestProducer(name string, opts ...ProducerOption) *domain.Producer {
	n := testPhoneCounter.Add(1)
	p := &domain.Producer{
		ID:                 uuid.New().String(),
		Phone:              fmt.Sprintf("+5199900%04d", n),
		Name:               name,
		PreferredLanguage:  "es",
		Allowed:            true,
		Status:             domain.ProducerActive,
		Timezone:           "America/Lima",
		EnableFormulario:   true,
		EnableConsulta:     true,
		EnableIntervencion: true,
		CreatedAt:          time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Template options
type TemplateOption func(*domain.PlanTemplate)

func WithTemplateTasks(tasks ...domain.TaskDefinition) TemplateOption {
	return func(t *domain.PlanTemplate) {
		t.Tasks = tasks
	}
}

// TaskDef builds a task definition with days_after_previous semantics.
func TaskDef(order int, name string, daysAfterPrevious int) domain.TaskDefinition {
	return domain.TaskDefinition{
		Order:             &order,
		Task:              &name,
		DaysAfterPrevious: &daysAfterPrevious,
	}
}

// TaskDefFromStart builds a task definition anchored to the plan start date.
func TaskDefFromStart(order int, name string, daysFromStart int) domain.TaskDefinition {
	return domain.TaskDefinition{
		Order:         &order,
		Task:          &name,
		DaysFromStart: &daysFromStart,
	}
}

// NewTestTemplate creates a three-task template for the given crop.
func NewTestTemplate(cropType string, opts ...TemplateOption) *domain.PlanTemplate {
	t := &domain.PlanTemplate{
		ID:       uuid.New().String(),
		CropType: cropType,
		Tasks: []domain.TaskDefinition{
			TaskDef(1, "Siembra", 0),
			TaskDef(2, "Fertilización", 7),
			TaskDef(3, "Cosecha", 30),
		},
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Task options
type TaskOption func(*domain.Task)

func WithTaskStatus(s domain.TaskStatus) TaskOption {
	return func(t *domain.Task) {
		t.Status = s
	}
}

func WithEstimatedDate(date string) TaskOption {
	return func(t *domain.Task) {
		t.EstimatedDate = date
	}
}

// NewTestTask creates a pending task for the given producer and template.
func NewTestTask(producerID, templateID string, seq int, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC()
	t := &domain.Task{
		ID:            uuid.New().String(),
		ProducerID:    producerID,
		TemplateID:    templateID,
		Name:          fmt.Sprintf("Tarea %d", seq),
		Sequence:      seq,
		Status:        domain.TaskPending,
		EstimatedDate: now.AddDate(0, 0, seq*7).Format(domain.DateLayout),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewTestPlan creates a plan with the given targets.
func NewTestPlan(name string, targets domain.Metrics) *domain.Plan {
	if targets == nil {
		targets = domain.Metrics{}
	}
	return &domain.Plan{
		ID:        uuid.New().String(),
		Name:      name,
		Targets:   targets,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestAssignment creates an active assignment.
func NewTestAssignment(producerID, planID, startDate string) *domain.PlanAssignment {
	return &domain.PlanAssignment{
		ID:         uuid.New().String(),
		ProducerID: producerID,
		PlanID:     planID,
		StartDate:  startDate,
		Status:     domain.AssignmentActive,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewTestDailyLog creates a log entry with the given metrics.
func NewTestDailyLog(producerID, logDate string, metrics domain.Metrics) *domain.DailyLog {
	if metrics == nil {
		metrics = domain.Metrics{}
	}
	return &domain.DailyLog{
		ID:         uuid.New().String(),
		ProducerID: producerID,
		LogDate:    logDate,
		Metrics:    metrics,
		CreatedAt:  time.Now().UTC(),
	}
}
