package repository

import (
	"context"

	"github.com/avaldivia/cosecha/internal/domain"
)

// PendingAlert is a joined view of an open, unsent alert with the producer's
// phone, consumed by the messaging bridge poll endpoint.
type PendingAlert struct {
	Alert domain.Alert
	Phone string
}

type ProducerRepo interface {
	Create(ctx context.Context, p *domain.Producer) error
	GetByID(ctx context.Context, id string) (*domain.Producer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Producer, error)
	List(ctx context.Context) ([]*domain.Producer, error)
	Update(ctx context.Context, p *domain.Producer) error
	SetLastCheckin(ctx context.Context, id, date string) error
}

type FormRepo interface {
	Create(ctx context.Context, f *domain.Form) error
	GetOpenByProducer(ctx context.Context, producerID string) (*domain.Form, error)
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Form, error)
	Update(ctx context.Context, f *domain.Form) error
	SetStatus(ctx context.Context, id string, status domain.FormStatus) error
}

type AlertRepo interface {
	Create(ctx context.Context, a *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Alert, error)
	ListPending(ctx context.Context) ([]PendingAlert, error)
	MarkSent(ctx context.Context, id string) error
}

type MessageRepo interface {
	Create(ctx context.Context, m *domain.Message) error
	// ListRecent returns the most recent limit messages for a producer
	// in chronological order.
	ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.Message, error)
}

type LogTypeRepo interface {
	Create(ctx context.Context, lt *domain.LogType) error
	GetByID(ctx context.Context, id string) (*domain.LogType, error)
	List(ctx context.Context) ([]*domain.LogType, error)
	Update(ctx context.Context, lt *domain.LogType) error
}

type AgentConfigRepo interface {
	GetByRole(ctx context.Context, role domain.Role) (*domain.AgentConfig, error)
	List(ctx context.Context) ([]*domain.AgentConfig, error)
	Upsert(ctx context.Context, c *domain.AgentConfig) error
}

type PlanRepo interface {
	Create(ctx context.Context, p *domain.Plan) error
	GetByID(ctx context.Context, id string) (*domain.Plan, error)
}

type AssignmentRepo interface {
	Create(ctx context.Context, a *domain.PlanAssignment) error
	// GetActiveByProducer returns the producer's active assignment joined
	// with its plan, picking the most recently started when several are
	// active. Returns ErrNotFound if none.
	GetActiveByProducer(ctx context.Context, producerID string) (*domain.ActivePlan, error)
	ListByProducer(ctx context.Context, producerID string) ([]*domain.PlanAssignment, error)
	// CancelActiveByProducer marks every active assignment for the producer
	// as cancelled, returning the number of rows changed.
	CancelActiveByProducer(ctx context.Context, producerID string) (int, error)
}

type TemplateRepo interface {
	Create(ctx context.Context, t *domain.PlanTemplate) error
	GetByID(ctx context.Context, id string) (*domain.PlanTemplate, error)
	List(ctx context.Context) ([]*domain.PlanTemplate, error)
	Update(ctx context.Context, t *domain.PlanTemplate) error
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProducer(ctx context.Context, producerID string) ([]*domain.Task, error)
	// GetActiveByProducer returns the lowest-sequence task still in
	// PENDING, IN_PROGRESS, or BLOCKED. Returns ErrNotFound if none.
	GetActiveByProducer(ctx context.Context, producerID string) (*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	// ShiftEstimatedDates moves the estimated date of every task in the
	// same producer+template with seq > afterSeq by delayDays (signed).
	// Returns the number of rows shifted.
	ShiftEstimatedDates(ctx context.Context, producerID, templateID string, afterSeq, delayDays int) (int, error)
}

type DailyLogRepo interface {
	Create(ctx context.Context, l *domain.DailyLog) error
	// ListRecent returns up to limit logs ordered by log date descending,
	// ties broken by creation time descending.
	ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.DailyLog, error)
}
