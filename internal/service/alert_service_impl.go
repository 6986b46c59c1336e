package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

type alertService struct {
	alerts repository.AlertRepo
}

// NewAlertService creates an AlertService.
func NewAlertService(alerts repository.AlertRepo) AlertService {
	return &alertService{alerts: alerts}
}

func (s *alertService) Create(ctx context.Context, a *domain.Alert) error {
	if a.ProducerID == "" {
		return NewValidationError("producer_id", "must not be empty")
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.Level == "" {
		a.Level = domain.AlertMedium
	}
	if a.Status == "" {
		a.Status = domain.AlertOpen
	}
	a.CreatedAt = time.Now().UTC()
	return s.alerts.Create(ctx, a)
}

func (s *alertService) ListByProducer(ctx context.Context, producerID string) ([]*domain.Alert, error) {
	return s.alerts.ListByProducer(ctx, producerID)
}

func (s *alertService) ListPending(ctx context.Context) ([]repository.PendingAlert, error) {
	return s.alerts.ListPending(ctx)
}

func (s *alertService) MarkSent(ctx context.Context, id string) error {
	if _, err := s.alerts.GetByID(ctx, id); err != nil {
		return err
	}
	return s.alerts.MarkSent(ctx, id)
}
