package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

type producerService struct {
	producers       repository.ProducerRepo
	defaultTimezone string
	observer        UseCaseObserver
}

// NewProducerService creates a ProducerService. New producers receive
// defaultTimezone until an admin sets their real zone.
func NewProducerService(producers repository.ProducerRepo, defaultTimezone string, observer UseCaseObserver) ProducerService {
	return &producerService{
		producers:       producers,
		defaultTimezone: defaultTimezone,
		observer:        observerOrNoop(observer),
	}
}

func (s *producerService) GetOrCreateByPhone(ctx context.Context, phone string) (*domain.Producer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, NewValidationError("phone", "must not be empty")
	}

	p, err := s.producers.GetByPhone(ctx, phone)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// First contact: register the producer unauthorized so an admin has to
	// approve before the assistant answers.
	start := time.Now()
	p = &domain.Producer{
		ID:                 uuid.New().String(),
		Phone:              phone,
		PreferredLanguage:  "es",
		Allowed:            false,
		Status:             domain.ProducerActive,
		Timezone:           s.defaultTimezone,
		EnableFormulario:   true,
		EnableConsulta:     true,
		EnableIntervencion: true,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.producers.Create(ctx, p); err != nil {
		return nil, err
	}
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      "producer_register",
		Duration:  time.Since(start),
		Success:   true,
		Fields:    map[string]any{"producer_id": p.ID},
		StartedAt: start,
	})
	return p, nil
}

func (s *producerService) GetByID(ctx context.Context, id string) (*domain.Producer, error) {
	return s.producers.GetByID(ctx, id)
}

func (s *producerService) List(ctx context.Context) ([]*domain.Producer, error) {
	return s.producers.List(ctx)
}

func (s *producerService) Update(ctx context.Context, p *domain.Producer) error {
	if p.ID == "" {
		return NewValidationError("id", "must not be empty")
	}
	if p.AssignedRole != nil && !domain.ValidRoles[*p.AssignedRole] {
		return NewValidationError("assigned_role", "unknown role")
	}
	return s.producers.Update(ctx, p)
}
