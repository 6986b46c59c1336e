package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

type formService struct {
	forms repository.FormRepo
}

// NewFormService creates a FormService.
func NewFormService(forms repository.FormRepo) FormService {
	return &formService{forms: forms}
}

func (s *formService) GetOrCreateOpen(ctx context.Context, producerID string) (*domain.Form, error) {
	f, err := s.forms.GetOpenByProducer(ctx, producerID)
	if err == nil {
		return f, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	f = &domain.Form{
		ID:         uuid.New().String(),
		ProducerID: producerID,
		Status:     domain.FormOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.forms.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *formService) Update(ctx context.Context, producerID string, upd domain.FormUpdate) (*domain.Form, error) {
	f, err := s.GetOrCreateOpen(ctx, producerID)
	if err != nil {
		return nil, err
	}
	f.Apply(upd)
	f.UpdatedAt = time.Now().UTC()
	if err := s.forms.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *formService) Close(ctx context.Context, producerID string) error {
	f, err := s.forms.GetOpenByProducer(ctx, producerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.forms.SetStatus(ctx, f.ID, domain.FormClosed)
}

func (s *formService) ListByProducer(ctx context.Context, producerID string) ([]*domain.Form, error) {
	return s.forms.ListByProducer(ctx, producerID)
}
