package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/schedule"
)

type planService struct {
	templates   repository.TemplateRepo
	assignments repository.AssignmentRepo
	logs        repository.DailyLogRepo
	uow         db.UnitOfWork

	logLimit  int
	supersede bool
	observer  UseCaseObserver
}

// NewPlanService creates a PlanService. When supersede is set, assigning a
// plan cancels any assignment still active for the producer.
func NewPlanService(
	templates repository.TemplateRepo,
	assignments repository.AssignmentRepo,
	logs repository.DailyLogRepo,
	uow db.UnitOfWork,
	logLimit int,
	supersede bool,
	observer UseCaseObserver,
) PlanService {
	return &planService{
		templates:   templates,
		assignments: assignments,
		logs:        logs,
		uow:         uow,
		logLimit:    logLimit,
		supersede:   supersede,
		observer:    observerOrNoop(observer),
	}
}

func (s *planService) CreateTemplate(ctx context.Context, t *domain.PlanTemplate) error {
	if t.CropType == "" {
		return NewValidationError("crop_type", "must not be empty")
	}
	if len(t.Tasks) == 0 {
		return NewValidationError("tasks", "must not be empty")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()
	return s.templates.Create(ctx, t)
}

func (s *planService) GetTemplate(ctx context.Context, id string) (*domain.PlanTemplate, error) {
	return s.templates.GetByID(ctx, id)
}

func (s *planService) ListTemplates(ctx context.Context) ([]*domain.PlanTemplate, error) {
	return s.templates.List(ctx)
}

func (s *planService) UpdateTemplate(ctx context.Context, t *domain.PlanTemplate) error {
	if t.ID == "" {
		return NewValidationError("id", "must not be empty")
	}
	return s.templates.Update(ctx, t)
}

func (s *planService) AssignPlan(ctx context.Context, in AssignPlanInput) (*AssignPlanResult, error) {
	start := time.Now()

	startDate, err := time.Parse(domain.DateLayout, in.StartDate)
	if err != nil {
		return nil, NewValidationError("start_date", "expected YYYY-MM-DD")
	}

	var result AssignPlanResult
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txProducers := repository.NewSQLiteProducerRepo(tx)
		txTemplates := repository.NewSQLiteTemplateRepo(tx)
		txPlans := repository.NewSQLitePlanRepo(tx)
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)
		txTasks := repository.NewSQLiteTaskRepo(tx)

		if _, err := txProducers.GetByID(ctx, in.ProducerID); err != nil {
			return err
		}
		tmpl, err := txTemplates.GetByID(ctx, in.TemplateID)
		if err != nil {
			return err
		}

		if s.supersede {
			if _, err := txAssignments.CancelActiveByProducer(ctx, in.ProducerID); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		plan := &domain.Plan{
			ID:          uuid.New().String(),
			Name:        fmt.Sprintf("Plan %s", tmpl.CropType),
			Description: fmt.Sprintf("Plan generated from template %s", tmpl.ID),
			Targets:     domain.Metrics{},
			CreatedAt:   now,
		}
		if err := txPlans.Create(ctx, plan); err != nil {
			return err
		}

		assignment := &domain.PlanAssignment{
			ID:         uuid.New().String(),
			ProducerID: in.ProducerID,
			PlanID:     plan.ID,
			StartDate:  in.StartDate,
			Status:     domain.AssignmentActive,
			CreatedAt:  now,
		}
		if err := txAssignments.Create(ctx, assignment); err != nil {
			return err
		}

		for _, et := range schedule.ExpandTemplate(tmpl, startDate) {
			task := &domain.Task{
				ID:            uuid.New().String(),
				ProducerID:    in.ProducerID,
				TemplateID:    tmpl.ID,
				Name:          et.Name,
				Sequence:      et.Sequence,
				Status:        domain.TaskPending,
				EstimatedDate: et.EstimatedDate.Format(domain.DateLayout),
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := txTasks.Create(ctx, task); err != nil {
				return err
			}
			result.TasksCreated++
		}

		result.Plan = plan
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "plan_assign",
			Duration:  time.Since(start),
			Err:       err,
			Fields:    map[string]any{"producer_id": in.ProducerID, "template_id": in.TemplateID},
			StartedAt: start,
		})
		return nil, err
	}

	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:     "plan_assign",
		Duration: time.Since(start),
		Success:  true,
		Fields: map[string]any{
			"producer_id": in.ProducerID,
			"template_id": in.TemplateID,
			"tasks":       result.TasksCreated,
		},
		StartedAt: start,
	})
	return &result, nil
}

func (s *planService) GetActivePlan(ctx context.Context, producerID string) (*domain.ActivePlan, error) {
	return s.assignments.GetActiveByProducer(ctx, producerID)
}

func (s *planService) EvaluateProgress(ctx context.Context, producerID string) (*schedule.ProgressEvaluation, error) {
	plan, err := s.assignments.GetActiveByProducer(ctx, producerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	logs, err := s.logs.ListRecent(ctx, producerID, s.logLimit)
	if err != nil {
		return nil, err
	}
	eval := schedule.EvaluateProgress(plan, logs)
	return &eval, nil
}
