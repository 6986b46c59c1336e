package service

import (
	"context"
	"time"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/schedule"
)

type taskService struct {
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks repository.TaskRepo, uow db.UnitOfWork, observer UseCaseObserver) TaskService {
	return &taskService{tasks: tasks, uow: uow, observer: observerOrNoop(observer)}
}

func (s *taskService) UpdateStatus(ctx context.Context, taskID string, upd TaskUpdate) (*TaskUpdateResult, error) {
	if taskID == "" {
		return nil, NewValidationError("task_id", "must not be empty")
	}
	if !validTaskStatus(upd.Status) {
		return nil, NewValidationError("status", "unknown status token")
	}

	start := time.Now()
	var result *TaskUpdateResult
	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txTasks := repository.NewSQLiteTaskRepo(tx)
		task, err := txTasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		result, err = applyTaskUpdate(ctx, txTasks, task, upd, time.Now().UTC(), s.observer)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:     "task_update_status",
		Duration: time.Since(start),
		Success:  true,
		Fields: map[string]any{
			"task_id": taskID,
			"status":  string(upd.Status),
			"shifted": result.ShiftedTasks,
		},
		StartedAt: start,
	})
	return result, nil
}

func (s *taskService) GetActiveByProducer(ctx context.Context, producerID string) (*domain.Task, error) {
	return s.tasks.GetActiveByProducer(ctx, producerID)
}

func (s *taskService) ListByProducer(ctx context.Context, producerID string) ([]*domain.Task, error) {
	return s.tasks.ListByProducer(ctx, producerID)
}

func validTaskStatus(st domain.TaskStatus) bool {
	switch st {
	case domain.TaskPending, domain.TaskInProgress, domain.TaskBlocked, domain.TaskCompleted:
		return true
	}
	return false
}

// applyTaskUpdate applies a status transition inside a caller-provided
// transaction. Completing a task records today's date and shifts every
// subsequent task in the same plan by the completion delay, so a late finish
// pushes the rest of the schedule out and an early finish pulls it in.
// An unparseable estimated date disables the shift for this completion; the
// anomaly is logged and the transition itself still succeeds.
func applyTaskUpdate(ctx context.Context, tasks repository.TaskRepo, task *domain.Task, upd TaskUpdate, now time.Time, observer UseCaseObserver) (*TaskUpdateResult, error) {
	task.Status = upd.Status
	if upd.ProgressPct != nil {
		task.ProgressPct = upd.ProgressPct
	}
	if upd.BlockerReason != nil {
		task.BlockerReason = upd.BlockerReason
	}
	task.UpdatedAt = now

	result := &TaskUpdateResult{Task: task}

	if upd.Status == domain.TaskCompleted {
		completed := now.Truncate(24 * time.Hour)
		task.CompletionDate = completed.Format(domain.DateLayout)

		if task.EstimatedDate != "" {
			estimated, err := time.Parse(domain.DateLayout, task.EstimatedDate)
			if err != nil {
				observer.ObserveUseCase(ctx, UseCaseEvent{
					Name:    "task_cascade_skipped",
					Success: false,
					Err:     err,
					Fields: map[string]any{
						"task_id":        task.ID,
						"estimated_date": task.EstimatedDate,
					},
					StartedAt: now,
				})
			} else {
				delay := schedule.DelayDays(estimated, completed)
				result.DelayDays = delay
				if delay != 0 {
					shifted, err := tasks.ShiftEstimatedDates(ctx, task.ProducerID, task.TemplateID, task.Sequence, delay)
					if err != nil {
						return nil, err
					}
					result.ShiftedTasks = shifted
				}
			}
		}
	}

	if err := tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return result, nil
}
