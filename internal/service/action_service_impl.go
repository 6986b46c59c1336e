package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

type actionService struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
}

// NewActionService creates an ActionService.
func NewActionService(uow db.UnitOfWork, observer UseCaseObserver) ActionService {
	return &actionService{uow: uow, observer: observerOrNoop(observer)}
}

// Apply performs every sub-action of the bundle in one transaction. A
// validation failure in any sub-action rolls back the ones already applied.
func (s *actionService) Apply(ctx context.Context, producer *domain.Producer, bundle ActionBundle) (*ActionResult, error) {
	start := time.Now()
	var result ActionResult

	err := s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txForms := repository.NewSQLiteFormRepo(tx)
		txAlerts := repository.NewSQLiteAlertRepo(tx)
		txLogs := repository.NewSQLiteDailyLogRepo(tx)
		txTasks := repository.NewSQLiteTaskRepo(tx)
		txProducers := repository.NewSQLiteProducerRepo(tx)
		txAssignments := repository.NewSQLiteAssignmentRepo(tx)

		if bundle.FormUpdate != nil || bundle.CloseForm {
			if err := s.applyFormAction(ctx, txForms, producer.ID, bundle, &result); err != nil {
				return err
			}
		}

		if bundle.Alert != nil {
			alert := &domain.Alert{
				ID:         uuid.New().String(),
				ProducerID: producer.ID,
				Level:      domain.ParseAlertLevel(bundle.Alert.Level),
				Reason:     bundle.Alert.Reason,
				Action:     bundle.Alert.Action,
				Message:    bundle.Alert.Message,
				Status:     domain.AlertOpen,
				CreatedAt:  time.Now().UTC(),
			}
			if err := txAlerts.Create(ctx, alert); err != nil {
				return err
			}
			result.AlertID = alert.ID
		}

		if bundle.Log != nil {
			logDate := bundle.Log.LogDate
			if logDate == "" {
				logDate = localToday(producer.Timezone)
			} else if _, err := time.Parse(domain.DateLayout, logDate); err != nil {
				return NewValidationError("fecha", "expected YYYY-MM-DD")
			}

			var planID *string
			if active, err := txAssignments.GetActiveByProducer(ctx, producer.ID); err == nil {
				planID = &active.PlanID
			} else if !errors.Is(err, repository.ErrNotFound) {
				return err
			}

			metrics := bundle.Log.Metrics
			if metrics == nil {
				metrics = domain.Metrics{}
			}
			entry := &domain.DailyLog{
				ID:         uuid.New().String(),
				ProducerID: producer.ID,
				PlanID:     planID,
				LogTypeID:  bundle.Log.LogTypeID,
				LogDate:    logDate,
				Notes:      bundle.Log.Notes,
				Metrics:    metrics,
				CreatedAt:  time.Now().UTC(),
			}
			if err := txLogs.Create(ctx, entry); err != nil {
				return err
			}
			if err := txProducers.SetLastCheckin(ctx, producer.ID, logDate); err != nil {
				return err
			}
			result.LogID = entry.ID
		}

		if bundle.TaskUpdate != nil {
			if bundle.TaskUpdate.TaskID == "" {
				return NewValidationError("tarea_id", "must not be empty")
			}
			status, ok := domain.ParseTaskStatus(bundle.TaskUpdate.Status)
			if !ok {
				return NewValidationError("estado", "unknown status token")
			}
			task, err := txTasks.GetByID(ctx, bundle.TaskUpdate.TaskID)
			if err != nil {
				return err
			}
			upd := TaskUpdate{
				Status:        status,
				ProgressPct:   bundle.TaskUpdate.ProgressPct,
				BlockerReason: bundle.TaskUpdate.BlockerReason,
			}
			taskResult, err := applyTaskUpdate(ctx, txTasks, task, upd, time.Now().UTC(), s.observer)
			if err != nil {
				return err
			}
			result.TaskResult = taskResult
		}

		return nil
	})
	if err != nil {
		s.observer.ObserveUseCase(ctx, UseCaseEvent{
			Name:      "actions_apply",
			Duration:  time.Since(start),
			Err:       err,
			Fields:    map[string]any{"producer_id": producer.ID},
			StartedAt: start,
		})
		return nil, err
	}

	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:     "actions_apply",
		Duration: time.Since(start),
		Success:  true,
		Fields: map[string]any{
			"producer_id":  producer.ID,
			"form_updated": result.FormUpdated,
			"alert":        result.AlertID != "",
			"log":          result.LogID != "",
			"task":         result.TaskResult != nil,
		},
		StartedAt: start,
	})
	return &result, nil
}

func (s *actionService) applyFormAction(ctx context.Context, forms repository.FormRepo, producerID string, bundle ActionBundle, result *ActionResult) error {
	form, err := forms.GetOpenByProducer(ctx, producerID)
	if errors.Is(err, repository.ErrNotFound) {
		now := time.Now().UTC()
		form = &domain.Form{
			ID:         uuid.New().String(),
			ProducerID: producerID,
			Status:     domain.FormOpen,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := forms.Create(ctx, form); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if bundle.FormUpdate != nil {
		form.Apply(*bundle.FormUpdate)
		form.UpdatedAt = time.Now().UTC()
		if err := forms.Update(ctx, form); err != nil {
			return err
		}
		result.FormUpdated = true
	}
	if bundle.CloseForm {
		if err := forms.SetStatus(ctx, form.ID, domain.FormClosed); err != nil {
			return err
		}
		result.FormClosed = true
	}
	return nil
}

// localToday resolves today's civil date in the given IANA timezone,
// falling back to UTC when the zone name does not load.
func localToday(tz string) string {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(domain.DateLayout)
}
