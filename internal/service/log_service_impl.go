package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/avaldivia/cosecha/internal/db"
	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
)

type logService struct {
	logs     repository.DailyLogRepo
	logTypes repository.LogTypeRepo
	uow      db.UnitOfWork
}

// NewLogService creates a LogService.
func NewLogService(logs repository.DailyLogRepo, logTypes repository.LogTypeRepo, uow db.UnitOfWork) LogService {
	return &logService{logs: logs, logTypes: logTypes, uow: uow}
}

func (s *logService) Append(ctx context.Context, l *domain.DailyLog) error {
	if l.ProducerID == "" {
		return NewValidationError("producer_id", "must not be empty")
	}
	if l.LogDate != "" {
		if _, err := time.Parse(domain.DateLayout, l.LogDate); err != nil {
			return NewValidationError("log_date", "expected YYYY-MM-DD")
		}
	} else {
		l.LogDate = time.Now().UTC().Format(domain.DateLayout)
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Metrics == nil {
		l.Metrics = domain.Metrics{}
	}
	l.CreatedAt = time.Now().UTC()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txLogs := repository.NewSQLiteDailyLogRepo(tx)
		txProducers := repository.NewSQLiteProducerRepo(tx)
		if err := txLogs.Create(ctx, l); err != nil {
			return err
		}
		return txProducers.SetLastCheckin(ctx, l.ProducerID, l.LogDate)
	})
}

func (s *logService) ListRecent(ctx context.Context, producerID string, limit int) ([]*domain.DailyLog, error) {
	return s.logs.ListRecent(ctx, producerID, limit)
}

func (s *logService) ListLogTypes(ctx context.Context) ([]*domain.LogType, error) {
	return s.logTypes.List(ctx)
}

func (s *logService) CreateLogType(ctx context.Context, lt *domain.LogType) error {
	if lt.Name == "" {
		return NewValidationError("name", "must not be empty")
	}
	if lt.ID == "" {
		lt.ID = uuid.New().String()
	}
	lt.CreatedAt = time.Now().UTC()
	return s.logTypes.Create(ctx, lt)
}
