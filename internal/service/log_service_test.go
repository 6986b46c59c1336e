package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/testutil"
)

type logFixtures struct {
	producers repository.ProducerRepo
	logs      repository.DailyLogRepo
}

func newLogServiceForTest(t *testing.T) (context.Context, LogService, *logFixtures, *domain.Producer) {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	ctx := context.Background()

	f := &logFixtures{
		producers: repository.NewSQLiteProducerRepo(database),
		logs:      repository.NewSQLiteDailyLogRepo(database),
	}
	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))

	svc := NewLogService(f.logs, repository.NewSQLiteLogTypeRepo(database), uow)
	return ctx, svc, f, producer
}

func TestAppendAdvancesLastCheckin(t *testing.T) {
	ctx, svc, f, producer := newLogServiceForTest(t)

	entry := &domain.DailyLog{
		ProducerID: producer.ID,
		LogDate:    "2030-01-15",
		Notes:      "riego por la mañana",
		Metrics:    domain.Metrics{"humedad": 55},
	}
	require.NoError(t, svc.Append(ctx, entry))
	assert.NotEmpty(t, entry.ID)

	logs, err := svc.ListRecent(ctx, producer.ID, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "riego por la mañana", logs[0].Notes)

	got, err := f.producers.GetByID(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-15", got.LastCheckinDate)
}

func TestAppendDefaultsLogDateToToday(t *testing.T) {
	ctx, svc, _, producer := newLogServiceForTest(t)

	entry := &domain.DailyLog{ProducerID: producer.ID}
	require.NoError(t, svc.Append(ctx, entry))
	assert.Equal(t, time.Now().UTC().Format(domain.DateLayout), entry.LogDate)
}

func TestAppendRejectsBadDate(t *testing.T) {
	ctx, svc, _, producer := newLogServiceForTest(t)

	err := svc.Append(ctx, &domain.DailyLog{ProducerID: producer.ID, LogDate: "ayer"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "log_date", verr.Field)
}

func TestAppendRollsBackWhenCheckinUpdateFails(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	producers := repository.NewSQLiteProducerRepo(database)
	logs := repository.NewSQLiteDailyLogRepo(database)
	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, producers.Create(ctx, producer))

	boom := errors.New("boom")
	// First exec inserts the log, second updates last_checkin_date.
	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: boom}
	svc := NewLogService(logs, repository.NewSQLiteLogTypeRepo(database), uow)

	err := svc.Append(ctx, &domain.DailyLog{ProducerID: producer.ID, LogDate: "2030-01-15"})
	require.True(t, errors.Is(err, boom))

	remaining, err := logs.ListRecent(ctx, producer.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	got, err := producers.GetByID(ctx, producer.ID)
	require.NoError(t, err)
	assert.Empty(t, got.LastCheckinDate)
}

func TestCreateLogType(t *testing.T) {
	ctx, svc, _, _ := newLogServiceForTest(t)

	lt := &domain.LogType{Name: "riego", Description: "Registro de riego"}
	require.NoError(t, svc.CreateLogType(ctx, lt))
	assert.NotEmpty(t, lt.ID)

	types, err := svc.ListLogTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "riego", types[0].Name)

	err = svc.CreateLogType(ctx, &domain.LogType{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
}
