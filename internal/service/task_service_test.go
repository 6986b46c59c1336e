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

func newTaskServiceForTest(t *testing.T) (TaskService, repository.TaskRepo, repository.ProducerRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	tasks := repository.NewSQLiteTaskRepo(database)
	producers := repository.NewSQLiteProducerRepo(database)
	tmpl := testutil.NewTestTemplate("maiz")
	tmpl.ID = "tmpl-1"
	require.NoError(t, repository.NewSQLiteTemplateRepo(database).Create(context.Background(), tmpl))
	svc := NewTaskService(tasks, testutil.NewTestUoW(database), nil)
	return svc, tasks, producers
}

func todayOffset(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(domain.DateLayout)
}

func seedPlanTasks(t *testing.T, ctx context.Context, tasks repository.TaskRepo, producers repository.ProducerRepo, firstEstimate string) (*domain.Producer, []*domain.Task) {
	t.Helper()
	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, producers.Create(ctx, producer))
	templateID := "tmpl-1"

	seeded := []*domain.Task{
		testutil.NewTestTask(producer.ID, templateID, 1, testutil.WithEstimatedDate(firstEstimate)),
		testutil.NewTestTask(producer.ID, templateID, 2, testutil.WithEstimatedDate("2030-01-10")),
		testutil.NewTestTask(producer.ID, templateID, 3, testutil.WithEstimatedDate("2030-02-01")),
	}
	for _, task := range seeded {
		require.NoError(t, tasks.Create(ctx, task))
	}
	return producer, seeded
}

func TestUpdateStatusLateCompletionPushesSchedule(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	// Estimated two days ago, completed today: two days late.
	_, seeded := seedPlanTasks(t, ctx, tasks, producers, todayOffset(-2))

	result, err := svc.UpdateStatus(ctx, seeded[0].ID, TaskUpdate{Status: domain.TaskCompleted})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DelayDays)
	assert.Equal(t, 2, result.ShiftedTasks)
	assert.Equal(t, todayOffset(0), result.Task.CompletionDate)

	second, err := tasks.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-12", second.EstimatedDate)
	third, err := tasks.GetByID(ctx, seeded[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-02-03", third.EstimatedDate)
}

func TestUpdateStatusEarlyCompletionPullsSchedule(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	// Estimated three days from now, completed today: three days early.
	_, seeded := seedPlanTasks(t, ctx, tasks, producers, todayOffset(3))

	result, err := svc.UpdateStatus(ctx, seeded[0].ID, TaskUpdate{Status: domain.TaskCompleted})
	require.NoError(t, err)
	assert.Equal(t, -3, result.DelayDays)
	assert.Equal(t, 2, result.ShiftedTasks)

	second, err := tasks.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", second.EstimatedDate)
}

func TestUpdateStatusOnTimeCompletionLeavesSchedule(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	_, seeded := seedPlanTasks(t, ctx, tasks, producers, todayOffset(0))

	result, err := svc.UpdateStatus(ctx, seeded[0].ID, TaskUpdate{Status: domain.TaskCompleted})
	require.NoError(t, err)
	assert.Equal(t, 0, result.DelayDays)
	assert.Equal(t, 0, result.ShiftedTasks)

	second, err := tasks.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-10", second.EstimatedDate)
}

func TestUpdateStatusBlockedKeepsDates(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	_, seeded := seedPlanTasks(t, ctx, tasks, producers, todayOffset(-5))
	reason := "lluvia continua"

	result, err := svc.UpdateStatus(ctx, seeded[0].ID, TaskUpdate{
		Status:        domain.TaskBlocked,
		BlockerReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskBlocked, result.Task.Status)
	require.NotNil(t, result.Task.BlockerReason)
	assert.Equal(t, reason, *result.Task.BlockerReason)
	assert.Empty(t, result.Task.CompletionDate)
	assert.Equal(t, 0, result.ShiftedTasks)

	second, err := tasks.GetByID(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-10", second.EstimatedDate)
}

func TestUpdateStatusProgress(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	_, seeded := seedPlanTasks(t, ctx, tasks, producers, todayOffset(5))
	pct := 40

	result, err := svc.UpdateStatus(ctx, seeded[0].ID, TaskUpdate{
		Status:      domain.TaskInProgress,
		ProgressPct: &pct,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskInProgress, result.Task.Status)
	require.NotNil(t, result.Task.ProgressPct)
	assert.Equal(t, 40, *result.Task.ProgressPct)
}

func TestUpdateStatusRejectsUnknownToken(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)

	_, err := svc.UpdateStatus(context.Background(), "some-id", TaskUpdate{Status: domain.TaskStatus("DONE")})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestUpdateStatusUnknownTask(t *testing.T) {
	svc, _, _ := newTaskServiceForTest(t)

	_, err := svc.UpdateStatus(context.Background(), "missing", TaskUpdate{Status: domain.TaskCompleted})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestUpdateStatusCompletionWithoutEstimatedDate(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, producers.Create(ctx, producer))
	task := testutil.NewTestTask(producer.ID, "tmpl-1", 1, testutil.WithEstimatedDate(""))
	require.NoError(t, tasks.Create(ctx, task))

	result, err := svc.UpdateStatus(ctx, task.ID, TaskUpdate{Status: domain.TaskCompleted})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ShiftedTasks)
	assert.Equal(t, todayOffset(0), result.Task.CompletionDate)
}

func TestGetActiveByProducerLowestSequenceOpenTask(t *testing.T) {
	svc, tasks, producers := newTaskServiceForTest(t)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, producers.Create(ctx, producer))

	done := testutil.NewTestTask(producer.ID, "tmpl-1", 1, testutil.WithTaskStatus(domain.TaskCompleted))
	open := testutil.NewTestTask(producer.ID, "tmpl-1", 2)
	later := testutil.NewTestTask(producer.ID, "tmpl-1", 3)
	for _, task := range []*domain.Task{done, open, later} {
		require.NoError(t, tasks.Create(ctx, task))
	}

	active, err := svc.GetActiveByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, active.ID)
}
