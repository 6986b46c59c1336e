package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/domain"
	"github.com/avaldivia/cosecha/internal/repository"
	"github.com/avaldivia/cosecha/internal/testutil"
)

func newTaskRepoForTest(t *testing.T) (context.Context, *repository.SQLiteTaskRepo, *domain.Producer, *domain.PlanTemplate) {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, repository.NewSQLiteProducerRepo(database).Create(ctx, producer))
	tmpl := testutil.NewTestTemplate("maiz")
	require.NoError(t, repository.NewSQLiteTemplateRepo(database).Create(ctx, tmpl))

	return ctx, repository.NewSQLiteTaskRepo(database), producer, tmpl
}

func TestShiftEstimatedDates(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	dates := []string{"2030-01-01", "2030-01-10", "2030-02-01"}
	ids := make([]string, len(dates))
	for i, d := range dates {
		task := testutil.NewTestTask(producer.ID, tmpl.ID, i+1, testutil.WithEstimatedDate(d))
		require.NoError(t, repo.Create(ctx, task))
		ids[i] = task.ID
	}

	t.Run("positive delay pushes later tasks", func(t *testing.T) {
		n, err := repo.ShiftEstimatedDates(ctx, producer.ID, tmpl.ID, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		first, err := repo.GetByID(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "2030-01-01", first.EstimatedDate)
		second, err := repo.GetByID(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "2030-01-13", second.EstimatedDate)
		third, err := repo.GetByID(ctx, ids[2])
		require.NoError(t, err)
		assert.Equal(t, "2030-02-04", third.EstimatedDate)
	})

	t.Run("negative delay pulls them back", func(t *testing.T) {
		n, err := repo.ShiftEstimatedDates(ctx, producer.ID, tmpl.ID, 1, -3)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		second, err := repo.GetByID(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "2030-01-10", second.EstimatedDate)
	})

	t.Run("no tasks after the last sequence", func(t *testing.T) {
		n, err := repo.ShiftEstimatedDates(ctx, producer.ID, tmpl.ID, 3, 5)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestShiftEstimatedDatesSkipsUndated(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	dated := testutil.NewTestTask(producer.ID, tmpl.ID, 2, testutil.WithEstimatedDate("2030-01-10"))
	require.NoError(t, repo.Create(ctx, dated))
	undated := testutil.NewTestTask(producer.ID, tmpl.ID, 3, testutil.WithEstimatedDate(""))
	require.NoError(t, repo.Create(ctx, undated))

	n, err := repo.ShiftEstimatedDates(ctx, producer.ID, tmpl.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.GetByID(ctx, undated.ID)
	require.NoError(t, err)
	assert.Empty(t, got.EstimatedDate)
}

func TestGetActiveByProducerPicksLowestOpenSequence(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	done := testutil.NewTestTask(producer.ID, tmpl.ID, 1, testutil.WithTaskStatus(domain.TaskCompleted))
	require.NoError(t, repo.Create(ctx, done))
	blocked := testutil.NewTestTask(producer.ID, tmpl.ID, 2, testutil.WithTaskStatus(domain.TaskBlocked))
	require.NoError(t, repo.Create(ctx, blocked))
	pending := testutil.NewTestTask(producer.ID, tmpl.ID, 3)
	require.NoError(t, repo.Create(ctx, pending))

	active, err := repo.GetActiveByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, blocked.ID, active.ID)
}

func TestGetActiveByProducerNoneOpen(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	done := testutil.NewTestTask(producer.ID, tmpl.ID, 1, testutil.WithTaskStatus(domain.TaskCompleted))
	require.NoError(t, repo.Create(ctx, done))

	_, err := repo.GetActiveByProducer(ctx, producer.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestTaskUpdateUnknownID(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	task := testutil.NewTestTask(producer.ID, tmpl.ID, 1)
	task.ID = "does-not-exist"
	err := repo.Update(ctx, task)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestListByProducerOrdersBySequence(t *testing.T) {
	ctx, repo, producer, tmpl := newTaskRepoForTest(t)

	for _, seq := range []int{3, 1, 2} {
		require.NoError(t, repo.Create(ctx, testutil.NewTestTask(producer.ID, tmpl.ID, seq)))
	}

	tasks, err := repo.ListByProducer(ctx, producer.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	for i, task := range tasks {
		assert.Equal(t, i+1, task.Sequence)
	}
}
