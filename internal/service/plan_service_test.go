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

func newPlanServiceForTest(t *testing.T, supersede bool) (PlanService, *planFixtures) {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := &planFixtures{
		producers:   repository.NewSQLiteProducerRepo(database),
		templates:   repository.NewSQLiteTemplateRepo(database),
		assignments: repository.NewSQLiteAssignmentRepo(database),
		tasks:       repository.NewSQLiteTaskRepo(database),
		logs:        repository.NewSQLiteDailyLogRepo(database),
		plans:       repository.NewSQLitePlanRepo(database),
	}
	svc := NewPlanService(f.templates, f.assignments, f.logs, testutil.NewTestUoW(database), 3, supersede, nil)
	return svc, f
}

type planFixtures struct {
	producers   repository.ProducerRepo
	templates   repository.TemplateRepo
	assignments repository.AssignmentRepo
	tasks       repository.TaskRepo
	logs        repository.DailyLogRepo
	plans       repository.PlanRepo
}

func TestAssignPlanCreatesEverything(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))
	tmpl := testutil.NewTestTemplate("maiz", testutil.WithTemplateTasks(
		testutil.TaskDef(1, "Siembra", 0),
		testutil.TaskDef(2, "Fertilización", 7),
		testutil.TaskDef(3, "Cosecha", 30),
	))
	require.NoError(t, f.templates.Create(ctx, tmpl))

	result, err := svc.AssignPlan(ctx, AssignPlanInput{
		ProducerID: producer.ID,
		TemplateID: tmpl.ID,
		StartDate:  "2024-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.TasksCreated)
	assert.Equal(t, "Plan maiz", result.Plan.Name)
	assert.Equal(t, domain.AssignmentActive, result.Assignment.Status)

	active, err := f.assignments.GetActiveByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Plan.ID, active.PlanID)
	assert.Equal(t, "2024-01-01", active.StartDate)

	tasks, err := f.tasks.ListByProducer(ctx, producer.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "2024-01-01", tasks[0].EstimatedDate)
	assert.Equal(t, "2024-01-08", tasks[1].EstimatedDate)
	assert.Equal(t, "2024-02-07", tasks[2].EstimatedDate)
	for _, task := range tasks {
		assert.Equal(t, domain.TaskPending, task.Status)
	}
}

func TestAssignPlanUnknownTemplateRollsBack(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))

	_, err := svc.AssignPlan(ctx, AssignPlanInput{
		ProducerID: producer.ID,
		TemplateID: "missing",
		StartDate:  "2024-01-01",
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	assignments, err := f.assignments.ListByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestAssignPlanUnknownProducer(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	tmpl := testutil.NewTestTemplate("maiz")
	require.NoError(t, f.templates.Create(ctx, tmpl))

	_, err := svc.AssignPlan(ctx, AssignPlanInput{
		ProducerID: "missing",
		TemplateID: tmpl.ID,
		StartDate:  "2024-01-01",
	})
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestAssignPlanRejectsBadStartDate(t *testing.T) {
	svc, _ := newPlanServiceForTest(t, false)

	_, err := svc.AssignPlan(context.Background(), AssignPlanInput{
		ProducerID: "p",
		TemplateID: "t",
		StartDate:  "01/01/2024",
	})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestAssignPlanKeepsOlderAssignmentsByDefault(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))
	tmpl := testutil.NewTestTemplate("maiz")
	require.NoError(t, f.templates.Create(ctx, tmpl))

	_, err := svc.AssignPlan(ctx, AssignPlanInput{ProducerID: producer.ID, TemplateID: tmpl.ID, StartDate: "2024-01-01"})
	require.NoError(t, err)
	second, err := svc.AssignPlan(ctx, AssignPlanInput{ProducerID: producer.ID, TemplateID: tmpl.ID, StartDate: "2024-02-01"})
	require.NoError(t, err)

	assignments, err := f.assignments.ListByProducer(ctx, producer.ID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	for _, a := range assignments {
		assert.Equal(t, domain.AssignmentActive, a.Status)
	}

	// Readers pick the most recently started one.
	active, err := f.assignments.GetActiveByProducer(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Plan.ID, active.PlanID)
}

func TestAssignPlanSupersedesWhenConfigured(t *testing.T) {
	svc, f := newPlanServiceForTest(t, true)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))
	tmpl := testutil.NewTestTemplate("maiz")
	require.NoError(t, f.templates.Create(ctx, tmpl))

	first, err := svc.AssignPlan(ctx, AssignPlanInput{ProducerID: producer.ID, TemplateID: tmpl.ID, StartDate: "2024-01-01"})
	require.NoError(t, err)
	second, err := svc.AssignPlan(ctx, AssignPlanInput{ProducerID: producer.ID, TemplateID: tmpl.ID, StartDate: "2024-02-01"})
	require.NoError(t, err)

	assignments, err := f.assignments.ListByProducer(ctx, producer.ID)
	require.NoError(t, err)
	statuses := map[string]domain.AssignmentStatus{}
	for _, a := range assignments {
		statuses[a.ID] = a.Status
	}
	assert.Equal(t, domain.AssignmentCancelled, statuses[first.Assignment.ID])
	assert.Equal(t, domain.AssignmentActive, statuses[second.Assignment.ID])
}

func TestEvaluateProgressWithoutPlan(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))

	eval, err := svc.EvaluateProgress(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, "no_data", eval.Status)
}

func TestEvaluateProgressWithPlanAndLogs(t *testing.T) {
	svc, f := newPlanServiceForTest(t, false)
	ctx := context.Background()

	producer := testutil.NewTestProducer("Rosa")
	require.NoError(t, f.producers.Create(ctx, producer))

	plan := testutil.NewTestPlan("Plan maiz", domain.Metrics{"humidity": float64(60)})
	require.NoError(t, f.plans.Create(ctx, plan))
	require.NoError(t, f.assignments.Create(ctx, testutil.NewTestAssignment(producer.ID, plan.ID, "2024-01-01")))

	entry := testutil.NewTestDailyLog(producer.ID, time.Now().UTC().Format(domain.DateLayout), domain.Metrics{"humidity": float64(45)})
	require.NoError(t, f.logs.Create(ctx, entry))

	eval, err := svc.EvaluateProgress(ctx, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, "attention", eval.Status)
	assert.Equal(t, []string{"humidity_low"}, eval.Flags)
}
