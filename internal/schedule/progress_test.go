package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/domain"
)

func activePlan(targets domain.Metrics) *domain.ActivePlan {
	return &domain.ActivePlan{
		AssignmentID: "a1",
		PlanID:       "p1",
		Name:         "Plan maiz",
		StartDate:    "2024-01-01",
		Targets:      targets,
	}
}

func logEntry(date string, metrics domain.Metrics) *domain.DailyLog {
	return &domain.DailyLog{ProducerID: "prod1", LogDate: date, Metrics: metrics}
}

func TestEvaluateProgressNoData(t *testing.T) {
	eval := EvaluateProgress(nil, []*domain.DailyLog{logEntry("2024-01-05", nil)})
	assert.Equal(t, ProgressNoData, eval.Status)
	assert.Empty(t, eval.Flags)
	assert.Nil(t, eval.Summary)

	eval = EvaluateProgress(activePlan(domain.Metrics{"humidity": 60}), nil)
	assert.Equal(t, ProgressNoData, eval.Status)
}

func TestEvaluateProgressBelowNumericTarget(t *testing.T) {
	plan := activePlan(domain.Metrics{"humidity": float64(60)})
	logs := []*domain.DailyLog{logEntry("2024-01-05", domain.Metrics{"humidity": float64(45)})}

	eval := EvaluateProgress(plan, logs)
	assert.Equal(t, ProgressAttention, eval.Status)
	assert.Equal(t, []string{"humidity_low"}, eval.Flags)
	require.NotNil(t, eval.Summary)
	assert.Equal(t, "2024-01-05", eval.Summary.LogDate)
	assert.Equal(t, []string{"humidity_low"}, eval.Summary.Observations)
}

func TestEvaluateProgressMeetsTargets(t *testing.T) {
	plan := activePlan(domain.Metrics{"humidity": float64(60), "stage": "floracion"})
	logs := []*domain.DailyLog{logEntry("2024-01-05", domain.Metrics{
		"humidity": float64(72),
		"stage":    "floracion",
	})}

	eval := EvaluateProgress(plan, logs)
	assert.Equal(t, ProgressOK, eval.Status)
	assert.Empty(t, eval.Flags)
}

func TestEvaluateProgressMissingAndOffTarget(t *testing.T) {
	plan := activePlan(domain.Metrics{
		"humidity": float64(60),
		"ph":       float64(6),
		"stage":    "floracion",
	})
	logs := []*domain.DailyLog{logEntry("2024-01-05", domain.Metrics{
		"humidity": float64(60),
		"stage":    "vegetativo",
	})}

	eval := EvaluateProgress(plan, logs)
	assert.Equal(t, ProgressAttention, eval.Status)
	assert.Equal(t, []string{"missing_ph", "stage_off_target"}, eval.Flags)
}

func TestEvaluateProgressUsesLatestLogOnly(t *testing.T) {
	plan := activePlan(domain.Metrics{"humidity": float64(60)})
	logs := []*domain.DailyLog{
		logEntry("2024-01-05", domain.Metrics{"humidity": float64(70)}),
		logEntry("2024-01-04", domain.Metrics{"humidity": float64(10)}),
	}

	eval := EvaluateProgress(plan, logs)
	assert.Equal(t, ProgressOK, eval.Status)
}

func TestEvaluateProgressDeterministicFlagOrder(t *testing.T) {
	plan := activePlan(domain.Metrics{"b": float64(1), "a": float64(1), "c": float64(1)})
	logs := []*domain.DailyLog{logEntry("2024-01-05", domain.Metrics{})}

	for i := 0; i < 10; i++ {
		eval := EvaluateProgress(plan, logs)
		assert.Equal(t, []string{"missing_a", "missing_b", "missing_c"}, eval.Flags)
	}
}

func TestEvaluateProgressIntAndFloatMix(t *testing.T) {
	plan := activePlan(domain.Metrics{"humidity": 60})
	logs := []*domain.DailyLog{logEntry("2024-01-05", domain.Metrics{"humidity": float64(59.5)})}

	eval := EvaluateProgress(plan, logs)
	assert.Equal(t, []string{"humidity_low"}, eval.Flags)
}
