package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avaldivia/cosecha/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

func TestExpandTemplateCursorWalk(t *testing.T) {
	tmpl := &domain.PlanTemplate{
		CropType: "maiz",
		Tasks: []domain.TaskDefinition{
			{Order: intp(1), Task: strp("Sow"), DaysAfterPrevious: intp(0)},
			{Order: intp(2), Task: strp("Fertilize"), DaysAfterPrevious: intp(7)},
			{Order: intp(3), Task: strp("Harvest"), DaysAfterPrevious: intp(30)},
		},
	}

	expanded := ExpandTemplate(tmpl, day("2024-01-01"))
	require.Len(t, expanded, 3)

	assert.Equal(t, "Sow", expanded[0].Name)
	assert.Equal(t, day("2024-01-01"), expanded[0].EstimatedDate)
	assert.Equal(t, "Fertilize", expanded[1].Name)
	assert.Equal(t, day("2024-01-08"), expanded[1].EstimatedDate)
	assert.Equal(t, "Harvest", expanded[2].Name)
	assert.Equal(t, day("2024-02-07"), expanded[2].EstimatedDate)
}

func TestExpandTemplateDaysFromStartAnchorsToStart(t *testing.T) {
	tmpl := &domain.PlanTemplate{
		CropType: "cafe",
		Tasks: []domain.TaskDefinition{
			{Order: intp(1), Task: strp("Prepare"), DaysAfterPrevious: intp(10)},
			// Anchored to the plan start, not the previous task's date.
			{Order: intp(2), Task: strp("Inspect"), DaysFromStart: intp(3)},
			{Order: intp(3), Task: strp("Prune"), DaysAfterPrevious: intp(5)},
		},
	}

	expanded := ExpandTemplate(tmpl, day("2024-03-01"))
	require.Len(t, expanded, 3)

	assert.Equal(t, day("2024-03-11"), expanded[0].EstimatedDate)
	assert.Equal(t, day("2024-03-04"), expanded[1].EstimatedDate)
	// Cursor moved back to 03-04, so the next offset builds on it.
	assert.Equal(t, day("2024-03-09"), expanded[2].EstimatedDate)
}

func TestExpandTemplateDaysFromStartWinsOverDaysAfterPrevious(t *testing.T) {
	tmpl := &domain.PlanTemplate{
		CropType: "papa",
		Tasks: []domain.TaskDefinition{
			{Order: intp(1), Task: strp("First"), DaysFromStart: intp(4), DaysAfterPrevious: intp(99)},
		},
	}

	expanded := ExpandTemplate(tmpl, day("2024-01-01"))
	require.Len(t, expanded, 1)
	assert.Equal(t, day("2024-01-05"), expanded[0].EstimatedDate)
}

func TestExpandTemplateDropsIncompleteDefinitions(t *testing.T) {
	tmpl := &domain.PlanTemplate{
		CropType: "maiz",
		Tasks: []domain.TaskDefinition{
			{Order: nil, Task: strp("No order"), DaysAfterPrevious: intp(1)},
			{Order: intp(2), Task: nil, DaysAfterPrevious: intp(1)},
			{Order: intp(3), Task: strp(""), DaysAfterPrevious: intp(1)},
			{Order: intp(4), Task: strp("Kept"), DaysAfterPrevious: intp(2)},
		},
	}

	expanded := ExpandTemplate(tmpl, day("2024-01-01"))
	require.Len(t, expanded, 1)
	assert.Equal(t, "Kept", expanded[0].Name)
	assert.Equal(t, 4, expanded[0].Sequence)
}

func TestExpandTemplateMissingOffsetsDefaultToCursor(t *testing.T) {
	tmpl := &domain.PlanTemplate{
		CropType: "maiz",
		Tasks: []domain.TaskDefinition{
			{Order: intp(1), Task: strp("Start"), DaysAfterPrevious: intp(5)},
			{Order: intp(2), Task: strp("Same day")},
		},
	}

	expanded := ExpandTemplate(tmpl, day("2024-01-01"))
	require.Len(t, expanded, 2)
	assert.Equal(t, day("2024-01-06"), expanded[0].EstimatedDate)
	assert.Equal(t, day("2024-01-06"), expanded[1].EstimatedDate)
}

func TestExpandTemplateEmpty(t *testing.T) {
	assert.Empty(t, ExpandTemplate(&domain.PlanTemplate{CropType: "maiz"}, day("2024-01-01")))
	assert.Empty(t, ExpandTemplate(nil, day("2024-01-01")))
}

func TestDelayDays(t *testing.T) {
	assert.Equal(t, 2, DelayDays(day("2024-01-10"), day("2024-01-12")))
	assert.Equal(t, -3, DelayDays(day("2024-01-10"), day("2024-01-07")))
	assert.Equal(t, 0, DelayDays(day("2024-01-10"), day("2024-01-10")))
}
