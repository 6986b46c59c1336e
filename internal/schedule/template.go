// Package schedule holds the pure scheduling computations: template
// expansion into dated tasks, completion-delay arithmetic for the cascade
// reschedule, and plan progress evaluation. Nothing here touches storage
// or the clock.
package schedule

import (
	"time"

	"github.com/avaldivia/cosecha/internal/domain"
)

// ExpandedTask is one concrete dated step produced from a task definition.
type ExpandedTask struct {
	Sequence      int
	Name          string
	EstimatedDate time.Time
}

// ExpandTemplate converts a template's ordered task definitions into dated
// tasks anchored at startDate.
//
// Definitions are walked in storage order, not re-sorted by sequence number;
// templates are expected to arrive pre-sorted and the caller's sequence
// numbers are preserved verbatim. A running cursor starts at startDate:
// days_from_start dates relative to the anchor (and wins if both offsets are
// present), days_after_previous dates relative to the cursor, and a
// definition with neither offset lands on the cursor unchanged. The cursor
// advances to each computed date regardless of which rule fired.
//
// Definitions missing a sequence number or a name are dropped silently;
// the remaining definitions still expand.
func ExpandTemplate(tmpl *domain.PlanTemplate, startDate time.Time) []ExpandedTask {
	if tmpl == nil {
		return nil
	}
	var expanded []ExpandedTask
	cursor := startDate
	for _, def := range tmpl.Tasks {
		if def.Order == nil || def.Task == nil || *def.Task == "" {
			continue
		}
		var estimated time.Time
		switch {
		case def.DaysFromStart != nil:
			estimated = startDate.AddDate(0, 0, *def.DaysFromStart)
		case def.DaysAfterPrevious != nil:
			estimated = cursor.AddDate(0, 0, *def.DaysAfterPrevious)
		default:
			estimated = cursor
		}
		cursor = estimated
		expanded = append(expanded, ExpandedTask{
			Sequence:      *def.Order,
			Name:          *def.Task,
			EstimatedDate: estimated,
		})
	}
	return expanded
}

// DelayDays returns the signed whole-day difference between a task's
// completion date and its estimated date. Positive means late, negative
// means early.
func DelayDays(estimated, completed time.Time) int {
	e := time.Date(estimated.Year(), estimated.Month(), estimated.Day(), 0, 0, 0, 0, time.UTC)
	c := time.Date(completed.Year(), completed.Month(), completed.Day(), 0, 0, 0, 0, time.UTC)
	return int(c.Sub(e).Hours() / 24)
}
