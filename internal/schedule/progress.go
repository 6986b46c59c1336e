package schedule

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/avaldivia/cosecha/internal/domain"
)

// Evaluation statuses.
const (
	ProgressNoData    = "no_data"
	ProgressOK        = "ok"
	ProgressAttention = "attention"
)

// ProgressSummary carries the evaluated log's date and observations.
type ProgressSummary struct {
	LogDate      string   `json:"log_date"`
	Observations []string `json:"observations"`
}

// ProgressEvaluation is the outcome of comparing logged metrics against
// plan targets.
type ProgressEvaluation struct {
	Status  string           `json:"status"`
	Flags   []string         `json:"flags"`
	Summary *ProgressSummary `json:"summary"`
}

// EvaluateProgress compares the most recent log's metrics against the plan's
// declared targets. Logs must arrive ordered most-recent-first (log date
// descending, ties broken by creation time descending); the first entry is
// taken as latest. Pure: identical inputs always yield identical output.
//
// Per target key: a metric absent from the latest log flags missing_<key>;
// a numeric actual below a numeric target flags <key>_low; non-numeric
// values that differ flag <key>_off_target.
func EvaluateProgress(plan *domain.ActivePlan, logs []*domain.DailyLog) ProgressEvaluation {
	if plan == nil || len(logs) == 0 {
		return ProgressEvaluation{Status: ProgressNoData, Flags: []string{}}
	}

	latest := logs[0]
	keys := make([]string, 0, len(plan.Targets))
	for key := range plan.Targets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	flags := []string{}
	for _, key := range keys {
		expected := plan.Targets[key]
		actual, ok := latest.Metrics[key]
		if !ok || actual == nil {
			flags = append(flags, "missing_"+key)
			continue
		}
		expNum, expIsNum := asNumber(expected)
		actNum, actIsNum := asNumber(actual)
		if expIsNum && actIsNum {
			if actNum < expNum {
				flags = append(flags, key+"_low")
			}
			continue
		}
		if fmt.Sprint(actual) != fmt.Sprint(expected) {
			flags = append(flags, key+"_off_target")
		}
	}

	status := ProgressOK
	if len(flags) > 0 {
		status = ProgressAttention
	}
	return ProgressEvaluation{
		Status: status,
		Flags:  flags,
		Summary: &ProgressSummary{
			LogDate:      latest.LogDate,
			Observations: flags,
		},
	}
}

// asNumber reports whether a decoded JSON value is numeric. Metrics pass
// through encoding/json, so numbers usually arrive as float64, but values
// built in Go tests or fixtures may be int or json.Number.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
