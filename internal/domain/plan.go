package domain

import "time"

// Metrics is a free-form mapping of metric key to a JSON scalar
// (number, string, or bool). Stored as a JSON text column.
type Metrics map[string]any

// Plan declares target metrics for an assigned crop plan.
type Plan struct {
	ID          string
	Name        string
	Description string
	Targets     Metrics
	CreatedAt   time.Time
}

// PlanAssignment links a producer to a plan with a start date.
// Readers select the most recently started active assignment when a
// producer carries more than one.
type PlanAssignment struct {
	ID         string
	ProducerID string
	PlanID     string
	StartDate  string // DateLayout
	Status     AssignmentStatus
	CreatedAt  time.Time
}

// ActivePlan is the joined view of an active assignment with its plan,
// handed to the context builder and the progress evaluator.
type ActivePlan struct {
	AssignmentID string
	PlanID       string
	Name         string
	Description  string
	StartDate    string
	Targets      Metrics
}

// TaskDefinition is one entry of a plan template's ordered task list.
// Exactly zero or one of the offset fields is meaningful; DaysFromStart
// wins when both are present.
type TaskDefinition struct {
	Order             *int    `json:"order"`
	Task              *string `json:"task"`
	DaysFromStart     *int    `json:"days_from_start,omitempty"`
	DaysAfterPrevious *int    `json:"days_after_previous,omitempty"`
}

// PlanTemplate is a reusable crop-specific ordered list of task definitions.
type PlanTemplate struct {
	ID        string
	CropType  string
	Tasks     []TaskDefinition
	CreatedAt time.Time
}

// Task is one concrete dated step of a producer's plan. Sequence numbers are
// unique within producer+template; mutated exclusively through the task
// lifecycle, never deleted.
type Task struct {
	ID             string
	ProducerID     string
	TemplateID     string
	Name           string
	Sequence       int
	Status         TaskStatus
	EstimatedDate  string // DateLayout, empty if undated
	CompletionDate string // DateLayout, set only on completion
	ProgressPct    *int
	BlockerReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DailyLog is an append-only producer check-in entry.
type DailyLog struct {
	ID         string
	ProducerID string
	PlanID     *string
	LogTypeID  *string
	LogDate    string // DateLayout
	Notes      string
	Metrics    Metrics
	CreatedAt  time.Time
}
