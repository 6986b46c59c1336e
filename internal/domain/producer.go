package domain

import "time"

// DateLayout is the storage layout for civil dates (estimated dates,
// completion dates, log dates, check-in dates).
const DateLayout = "2006-01-02"

// Producer is a smallholder identified by phone number. Created on first
// contact, mutated by admin operations and check-in logging, never deleted.
type Producer struct {
	ID                string
	Phone             string
	Name              string
	Zone              string
	PreferredLanguage string
	Allowed           bool
	Status            ProducerStatus
	Timezone          string
	LastCheckinDate   string // DateLayout, empty if never checked in
	AssignedRole      *Role

	EnableFormulario   bool
	EnableConsulta     bool
	EnableIntervencion bool

	CreatedAt time.Time
}

// Form is the per-producer mutable intake scratchpad. At most one open form
// per producer at a time.
type Form struct {
	ID            string
	ProducerID    string
	Status        FormStatus
	Crop          string
	Symptom       string
	ProblemOnset  string
	PhotoReceived bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FormUpdate carries a nullable-safe partial update: nil fields leave the
// current value untouched.
type FormUpdate struct {
	Crop          *string
	Symptom       *string
	ProblemOnset  *string
	PhotoReceived *bool
}

// Apply merges non-nil fields into the form.
func (f *Form) Apply(u FormUpdate) {
	if u.Crop != nil {
		f.Crop = *u.Crop
	}
	if u.Symptom != nil {
		f.Symptom = *u.Symptom
	}
	if u.ProblemOnset != nil {
		f.ProblemOnset = *u.ProblemOnset
	}
	if u.PhotoReceived != nil {
		f.PhotoReceived = *u.PhotoReceived
	}
}

// Alert is an advisory raised for a producer. Append-only until marked sent.
type Alert struct {
	ID         string
	ProducerID string
	Level      AlertLevel
	Reason     string
	Action     string
	Message    string
	Status     AlertStatus
	CreatedAt  time.Time
	SentAt     *time.Time
}

// Message is one chat turn between a producer and the assistant.
type Message struct {
	ID         string
	ProducerID string
	Direction  MessageDirection
	Content    string
	Status     string
	CreatedAt  time.Time
}

// LogType classifies daily logs.
type LogType struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// AgentConfig holds per-role oracle configuration.
type AgentConfig struct {
	ID          string
	Role        Role
	Enabled     bool
	Description string
	Prompt      string
	MaxTokens   int
}
