package domain

import "strings"

// Role identifies which agent persona handles a conversation turn.
type Role string

const (
	RoleFormulario   Role = "formulario"
	RoleConsulta     Role = "consulta"
	RoleIntervencion Role = "intervencion"
)

// ValidRoles is the canonical set of accepted role strings.
var ValidRoles = map[Role]bool{
	RoleFormulario:   true,
	RoleConsulta:     true,
	RoleIntervencion: true,
}

type ProducerStatus string

const (
	ProducerActive   ProducerStatus = "active"
	ProducerInactive ProducerStatus = "inactive"
)

type FormStatus string

const (
	FormOpen   FormStatus = "open"
	FormClosed FormStatus = "closed"
)

type AlertLevel string

const (
	AlertLow    AlertLevel = "low"
	AlertMedium AlertLevel = "medium"
	AlertHigh   AlertLevel = "high"
)

type AlertStatus string

const (
	AlertOpen AlertStatus = "open"
	AlertSent AlertStatus = "sent"
)

type MessageDirection string

const (
	DirectionUser      MessageDirection = "user"
	DirectionAssistant MessageDirection = "assistant"
)

type AssignmentStatus string

const (
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// TaskStatus is stored as a fixed-case token.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskBlocked    TaskStatus = "BLOCKED"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// ParseTaskStatus normalizes a raw status token (any case, Spanish synonyms
// included since the oracle is prompted in Spanish) into a canonical
// TaskStatus. Returns false if the token is not recognized.
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING", "PENDIENTE":
		return TaskPending, true
	case "IN_PROGRESS", "EN_PROGRESO":
		return TaskInProgress, true
	case "BLOCKED", "BLOQUEADO":
		return TaskBlocked, true
	case "COMPLETED", "COMPLETADO":
		return TaskCompleted, true
	}
	return "", false
}

// ParseAlertLevel normalizes a raw alert level, defaulting to medium.
func ParseAlertLevel(raw string) AlertLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "bajo":
		return AlertLow
	case "high", "alto":
		return AlertHigh
	case "medium", "medio":
		return AlertMedium
	}
	return AlertMedium
}
