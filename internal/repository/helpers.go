package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/avaldivia/cosecha/internal/domain"
)

// parseNullableTime parses a sql.NullString into a *time.Time using the given layout.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise the formatted string.
func nullableTimeToString(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// nullableStr converts an empty string to SQL NULL.
func nullableStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// strFromNullable converts a sql.NullString to a plain string, empty for NULL.
func strFromNullable(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// nullableStrPtr converts a *string to a value suitable for SQLite storage.
func nullableStrPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// strPtrFromNullable converts a sql.NullString to a *string, nil for NULL.
func strPtrFromNullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// nullableIntPtr converts a *int to a value suitable for SQLite storage.
func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// intPtrFromNullable converts a sql.NullInt64 to a *int, nil for NULL.
func intPtrFromNullable(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// metricsToJSON serializes a metrics mapping for a JSON text column.
// A nil map serializes as the empty object.
func metricsToJSON(m domain.Metrics) string {
	if m == nil {
		m = domain.Metrics{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// metricsFromJSON deserializes a JSON text column into a metrics mapping.
// Malformed or empty text yields an empty map rather than an error; these
// columns hold model-derived data and readers must not fail on them.
func metricsFromJSON(raw string) domain.Metrics {
	m := domain.Metrics{}
	if raw == "" {
		return m
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return domain.Metrics{}
	}
	return m
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}
