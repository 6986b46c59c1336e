package repository

import "errors"

// ErrNotFound is returned when a row lookup matches nothing. Callers use
// errors.Is to distinguish missing entities from storage failures.
var ErrNotFound = errors.New("not found")
