package calendar

import "errors"

var (
	// ErrUnresolvedCalendar is returned alongside a non-working resolution
	// when no working-days config exists for the scope. Callers treat it as
	// a warning.
	ErrUnresolvedCalendar = errors.New("no working days config found")
	ErrInvalidScope       = errors.New("organization_id is required to resolve the calendar")
)
