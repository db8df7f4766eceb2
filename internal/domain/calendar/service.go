package calendar

import (
	"context"
	"time"
)

// Resolver answers whether a date is a working day for a tenancy scope.
type Resolver interface {
	// Resolve classifies date. When no config exists it returns a
	// non-working resolution together with ErrUnresolvedCalendar.
	Resolve(ctx context.Context, organizationID string, companyID string, date time.Time) (Resolution, error)

	// IsWorkingDay is Resolve reduced to a boolean. It fails closed.
	IsWorkingDay(ctx context.Context, organizationID string, companyID string, date time.Time) (bool, error)
}
