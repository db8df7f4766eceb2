package leave

import (
	"context"
	"time"
)

// Checker is the read-only view of the leave subsystem used by the ledger.
type Checker interface {
	// ApprovedLeaveOn returns the approved leave covering date, or nil.
	ApprovedLeaveOn(ctx context.Context, staffMemberID string, date time.Time) (*ApprovedLeave, error)

	IsApprovedLeave(ctx context.Context, staffMemberID string, date time.Time) (bool, error)
}
