package leave

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// ApprovedLeave is an approved leave request covering a date.
type ApprovedLeave struct {
	RequestID     string
	StaffMemberID string
	LeaveTypeID   string
	StartDate     time.Time
	EndDate       time.Time
}

// Covers reports whether date falls within the leave, bounds inclusive.
func (l ApprovedLeave) Covers(date time.Time) bool {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(l.StartDate) && !day.After(l.EndDate)
}
