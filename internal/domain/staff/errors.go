package staff

import "errors"

var (
	ErrStaffMemberNotFound = errors.New("staff member not found")
	ErrInvalidShiftWindow  = errors.New("staff member has an invalid shift window")
)
