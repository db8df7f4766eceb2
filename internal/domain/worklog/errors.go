package worklog

import "errors"

// Worklog domain errors
var (
	// Punch errors
	ErrAlreadyClockedIn     = errors.New("already clocked in today")
	ErrNotClockedIn         = errors.New("not clocked in yet")
	ErrAlreadyClockedOut    = errors.New("already clocked out")
	ErrInvalidClockOutTime  = errors.New("clock-out time must be after clock-in time")
	ErrPunchOnApprovedLeave = errors.New("cannot punch on a day covered by approved leave")
	ErrPunchInFuture        = errors.New("punch timestamp is in the future")
	ErrPunchOutsideToday    = errors.New("punch must fall on the current log date")

	// Location errors
	ErrInvalidLocation     = errors.New("invalid location")
	ErrLocationUnavailable = errors.New("location unavailable")

	// General errors
	ErrEntryNotFound          = errors.New("work log entry not found")
	ErrCorrectionOutsideDay   = errors.New("corrected clock-in must fall on the entry's log date")
	ErrSweepAlreadyInProgress = errors.New("sweep already in progress for this company")
)
