package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/user"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/jwt"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid access token")
	case errors.Is(err, user.ErrOwnerAccessRequired),
		errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrStaffMemberRequired),
		errors.Is(err, user.ErrForbiddenStaffAccess):
		Forbidden(w, err.Error())

	// Staff registry errors
	case errors.Is(err, staff.ErrStaffMemberNotFound):
		NotFound(w, "Staff member not found")
	case errors.Is(err, staff.ErrInvalidShiftWindow):
		slog.Error("Staff member has an invalid shift window", "error", err)
		InternalServerError(w, "Staff member has an invalid shift configuration")

	// Ledger errors
	case errors.Is(err, worklog.ErrAlreadyClockedIn):
		Conflict(w, "ALREADY_CLOCKED_IN", "Already clocked in for this day")
	case errors.Is(err, worklog.ErrNotClockedIn):
		Conflict(w, "NOT_CLOCKED_IN", "No clock-in found for this day")
	case errors.Is(err, worklog.ErrAlreadyClockedOut):
		Conflict(w, "ALREADY_CLOCKED_OUT", "Already clocked out for this day")
	case errors.Is(err, worklog.ErrPunchOnApprovedLeave):
		Conflict(w, "PUNCH_ON_APPROVED_LEAVE", "Staff member is on approved leave")
	case errors.Is(err, worklog.ErrSweepAlreadyInProgress):
		Conflict(w, "SWEEP_IN_PROGRESS", "A sweep for this company is already running")
	case errors.Is(err, worklog.ErrPunchInFuture):
		Error(w, http.StatusUnprocessableEntity, "PUNCH_IN_FUTURE", "Punch timestamp is in the future")
	case errors.Is(err, worklog.ErrPunchOutsideToday):
		Error(w, http.StatusUnprocessableEntity, "PUNCH_OUTSIDE_TODAY", "Punches must fall on the current day; use a correction for other days")
	case errors.Is(err, worklog.ErrInvalidClockOutTime):
		Error(w, http.StatusUnprocessableEntity, "INVALID_CLOCK_OUT_TIME", "Clock-out must be after clock-in")
	case errors.Is(err, worklog.ErrInvalidLocation):
		Error(w, http.StatusUnprocessableEntity, "INVALID_LOCATION", err.Error())
	case errors.Is(err, worklog.ErrLocationUnavailable):
		Error(w, http.StatusUnprocessableEntity, "LOCATION_UNAVAILABLE", "Location is required")
	case errors.Is(err, worklog.ErrCorrectionOutsideDay):
		Error(w, http.StatusUnprocessableEntity, "CORRECTION_OUTSIDE_DAY", "Corrected clock-in must fall on the entry's log date")
	case errors.Is(err, worklog.ErrEntryNotFound):
		NotFound(w, "Work log entry not found")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
