package staff

import (
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
)

// TenancyContext is the staff member's assignment at the moment of lookup.
type TenancyContext struct {
	OrganizationID string
	CompanyID      string
}

// ShiftWindow is the expected working window of a staff member, expressed as
// minutes after local midnight in Location. A window whose end is not after
// its start is an overnight shift and ends on the following day.
type ShiftWindow struct {
	Location         *time.Location
	StartMinute      int
	EndMinute        int
	BreakStartMinute *int
	BreakEndMinute   *int
}

type StaffMember struct {
	ID               string
	OrganizationID   string
	CompanyID        string
	FullName         string
	EmploymentStatus string
	Shift            ShiftWindow
}

func (w ShiftWindow) location() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// IsOvernight reports whether the shift crosses local midnight.
func (w ShiftWindow) IsOvernight() bool {
	return w.EndMinute <= w.StartMinute
}

// LogDate returns the shift day ts belongs to, as a calendar date in the
// shift's timezone. On an overnight shift a moment before the end minute
// belongs to the shift that started the previous evening.
func (w ShiftWindow) LogDate(ts time.Time) time.Time {
	local := ts.In(w.location())
	day := calendar.DateOnly(local)
	if w.IsOvernight() && local.Hour()*60+local.Minute() < w.EndMinute {
		return day.AddDate(0, 0, -1)
	}
	return day
}

// Bounds returns the absolute shift start and end for logDate.
func (w ShiftWindow) Bounds(logDate time.Time) (start, end time.Time) {
	start = w.at(logDate, w.StartMinute)
	end = w.at(logDate, w.EndMinute)
	if w.IsOvernight() {
		end = w.at(logDate.AddDate(0, 0, 1), w.EndMinute)
	}
	return start, end
}

// BreakBounds returns the scheduled break for logDate, if any. A break that
// starts before the shift does is taken to fall on the next day.
func (w ShiftWindow) BreakBounds(logDate time.Time) (start, end time.Time, ok bool) {
	if w.BreakStartMinute == nil || w.BreakEndMinute == nil {
		return time.Time{}, time.Time{}, false
	}
	startDay := logDate
	if w.IsOvernight() && *w.BreakStartMinute < w.StartMinute {
		startDay = logDate.AddDate(0, 0, 1)
	}
	start = w.at(startDay, *w.BreakStartMinute)
	end = w.at(startDay, *w.BreakEndMinute)
	if !end.After(start) {
		end = w.at(startDay.AddDate(0, 0, 1), *w.BreakEndMinute)
	}
	return start, end, true
}

// EndOfDay returns local midnight at the end of logDate.
func (w ShiftWindow) EndOfDay(logDate time.Time) time.Time {
	y, m, d := logDate.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, w.location())
}

func (w ShiftWindow) at(day time.Time, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, minute, 0, 0, w.location())
}
