package worklog

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
	StatusHoliday Status = "holiday"

	// StatusNotClockedIn is never stored. Status returns it when there is no
	// entry for today.
	StatusNotClockedIn Status = "not_clocked_in"
)

// Anomaly flags a ledger entry for review without changing its punches.
type Anomaly string

const (
	AnomalyPunchOnNonWorkingDay Anomaly = "punch_on_non_working_day"
	AnomalyPunchOnApprovedLeave Anomaly = "punch_on_approved_leave"
	AnomalyMissingClockOut      Anomaly = "missing_clock_out"
	AnomalyLocationRejected     Anomaly = "location_rejected"
)

// Location is a normalized punch location. Coordinates are nil when the
// device did not report a usable fix. SourceIP is always recorded.
type Location struct {
	Latitude       *float64
	Longitude      *float64
	AccuracyMeters *float64
	SourceIP       string
}

// HasCoordinates reports whether the punch carried a usable fix.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Metrics are the derived time facts of an entry. They are produced only by
// the metrics calculator and always written together.
type Metrics struct {
	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
	BreakMinutes      int
	TotalHours        decimal.Decimal
}

// WorkLogEntry is the canonical attendance record of one staff member for one
// calendar day.
type WorkLogEntry struct {
	ID             string
	StaffMemberID  string
	LogDate        time.Time
	OrganizationID string
	CompanyID      string

	ClockIn          *time.Time
	ClockOut         *time.Time
	ClockInLocation  Location
	ClockOutLocation Location

	Status           Status
	Metrics          *Metrics // nil until reconciled
	Anomalies        []Anomaly
	LeaveTypeID      *string
	ReconciledAt     *time.Time
	CorrectionReason *string

	CreatedBy string
	UpdatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
	DeletedBy *string

	// DTO
	StaffMemberName *string
}

// IsReconciled reports whether derived fields have been written.
func (e WorkLogEntry) IsReconciled() bool {
	return e.Metrics != nil && e.ReconciledAt != nil
}

// IsOpen reports whether the entry is clocked in and waiting for clock-out.
func (e WorkLogEntry) IsOpen() bool {
	return e.ClockIn != nil && e.ClockOut == nil
}

func (e WorkLogEntry) HasAnomaly(a Anomaly) bool {
	return slices.Contains(e.Anomalies, a)
}

// MergeAnomalies returns the union of base and extra in first-seen order.
func MergeAnomalies(base []Anomaly, extra ...Anomaly) []Anomaly {
	out := make([]Anomaly, 0, len(base)+len(extra))
	for _, a := range append(slices.Clone(base), extra...) {
		if !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

// IsValidStatus reports whether s can be stored on an entry.
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusOnLeave, StatusHoliday:
		return true
	}
	return false
}
