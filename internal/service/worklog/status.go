package worklog

import (
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/shopspring/decimal"
)

// StatusPolicy holds the configurable parts of status derivation.
type StatusPolicy struct {
	HalfDayThresholdHours decimal.Decimal
	MissingClockOutStatus worklog.Status
}

// StatusInput describes one day at the moment it is evaluated. A missing
// clock-out is only meaningful at day close, which is the only time the
// deriver is asked about an open entry.
type StatusInput struct {
	WorkingDay  bool
	Leave       *leave.ApprovedLeave
	HasClockIn  bool
	HasClockOut bool
	TotalHours  decimal.Decimal
}

type StatusOutcome struct {
	Status      worklog.Status
	Anomalies   []worklog.Anomaly
	LeaveTypeID *string
}

// DeriveStatus applies the day's precedence rules: non-working day, then
// approved leave, then punches.
func DeriveStatus(in StatusInput, policy StatusPolicy) StatusOutcome {
	var out StatusOutcome

	if in.HasClockIn && !in.HasClockOut {
		out.Anomalies = append(out.Anomalies, worklog.AnomalyMissingClockOut)
	}

	switch {
	case !in.WorkingDay:
		out.Status = worklog.StatusHoliday
		if in.HasClockIn {
			out.Anomalies = append(out.Anomalies, worklog.AnomalyPunchOnNonWorkingDay)
		}
	case in.Leave != nil && !in.HasClockIn:
		out.Status = worklog.StatusOnLeave
		leaveTypeID := in.Leave.LeaveTypeID
		out.LeaveTypeID = &leaveTypeID
	case in.Leave != nil:
		out.Status = worklog.StatusPresent
		out.Anomalies = append(out.Anomalies, worklog.AnomalyPunchOnApprovedLeave)
	case !in.HasClockIn:
		out.Status = worklog.StatusAbsent
	case !in.HasClockOut:
		out.Status = policy.MissingClockOutStatus
	case in.TotalHours.GreaterThanOrEqual(policy.HalfDayThresholdHours):
		out.Status = worklog.StatusPresent
	default:
		out.Status = worklog.StatusHalfDay
	}

	return out
}

// derivedAnomalies are recomputed on every evaluation. Others, such as a
// rejected location, stick to the entry.
var derivedAnomalies = []worklog.Anomaly{
	worklog.AnomalyMissingClockOut,
	worklog.AnomalyPunchOnNonWorkingDay,
	worklog.AnomalyPunchOnApprovedLeave,
}

// carryAnomalies keeps the sticky anomalies of existing and appends fresh.
func carryAnomalies(existing []worklog.Anomaly, fresh []worklog.Anomaly) []worklog.Anomaly {
	kept := make([]worklog.Anomaly, 0, len(existing))
	for _, a := range existing {
		derived := false
		for _, d := range derivedAnomalies {
			if a == d {
				derived = true
				break
			}
		}
		if !derived {
			kept = append(kept, a)
		}
	}
	return worklog.MergeAnomalies(kept, fresh...)
}

// openDayOutcome is the provisional outcome of an entry without a clock-out
// whose day has not closed yet.
func openDayOutcome(out StatusOutcome) StatusOutcome {
	anomalies := make([]worklog.Anomaly, 0, len(out.Anomalies))
	for _, a := range out.Anomalies {
		if a != worklog.AnomalyMissingClockOut {
			anomalies = append(anomalies, a)
		}
	}
	return StatusOutcome{Status: worklog.StatusPresent, Anomalies: anomalies}
}
