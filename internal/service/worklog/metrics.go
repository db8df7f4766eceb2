package worklog

import (
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/shopspring/decimal"
)

// MetricsInput is everything the calculator needs. ShiftStart and ShiftEnd
// are absolute instants for the entry's log date.
type MetricsInput struct {
	ClockIn      time.Time
	ClockOut     *time.Time
	BreakMinutes int
	ShiftStart   time.Time
	ShiftEnd     time.Time
	WorkingDay   bool
}

var minutesPerHour = decimal.NewFromInt(60)

// CalculateMetrics derives the time facts of one entry.
//
// Worked time is rounded to the nearest minute before break minutes are
// taken off. Late, early-leave and overtime round up, so a nonzero value
// appears exactly when the boundary was crossed. Without a clock-out only
// lateness is known. On a non-working day there is no shift to measure
// against.
func CalculateMetrics(in MetricsInput) worklog.Metrics {
	var m worklog.Metrics

	if in.WorkingDay {
		m.LateMinutes = ceilMinutes(in.ClockIn.Sub(in.ShiftStart))
	}

	if in.ClockOut == nil {
		m.TotalHours = decimal.Zero.Round(2)
		return m
	}

	out := *in.ClockOut
	worked := roundMinutes(out.Sub(in.ClockIn))
	m.BreakMinutes = min(max(in.BreakMinutes, 0), worked)
	m.TotalHours = HoursFromMinutes(worked - m.BreakMinutes)

	if in.WorkingDay {
		m.EarlyLeaveMinutes = ceilMinutes(in.ShiftEnd.Sub(out))
		m.OvertimeMinutes = ceilMinutes(out.Sub(in.ShiftEnd))
	}

	return m
}

// HoursFromMinutes converts minutes to hours with two decimal places,
// flooring negative input at zero.
func HoursFromMinutes(minutes int) decimal.Decimal {
	if minutes < 0 {
		minutes = 0
	}
	return decimal.NewFromInt(int64(minutes)).Div(minutesPerHour).Round(2)
}

// ScheduledBreakMinutes is the overlap of [clockIn, clockOut] with the
// shift's scheduled break on logDate.
func ScheduledBreakMinutes(shift staff.ShiftWindow, logDate, clockIn, clockOut time.Time) int {
	breakStart, breakEnd, ok := shift.BreakBounds(logDate)
	if !ok {
		return 0
	}
	start := later(clockIn, breakStart)
	end := earlier(clockOut, breakEnd)
	if !end.After(start) {
		return 0
	}
	return roundMinutes(end.Sub(start))
}

// metricsFor builds calculator input for an entry on logDate.
func metricsFor(shift staff.ShiftWindow, logDate time.Time, clockIn time.Time, clockOut *time.Time, workingDay bool) worklog.Metrics {
	shiftStart, shiftEnd := shift.Bounds(logDate)
	in := MetricsInput{
		ClockIn:    clockIn,
		ClockOut:   clockOut,
		ShiftStart: shiftStart,
		ShiftEnd:   shiftEnd,
		WorkingDay: workingDay,
	}
	if clockOut != nil {
		in.BreakMinutes = ScheduledBreakMinutes(shift, logDate, clockIn, *clockOut)
	}
	return CalculateMetrics(in)
}

// zeroMetrics is written on entries that have no punch.
func zeroMetrics() worklog.Metrics {
	return worklog.Metrics{TotalHours: decimal.Zero.Round(2)}
}

func roundMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d.Round(time.Minute) / time.Minute)
}

func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
