package worklog

import (
	"testing"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultStatusPolicy() StatusPolicy {
	return StatusPolicy{
		HalfDayThresholdHours: decimal.NewFromInt(4),
		MissingClockOutStatus: worklog.StatusHalfDay,
	}
}

func TestDeriveStatus(t *testing.T) {
	approved := &leave.ApprovedLeave{LeaveTypeID: "annual"}
	hours := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	tests := []struct {
		name          string
		in            StatusInput
		wantStatus    worklog.Status
		wantAnomalies []worklog.Anomaly
	}{
		{
			name:       "full day",
			in:         StatusInput{WorkingDay: true, HasClockIn: true, HasClockOut: true, TotalHours: hours("8.25")},
			wantStatus: worklog.StatusPresent,
		},
		{
			name:       "exactly at threshold",
			in:         StatusInput{WorkingDay: true, HasClockIn: true, HasClockOut: true, TotalHours: hours("4.00")},
			wantStatus: worklog.StatusPresent,
		},
		{
			name:       "below threshold",
			in:         StatusInput{WorkingDay: true, HasClockIn: true, HasClockOut: true, TotalHours: hours("3.99")},
			wantStatus: worklog.StatusHalfDay,
		},
		{
			name:       "no punch on working day",
			in:         StatusInput{WorkingDay: true},
			wantStatus: worklog.StatusAbsent,
		},
		{
			name:          "missing clock-out",
			in:            StatusInput{WorkingDay: true, HasClockIn: true},
			wantStatus:    worklog.StatusHalfDay,
			wantAnomalies: []worklog.Anomaly{worklog.AnomalyMissingClockOut},
		},
		{
			name:       "holiday without punch",
			in:         StatusInput{WorkingDay: false},
			wantStatus: worklog.StatusHoliday,
		},
		{
			name:          "holiday wins over punches",
			in:            StatusInput{WorkingDay: false, HasClockIn: true, HasClockOut: true, TotalHours: hours("8")},
			wantStatus:    worklog.StatusHoliday,
			wantAnomalies: []worklog.Anomaly{worklog.AnomalyPunchOnNonWorkingDay},
		},
		{
			name:       "holiday wins over leave",
			in:         StatusInput{WorkingDay: false, Leave: approved},
			wantStatus: worklog.StatusHoliday,
		},
		{
			name:       "approved leave without punch",
			in:         StatusInput{WorkingDay: true, Leave: approved},
			wantStatus: worklog.StatusOnLeave,
		},
		{
			name:          "punch on approved leave",
			in:            StatusInput{WorkingDay: true, Leave: approved, HasClockIn: true, HasClockOut: true, TotalHours: hours("2")},
			wantStatus:    worklog.StatusPresent,
			wantAnomalies: []worklog.Anomaly{worklog.AnomalyPunchOnApprovedLeave},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.in, defaultStatusPolicy())
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.ElementsMatch(t, tt.wantAnomalies, got.Anomalies)
		})
	}
}

func TestDeriveStatusLeaveType(t *testing.T) {
	got := DeriveStatus(StatusInput{WorkingDay: true, Leave: &leave.ApprovedLeave{LeaveTypeID: "sick"}}, defaultStatusPolicy())
	require.NotNil(t, got.LeaveTypeID)
	assert.Equal(t, "sick", *got.LeaveTypeID)

	got = DeriveStatus(StatusInput{WorkingDay: true}, defaultStatusPolicy())
	assert.Nil(t, got.LeaveTypeID)
}

func TestDeriveStatusMissingClockOutPolicy(t *testing.T) {
	policy := defaultStatusPolicy()
	policy.MissingClockOutStatus = worklog.StatusAbsent

	got := DeriveStatus(StatusInput{WorkingDay: true, HasClockIn: true}, policy)
	assert.Equal(t, worklog.StatusAbsent, got.Status)
	assert.Equal(t, []worklog.Anomaly{worklog.AnomalyMissingClockOut}, got.Anomalies)
}

func TestCarryAnomalies(t *testing.T) {
	existing := []worklog.Anomaly{worklog.AnomalyLocationRejected, worklog.AnomalyMissingClockOut}
	got := carryAnomalies(existing, []worklog.Anomaly{worklog.AnomalyPunchOnApprovedLeave})
	assert.Equal(t, []worklog.Anomaly{worklog.AnomalyLocationRejected, worklog.AnomalyPunchOnApprovedLeave}, got)

	assert.Empty(t, carryAnomalies(nil, nil))
}
