package worklog

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func entryFor(t *testing.T, entries []worklog.WorkLogEntry, staffMemberID string, logDate time.Time) worklog.WorkLogEntry {
	t.Helper()
	for _, e := range entries {
		if e.StaffMemberID == staffMemberID && e.LogDate.Equal(logDate) && e.DeletedAt == nil {
			return e
		}
	}
	require.Failf(t, "entry not found", "%s on %s", staffMemberID, logDate.Format("2006-01-02"))
	return worklog.WorkLogEntry{}
}

func TestSweepFinalizesOpenEntriesAndMarksAbsence(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
	require.NoError(t, err)

	fx.clock.Set(at(19, 0))
	res, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, worklog.SweepResult{Companies: 1, StaffVisited: 2, MarkersCreated: 1, Finalized: 1}, res)

	entries := fx.repo.snapshot()
	require.Len(t, entries, 2)

	alice := entryFor(t, entries, aliceID, testDay)
	assert.Equal(t, worklog.StatusHalfDay, alice.Status)
	assert.Equal(t, []worklog.Anomaly{worklog.AnomalyMissingClockOut}, alice.Anomalies)
	require.True(t, alice.IsReconciled())
	assert.Equal(t, "0.00", alice.Metrics.TotalHours.StringFixed(2))
	assert.Nil(t, alice.ClockOut)
	assert.Equal(t, SystemActor, *alice.UpdatedBy)

	bob := entryFor(t, entries, bobID, testDay)
	assert.Equal(t, worklog.StatusAbsent, bob.Status)
	assert.Nil(t, bob.ClockIn)
	require.True(t, bob.IsReconciled())
	assert.Equal(t, 0, bob.Metrics.LateMinutes)
	assert.Equal(t, SystemActor, bob.CreatedBy)
}

func TestSweepMissingClockOutStatusIsConfigurable(t *testing.T) {
	fx := newFixture(t, func(c *Config) { c.Status.MissingClockOutStatus = worklog.StatusAbsent })
	ctx := context.Background()

	_, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
	require.NoError(t, err)

	fx.clock.Set(at(19, 0))
	_, err = fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)

	alice := entryFor(t, fx.repo.snapshot(), aliceID, testDay)
	assert.Equal(t, worklog.StatusAbsent, alice.Status)
	assert.True(t, alice.HasAnomaly(worklog.AnomalyMissingClockOut))
}

func TestSweepIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
	require.NoError(t, err)

	// rolling window: Sunday the 9th has closed at midnight, Monday at 19:00
	fx.clock.Set(at(19, 0))
	first, err := fx.svc.Sweep(ctx, worklog.SweepRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, first.MarkersCreated)
	assert.Equal(t, 1, first.Finalized)

	before := fx.repo.snapshot()

	fx.clock.Set(at(19, 30))
	second, err := fx.svc.Sweep(ctx, worklog.SweepRequest{})
	require.NoError(t, err)
	assert.Zero(t, second.MarkersCreated)
	assert.Zero(t, second.Finalized)
	assert.Equal(t, 4, second.Unchanged)

	assert.Equal(t, before, fx.repo.snapshot())

	sunday := testDay.AddDate(0, 0, -1)
	assert.Equal(t, worklog.StatusHoliday, entryFor(t, before, bobID, sunday).Status)
}

func TestSweepWaitsForDayClose(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.clock.Set(at(18, 59))
	res, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NotYetClosed)
	assert.Empty(t, fx.repo.snapshot())
}

func TestSweepLeaveAndHolidayMarkers(t *testing.T) {
	t.Run("on leave", func(t *testing.T) {
		fx := newFixture(t)
		fx.leaves.leaves = []leave.ApprovedLeave{{RequestID: "lr-1", StaffMemberID: bobID, LeaveTypeID: "sick", StartDate: testDay, EndDate: testDay}}

		fx.clock.Set(at(19, 0))
		_, err := fx.svc.Sweep(context.Background(), worklog.SweepRequest{Date: sp("2025-03-10")})
		require.NoError(t, err)

		entries := fx.repo.snapshot()
		bob := entryFor(t, entries, bobID, testDay)
		assert.Equal(t, worklog.StatusOnLeave, bob.Status)
		require.NotNil(t, bob.LeaveTypeID)
		assert.Equal(t, "sick", *bob.LeaveTypeID)
		assert.Equal(t, worklog.StatusAbsent, entryFor(t, entries, aliceID, testDay).Status)
	})

	t.Run("holiday closes at local midnight", func(t *testing.T) {
		fx := newFixture(t)
		fx.resolver.holidays[testDay] = true
		ctx := context.Background()

		fx.clock.Set(at(19, 0))
		res, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
		require.NoError(t, err)
		assert.Equal(t, 2, res.NotYetClosed)

		fx.clock.Set(testDay.AddDate(0, 0, 1))
		res, err = fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
		require.NoError(t, err)
		assert.Equal(t, 2, res.MarkersCreated)
		for _, e := range fx.repo.snapshot() {
			assert.Equal(t, worklog.StatusHoliday, e.Status)
			assert.Empty(t, e.Anomalies)
		}
	})
}

func TestSweepUnresolvedCalendarWritesNothing(t *testing.T) {
	fx := newFixture(t)
	fx.resolver.unresolved = true

	fx.clock.Set(at(23, 0))
	res, err := fx.svc.Sweep(context.Background(), worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Unresolved)
	assert.Zero(t, res.MarkersCreated)
	assert.Empty(t, fx.repo.snapshot())
}

func TestSweepContinuesPastFailingStaff(t *testing.T) {
	fx := newFixture(t)
	fx.repo.failFor[aliceID] = errBoom

	fx.clock.Set(at(19, 0))
	res, err := fx.svc.Sweep(context.Background(), worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.MarkersCreated)

	entries := fx.repo.snapshot()
	require.Len(t, entries, 1)
	assert.Equal(t, bobID, entries[0].StaffMemberID)
}

func TestSweepSkipsLockedCompany(t *testing.T) {
	fx := newFixture(t)
	fx.locker.held = map[string]bool{sweepLockKey(testCompanyID, &testDay): true}

	fx.clock.Set(at(19, 0))
	res, err := fx.svc.Sweep(context.Background(), worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.LockedOut)
	assert.Zero(t, res.Companies)
	assert.Empty(t, fx.repo.snapshot())

	// the lock is released after a successful run
	delete(fx.locker.held, sweepLockKey(testCompanyID, &testDay))
	_, err = fx.svc.SweepCompany(context.Background(), testCompanyID, &testDay, SystemActor)
	require.NoError(t, err)
	assert.Empty(t, fx.locker.held)
}

func TestSweepLeavesCompletedEntries(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
	require.NoError(t, err)
	fx.clock.Set(at(17, 0))
	out, err := fx.svc.ClockOut(ctx, punch(aliceID, at(17, 0)))
	require.NoError(t, err)

	fx.clock.Set(at(19, 0))
	res, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Unchanged)
	assert.Equal(t, 1, res.MarkersCreated)

	alice := entryFor(t, fx.repo.snapshot(), aliceID, testDay)
	assert.Equal(t, out.ID, alice.ID)
	assert.Equal(t, worklog.StatusPresent, alice.Status)
}

func TestClockInReusesSweepMarker(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.clock.Set(at(19, 0))
	_, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)
	marker := entryFor(t, fx.repo.snapshot(), bobID, testDay)
	require.Equal(t, worklog.StatusAbsent, marker.Status)

	fx.clock.Set(at(19, 30))
	late := punch(bobID, at(19, 30))
	late.ActorID = managerUserID
	in, err := fx.svc.ClockIn(ctx, late)
	require.NoError(t, err)
	assert.Equal(t, marker.ID, in.ID)
	assert.Equal(t, "present", in.Status)
	assert.Nil(t, in.TotalHours)
	assert.Nil(t, in.ReconciledAt)

	fx.clock.Set(at(20, 30))
	out, err := fx.svc.ClockOut(ctx, punch(bobID, at(20, 30)))
	require.NoError(t, err)
	assert.Equal(t, marker.ID, out.ID)
	assert.Equal(t, "half_day", out.Status)
	assert.Equal(t, "1.00", out.TotalHours.StringFixed(2))

	assert.Len(t, fx.repo.snapshot(), 2)
}

func TestClosedDayIsNotReopenedByLaterPunches(t *testing.T) {
	ctx := context.Background()

	t.Run("absent", func(t *testing.T) {
		fx := newFixture(t)
		fx.clock.Set(at(19, 0))
		_, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
		require.NoError(t, err)
		marker := entryFor(t, fx.repo.snapshot(), bobID, testDay)

		fx.clock.Set(at(10, 0).AddDate(0, 0, 5))
		_, err = fx.svc.ClockIn(ctx, punch(bobID, at(8, 55)))
		assert.ErrorIs(t, err, worklog.ErrPunchOutsideToday)
		_, err = fx.svc.ClockOut(ctx, punch(bobID, at(17, 0)))
		assert.ErrorIs(t, err, worklog.ErrPunchOutsideToday)

		after := entryFor(t, fx.repo.snapshot(), bobID, testDay)
		assert.Equal(t, marker, after)
		assert.Equal(t, worklog.StatusAbsent, after.Status)
		assert.True(t, after.IsReconciled())
		assert.Nil(t, after.ClockIn)
	})

	t.Run("future day", func(t *testing.T) {
		fx := newFixture(t)

		_, err := fx.svc.ClockIn(ctx, punch(bobID, at(9, 0).AddDate(0, 0, 90)))
		assert.ErrorIs(t, err, worklog.ErrPunchInFuture)
		_, err = fx.svc.ClockIn(ctx, punch(bobID, at(9, 0).AddDate(0, 0, 1)))
		assert.ErrorIs(t, err, worklog.ErrPunchInFuture)
		assert.Empty(t, fx.repo.snapshot())
	})

	t.Run("holiday and leave markers", func(t *testing.T) {
		fx := newFixture(t)
		fx.resolver.holidays[testDay] = true
		fx.leaves.leaves = []leave.ApprovedLeave{{RequestID: "lr-1", StaffMemberID: aliceID, LeaveTypeID: "sick", StartDate: testDay.AddDate(0, 0, 1), EndDate: testDay.AddDate(0, 0, 1)}}

		fx.clock.Set(at(0, 0).AddDate(0, 0, 2))
		_, err := fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
		require.NoError(t, err)
		_, err = fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-11")})
		require.NoError(t, err)

		fx.clock.Set(at(9, 0).AddDate(0, 0, 2))
		_, err = fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
		assert.ErrorIs(t, err, worklog.ErrPunchOutsideToday)
		_, err = fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0).AddDate(0, 0, 1)))
		assert.ErrorIs(t, err, worklog.ErrPunchOutsideToday)

		assert.Equal(t, worklog.StatusHoliday, entryFor(t, fx.repo.snapshot(), aliceID, testDay).Status)
		assert.Equal(t, worklog.StatusOnLeave, entryFor(t, fx.repo.snapshot(), aliceID, testDay.AddDate(0, 0, 1)).Status)

		// today is still open for punches
		in, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0).AddDate(0, 0, 2)))
		require.NoError(t, err)
		assert.Equal(t, "2025-03-12", in.LogDate)
	})
}

func TestSweepClockOutAfterMissingClockOut(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.svc.ClockIn(ctx, punch(aliceID, at(9, 0)))
	require.NoError(t, err)

	fx.clock.Set(at(19, 0))
	_, err = fx.svc.Sweep(ctx, worklog.SweepRequest{Date: sp("2025-03-10")})
	require.NoError(t, err)

	fx.clock.Set(at(19, 10))
	out, err := fx.svc.ClockOut(ctx, punch(aliceID, at(19, 5)))
	require.NoError(t, err)
	assert.Equal(t, "present", out.Status)
	assert.NotContains(t, out.Anomalies, "missing_clock_out")
	assert.Equal(t, 125, *out.OvertimeMinutes)
}

func TestSweepValidation(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Sweep(context.Background(), worklog.SweepRequest{Date: sp("10-03-2025")})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date")
}

func TestDayClosed(t *testing.T) {
	grace := 2 * time.Hour

	t.Run("working day closes after shift end plus grace", func(t *testing.T) {
		assert.False(t, DayClosed(nineToFive(), testDay, true, at(18, 59), grace))
		assert.True(t, DayClosed(nineToFive(), testDay, true, at(19, 0), grace))
	})

	t.Run("non-working day closes at local midnight", func(t *testing.T) {
		assert.False(t, DayClosed(nineToFive(), testDay, false, at(23, 59), grace))
		assert.True(t, DayClosed(nineToFive(), testDay, false, testDay.AddDate(0, 0, 1), grace))
	})

	t.Run("overnight shift closes the next morning", func(t *testing.T) {
		night := staff.ShiftWindow{Location: time.UTC, StartMinute: 22 * 60, EndMinute: 6 * 60}
		nextDay := testDay.AddDate(0, 0, 1)
		assert.False(t, DayClosed(night, testDay, true, nextDay.Add(7*time.Hour), grace))
		assert.True(t, DayClosed(night, testDay, true, nextDay.Add(8*time.Hour), grace))
	})

	t.Run("timezone", func(t *testing.T) {
		wib := time.FixedZone("WIB", 7*60*60)
		shift := staff.ShiftWindow{Location: wib, StartMinute: 9 * 60, EndMinute: 17 * 60}
		// 19:00 WIB is 12:00 UTC
		assert.True(t, DayClosed(shift, testDay, true, at(12, 0), grace))
		assert.False(t, DayClosed(shift, testDay, true, at(11, 59), grace))
	})
}

func TestSweepDates(t *testing.T) {
	wib := time.FixedZone("WIB", 7*60*60)
	shift := staff.ShiftWindow{Location: wib, StartMinute: 9 * 60, EndMinute: 17 * 60}

	// 20:00 UTC on the 10th is already the 11th in WIB
	dates := sweepDates(shift, nil, at(20, 0))
	assert.Equal(t, []time.Time{testDay, testDay.AddDate(0, 0, 1)}, dates)

	explicit := testDay.AddDate(0, 0, -5)
	assert.Equal(t, []time.Time{explicit}, sweepDates(shift, &explicit, at(20, 0)))

	assert.Equal(t, "lock:worklog-sweep:company-1:rolling", sweepLockKey("company-1", nil))
	assert.Equal(t, "lock:worklog-sweep:company-1:2025-03-10", sweepLockKey("company-1", &testDay))
}
