package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/google/uuid"
)

// SystemActor is recorded as created_by/updated_by for sweep writes.
const SystemActor = "system:sweep"

type sweepOutcome int

const (
	sweepNotClosed sweepOutcome = iota
	sweepUnresolved
	sweepUnchanged
	sweepMarkerCreated
	sweepFinalized
)

// Sweep implements worklog.Service. A company that fails or is locked by
// another instance is logged and skipped.
func (s *WorkLogServiceImpl) Sweep(ctx context.Context, req worklog.SweepRequest) (worklog.SweepResult, error) {
	if err := req.Validate(); err != nil {
		return worklog.SweepResult{}, err
	}
	actorID := req.ActorID
	if actorID == "" {
		actorID = SystemActor
	}

	var companyIDs []string
	if req.CompanyID != nil {
		companyIDs = []string{*req.CompanyID}
	} else {
		ids, err := s.registry.ListCompanyIDs(ctx)
		if err != nil {
			return worklog.SweepResult{}, fmt.Errorf("failed to list companies: %w", err)
		}
		companyIDs = ids
	}

	var total worklog.SweepResult
	for _, companyID := range companyIDs {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		res, err := s.SweepCompany(ctx, companyID, req.LogDate, actorID)
		if errors.Is(err, worklog.ErrSweepAlreadyInProgress) {
			slog.Info("Sweep skipped, company locked by another instance", "company_id", companyID)
			total.LockedOut++
			continue
		}
		if err != nil {
			slog.Error("Failed to sweep company", "company_id", companyID, "error", err)
			total.Failed++
			continue
		}
		total.Add(res)
	}

	return total, nil
}

// SweepCompany implements worklog.Service.
func (s *WorkLogServiceImpl) SweepCompany(ctx context.Context, companyID string, logDate *time.Time, actorID string) (worklog.SweepResult, error) {
	now := s.now()

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, sweepLockKey(companyID, logDate), s.cfg.SweepLockTTL)
		if err != nil {
			return worklog.SweepResult{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("Failed to release sweep lock", "company_id", companyID, "error", err)
			}
		}()
	}

	members, err := s.registry.ListActiveStaff(ctx, companyID)
	if err != nil {
		return worklog.SweepResult{}, fmt.Errorf("failed to list active staff: %w", err)
	}

	result := worklog.SweepResult{Companies: 1}
	for _, member := range members {
		result.StaffVisited++

		for _, date := range sweepDates(member.Shift, logDate, now) {
			outcome, err := s.sweepStaffDay(ctx, member, date, now, actorID)
			if err != nil {
				slog.Error("Failed to reconcile staff member",
					"staff_member_id", member.ID,
					"company_id", companyID,
					"log_date", date.Format("2006-01-02"),
					"error", err,
				)
				result.Failed++
				continue
			}

			switch outcome {
			case sweepNotClosed:
				result.NotYetClosed++
			case sweepUnresolved:
				result.Unresolved++
			case sweepUnchanged:
				result.Unchanged++
			case sweepMarkerCreated:
				result.MarkersCreated++
			case sweepFinalized:
				result.Finalized++
			}
		}
	}

	slog.Info("Sweep completed for company",
		"company_id", companyID,
		"staff", result.StaffVisited,
		"markers_created", result.MarkersCreated,
		"finalized", result.Finalized,
		"failed", result.Failed,
	)

	return result, nil
}

// sweepStaffDay reconciles one staff member for one closed day. Reconciled
// entries are never touched, which makes re-runs no-ops.
func (s *WorkLogServiceImpl) sweepStaffDay(ctx context.Context, member staff.StaffMember, logDate time.Time, now time.Time, actorID string) (sweepOutcome, error) {
	tenancy := staff.TenancyContext{OrganizationID: member.OrganizationID, CompanyID: member.CompanyID}
	day, err := s.evaluateDay(ctx, member.ID, tenancy, logDate)
	if err != nil {
		return 0, err
	}
	if day.unresolved {
		return sweepUnresolved, nil
	}
	if !DayClosed(member.Shift, logDate, day.working, now, s.cfg.SweepGrace) {
		return sweepNotClosed, nil
	}

	entry, err := s.repo.GetByStaffAndDate(ctx, member.ID, logDate)
	if err != nil {
		return 0, fmt.Errorf("failed to get work log entry: %w", err)
	}

	reconciledAt := now.UTC()

	if entry == nil {
		outcome := DeriveStatus(StatusInput{WorkingDay: day.working, Leave: day.leave}, s.cfg.Status)
		id, err := uuid.NewV7()
		if err != nil {
			return 0, fmt.Errorf("failed to generate entry id: %w", err)
		}
		metrics := zeroMetrics()
		created, err := s.repo.CreateMarker(ctx, worklog.WorkLogEntry{
			ID:             id.String(),
			StaffMemberID:  member.ID,
			LogDate:        logDate,
			OrganizationID: member.OrganizationID,
			CompanyID:      member.CompanyID,
			Status:         outcome.Status,
			Metrics:        &metrics,
			Anomalies:      outcome.Anomalies,
			LeaveTypeID:    outcome.LeaveTypeID,
			ReconciledAt:   &reconciledAt,
			CreatedBy:      actorID,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to create marker entry: %w", err)
		}
		if !created {
			return sweepUnchanged, nil
		}
		return sweepMarkerCreated, nil
	}

	if entry.IsReconciled() || entry.ClockOut != nil {
		return sweepUnchanged, nil
	}

	metrics := zeroMetrics()
	if entry.ClockIn != nil {
		metrics = metricsFor(member.Shift, logDate, *entry.ClockIn, nil, day.working)
	}
	outcome := DeriveStatus(StatusInput{
		WorkingDay: day.working,
		Leave:      day.leave,
		HasClockIn: entry.ClockIn != nil,
		TotalHours: metrics.TotalHours,
	}, s.cfg.Status)

	ok, err := s.repo.Reconcile(ctx, worklog.ReconcileParams{
		EntryID:     entry.ID,
		Status:      outcome.Status,
		Metrics:     metrics,
		Anomalies:   carryAnomalies(entry.Anomalies, outcome.Anomalies),
		LeaveTypeID: outcome.LeaveTypeID,
		ActorID:     actorID,
		At:          reconciledAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to finalize entry: %w", err)
	}
	if !ok {
		return sweepUnchanged, nil
	}
	return sweepFinalized, nil
}

// DayClosed reports whether logDate is over for a staff member at now. A
// working day closes grace after the shift ends. A non-working day has no
// expected shift and closes at the later of that and local midnight.
func DayClosed(shift staff.ShiftWindow, logDate time.Time, workingDay bool, now time.Time, grace time.Duration) bool {
	_, shiftEnd := shift.Bounds(logDate)
	closeAt := shiftEnd.Add(grace)
	if !workingDay {
		if eod := shift.EndOfDay(logDate); eod.After(closeAt) {
			closeAt = eod
		}
	}
	return !now.Before(closeAt)
}

// sweepDates returns the explicit date, or yesterday and today in the
// staff member's timezone.
func sweepDates(shift staff.ShiftWindow, explicit *time.Time, now time.Time) []time.Time {
	if explicit != nil {
		return []time.Time{*explicit}
	}
	today := shift.LogDate(now)
	return []time.Time{today.AddDate(0, 0, -1), today}
}

func sweepLockKey(companyID string, logDate *time.Time) string {
	date := "rolling"
	if logDate != nil {
		date = logDate.Format("2006-01-02")
	}
	return fmt.Sprintf("lock:worklog-sweep:%s:%s", companyID, date)
}
