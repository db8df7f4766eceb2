package worklog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/google/uuid"
)

const (
	LeavePunchPolicyFlag   = "flag"
	LeavePunchPolicyReject = "reject"
)

// Config holds the ledger policy. It is built from config.LedgerConfig and
// config.SweepConfig in main.
type Config struct {
	Location         LocationPolicy
	Status           StatusPolicy
	LeavePunchPolicy string
	SweepGrace       time.Duration
	SweepLockTTL     time.Duration
}

type WorkLogServiceImpl struct {
	repo     worklog.Repository
	tx       worklog.Transactor
	registry staff.Registry
	resolver calendar.Resolver
	leaves   leave.Checker
	locker   worklog.SweepLocker
	cfg      Config
	now      func() time.Time
}

type Option func(*WorkLogServiceImpl)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *WorkLogServiceImpl) { s.now = now }
}

// WithSweepLocker guards company sweeps with a distributed lock.
func WithSweepLocker(locker worklog.SweepLocker) Option {
	return func(s *WorkLogServiceImpl) { s.locker = locker }
}

func NewWorkLogService(
	repo worklog.Repository,
	tx worklog.Transactor,
	registry staff.Registry,
	resolver calendar.Resolver,
	leaves leave.Checker,
	cfg Config,
	opts ...Option,
) *WorkLogServiceImpl {
	if cfg.SweepLockTTL <= 0 {
		cfg.SweepLockTTL = 10 * time.Minute
	}
	s := &WorkLogServiceImpl{
		repo:     repo,
		tx:       tx,
		registry: registry,
		resolver: resolver,
		leaves:   leaves,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ worklog.Service = (*WorkLogServiceImpl)(nil)

// dayContext is what the calendar and leave collaborators say about a day.
type dayContext struct {
	working    bool
	unresolved bool
	leave      *leave.ApprovedLeave
}

func (s *WorkLogServiceImpl) evaluateDay(ctx context.Context, staffMemberID string, tenancy staff.TenancyContext, logDate time.Time) (dayContext, error) {
	res, err := s.resolver.Resolve(ctx, tenancy.OrganizationID, tenancy.CompanyID, logDate)
	unresolved := errors.Is(err, calendar.ErrUnresolvedCalendar)
	if err != nil && !unresolved {
		return dayContext{}, fmt.Errorf("failed to resolve working calendar: %w", err)
	}
	if unresolved {
		slog.Warn("No working days config, treating day as non-working",
			"staff_member_id", staffMemberID,
			"organization_id", tenancy.OrganizationID,
			"company_id", tenancy.CompanyID,
			"log_date", logDate.Format("2006-01-02"),
		)
	}

	approved, err := s.leaves.ApprovedLeaveOn(ctx, staffMemberID, logDate)
	if err != nil {
		return dayContext{}, fmt.Errorf("failed to check approved leave: %w", err)
	}

	return dayContext{
		working:    res.IsWorkingDay(),
		unresolved: unresolved,
		leave:      approved,
	}, nil
}

// ClockIn implements worklog.Service.
func (s *WorkLogServiceImpl) ClockIn(ctx context.Context, req worklog.PunchRequest) (worklog.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return worklog.EntryResponse{}, err
	}

	tenancy, err := s.registry.GetTenancyContext(ctx, req.StaffMemberID)
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to get tenancy context: %w", err)
	}
	shift, err := s.registry.GetShiftWindow(ctx, req.StaffMemberID)
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to get shift window: %w", err)
	}
	logDate, reuseFrom, err := s.punchLogDate(shift, req.Timestamp)
	if err != nil {
		return worklog.EntryResponse{}, err
	}

	existing, err := s.repo.GetByStaffAndDate(ctx, req.StaffMemberID, logDate)
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to get work log entry: %w", err)
	}
	if existing != nil && existing.ClockIn != nil {
		return worklog.EntryResponse{}, worklog.ErrAlreadyClockedIn
	}

	location, anomalies, err := s.cfg.Location.resolveLocation(req.Location, req.SourceIP)
	if err != nil {
		return worklog.EntryResponse{}, err
	}

	day, err := s.evaluateDay(ctx, req.StaffMemberID, tenancy, logDate)
	if err != nil {
		return worklog.EntryResponse{}, err
	}
	if day.leave != nil {
		if s.cfg.LeavePunchPolicy == LeavePunchPolicyReject {
			return worklog.EntryResponse{}, worklog.ErrPunchOnApprovedLeave
		}
		anomalies = append(anomalies, worklog.AnomalyPunchOnApprovedLeave)
	}
	if !day.working {
		anomalies = append(anomalies, worklog.AnomalyPunchOnNonWorkingDay)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to generate entry id: %w", err)
	}

	entry, err := s.repo.ClockIn(ctx, worklog.ClockInParams{
		ID:              id.String(),
		StaffMemberID:   req.StaffMemberID,
		LogDate:         logDate,
		OrganizationID:  tenancy.OrganizationID,
		CompanyID:       tenancy.CompanyID,
		ClockIn:         req.Timestamp.UTC(),
		Location:        location,
		Anomalies:       worklog.MergeAnomalies(nil, anomalies...),
		ActorID:         req.ActorID,
		MarkerReuseFrom: reuseFrom,
	})
	if err != nil {
		if errors.Is(err, worklog.ErrAlreadyClockedIn) {
			return worklog.EntryResponse{}, err
		}
		return worklog.EntryResponse{}, fmt.Errorf("failed to record clock-in: %w", err)
	}

	return worklog.ToResponse(entry), nil
}

// ClockOut implements worklog.Service.
func (s *WorkLogServiceImpl) ClockOut(ctx context.Context, req worklog.PunchRequest) (worklog.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return worklog.EntryResponse{}, err
	}

	shift, err := s.registry.GetShiftWindow(ctx, req.StaffMemberID)
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to get shift window: %w", err)
	}
	if _, _, err := s.punchLogDate(shift, req.Timestamp); err != nil {
		return worklog.EntryResponse{}, err
	}

	entry, err := s.findCurrentEntry(ctx, req.StaffMemberID, shift, req.Timestamp)
	if err != nil {
		return worklog.EntryResponse{}, err
	}
	if entry == nil || entry.ClockIn == nil {
		return worklog.EntryResponse{}, worklog.ErrNotClockedIn
	}
	if entry.ClockOut != nil {
		return worklog.EntryResponse{}, worklog.ErrAlreadyClockedOut
	}
	if !req.Timestamp.After(*entry.ClockIn) {
		return worklog.EntryResponse{}, worklog.ErrInvalidClockOutTime
	}

	location, locationAnomalies, err := s.cfg.Location.resolveLocation(req.Location, req.SourceIP)
	if err != nil {
		return worklog.EntryResponse{}, err
	}

	tenancy := staff.TenancyContext{OrganizationID: entry.OrganizationID, CompanyID: entry.CompanyID}
	day, err := s.evaluateDay(ctx, req.StaffMemberID, tenancy, entry.LogDate)
	if err != nil {
		return worklog.EntryResponse{}, err
	}

	clockOut := req.Timestamp.UTC()
	metrics := metricsFor(shift, entry.LogDate, *entry.ClockIn, &clockOut, day.working)
	outcome := DeriveStatus(StatusInput{
		WorkingDay:  day.working,
		Leave:       day.leave,
		HasClockIn:  true,
		HasClockOut: true,
		TotalHours:  metrics.TotalHours,
	}, s.cfg.Status)

	updated, err := s.repo.CompleteClockOut(ctx, worklog.ClockOutParams{
		EntryID:     entry.ID,
		ClockOut:    clockOut,
		Location:    location,
		Status:      outcome.Status,
		Metrics:     metrics,
		Anomalies:   carryAnomalies(entry.Anomalies, append(locationAnomalies, outcome.Anomalies...)),
		LeaveTypeID: outcome.LeaveTypeID,
		ActorID:     req.ActorID,
		At:          s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, worklog.ErrAlreadyClockedOut) {
			return worklog.EntryResponse{}, err
		}
		return worklog.EntryResponse{}, fmt.Errorf("failed to record clock-out: %w", err)
	}

	return worklog.ToResponse(updated), nil
}

// punchLogDate returns the log date of a punch at ts and the earliest log
// date whose reconciled marker a clock-in may take over. A punch lands on the
// current log date, or on a neighbouring one only when ts is within
// worklog.MaxPunchClockSkew of server time. Other days go through Correct.
func (s *WorkLogServiceImpl) punchLogDate(shift staff.ShiftWindow, ts time.Time) (logDate, reuseFrom time.Time, err error) {
	now := s.now()
	if ts.After(now.Add(worklog.MaxPunchClockSkew)) {
		return time.Time{}, time.Time{}, worklog.ErrPunchInFuture
	}

	today := shift.LogDate(now)
	logDate = shift.LogDate(ts)
	if !logDate.Equal(today) && now.Sub(ts).Abs() > worklog.MaxPunchClockSkew {
		return time.Time{}, time.Time{}, worklog.ErrPunchOutsideToday
	}

	reuseFrom = today
	if logDate.Before(today) {
		reuseFrom = logDate
	}
	return logDate, reuseFrom, nil
}

// findCurrentEntry returns the entry a punch at ts belongs to. For an
// overnight shift a punch after midnight belongs to the previous day's
// open entry when today has no clock-in of its own.
func (s *WorkLogServiceImpl) findCurrentEntry(ctx context.Context, staffMemberID string, shift staff.ShiftWindow, ts time.Time) (*worklog.WorkLogEntry, error) {
	logDate := shift.LogDate(ts)

	entry, err := s.repo.GetByStaffAndDate(ctx, staffMemberID, logDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get work log entry: %w", err)
	}
	if entry != nil && entry.ClockIn != nil {
		return entry, nil
	}
	if !shift.IsOvernight() {
		return entry, nil
	}

	prev, err := s.repo.GetByStaffAndDate(ctx, staffMemberID, logDate.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("failed to get previous work log entry: %w", err)
	}
	if prev != nil && prev.IsOpen() && ts.Sub(*prev.ClockIn) < 24*time.Hour {
		return prev, nil
	}
	return entry, nil
}

// Status implements worklog.Service.
func (s *WorkLogServiceImpl) Status(ctx context.Context, staffMemberID string) (worklog.EntryResponse, error) {
	shift, err := s.registry.GetShiftWindow(ctx, staffMemberID)
	if err != nil {
		return worklog.EntryResponse{}, fmt.Errorf("failed to get shift window: %w", err)
	}

	now := s.now()
	entry, err := s.findCurrentEntry(ctx, staffMemberID, shift, now)
	if err != nil {
		return worklog.EntryResponse{}, err
	}
	if entry == nil {
		return worklog.NotClockedInResponse(staffMemberID, shift.LogDate(now)), nil
	}
	return worklog.ToResponse(*entry), nil
}

// Get implements worklog.Service.
func (s *WorkLogServiceImpl) Get(ctx context.Context, id string, companyID string) (worklog.EntryResponse, error) {
	entry, err := s.repo.GetByID(ctx, id, companyID)
	if err != nil {
		return worklog.EntryResponse{}, err
	}
	return worklog.ToResponse(entry), nil
}

// List implements worklog.Service.
func (s *WorkLogServiceImpl) List(ctx context.Context, filter worklog.EntryFilter) (worklog.ListEntriesResponse, error) {
	if err := filter.Validate(); err != nil {
		return worklog.ListEntriesResponse{}, err
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return worklog.ListEntriesResponse{}, fmt.Errorf("failed to list work log entries: %w", err)
	}

	responses := make([]worklog.EntryResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, worklog.ToResponse(e))
	}

	return worklog.ListEntriesResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Entries:    responses,
	}, nil
}

// Correct implements worklog.Service. The corrected punches go through the
// same calculator and deriver as live punches.
func (s *WorkLogServiceImpl) Correct(ctx context.Context, req worklog.CorrectionRequest) (worklog.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return worklog.EntryResponse{}, err
	}

	var corrected worklog.WorkLogEntry
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.repo.GetByIDForUpdate(ctx, req.EntryID, req.CompanyID)
		if err != nil {
			return err
		}

		clockIn, clockOut := entry.ClockIn, entry.ClockOut
		if req.ClockInTime != nil {
			t := req.ClockInTime.UTC()
			clockIn = &t
		}
		if req.ClockOutTime != nil {
			t := req.ClockOutTime.UTC()
			clockOut = &t
		}
		if clockIn == nil {
			return worklog.ErrNotClockedIn
		}
		if clockOut != nil && !clockOut.After(*clockIn) {
			return worklog.ErrInvalidClockOutTime
		}

		shift, err := s.registry.GetShiftWindow(ctx, entry.StaffMemberID)
		if err != nil {
			return fmt.Errorf("failed to get shift window: %w", err)
		}
		if !shift.LogDate(*clockIn).Equal(entry.LogDate) {
			return worklog.ErrCorrectionOutsideDay
		}

		tenancy := staff.TenancyContext{OrganizationID: entry.OrganizationID, CompanyID: entry.CompanyID}
		day, err := s.evaluateDay(ctx, entry.StaffMemberID, tenancy, entry.LogDate)
		if err != nil {
			return err
		}

		metrics := metricsFor(shift, entry.LogDate, *clockIn, clockOut, day.working)
		outcome := DeriveStatus(StatusInput{
			WorkingDay:  day.working,
			Leave:       day.leave,
			HasClockIn:  true,
			HasClockOut: clockOut != nil,
			TotalHours:  metrics.TotalHours,
		}, s.cfg.Status)

		derived := &metrics
		if clockOut == nil && !DayClosed(shift, entry.LogDate, day.working, s.now(), s.cfg.SweepGrace) {
			// open day: provisional until clock-out or the sweep
			derived = nil
			outcome = openDayOutcome(outcome)
		}

		corrected, err = s.repo.ApplyCorrection(ctx, worklog.CorrectionParams{
			EntryID:     entry.ID,
			CompanyID:   req.CompanyID,
			ClockIn:     clockIn,
			ClockOut:    clockOut,
			Status:      outcome.Status,
			Metrics:     derived,
			Anomalies:   carryAnomalies(entry.Anomalies, outcome.Anomalies),
			LeaveTypeID: outcome.LeaveTypeID,
			Reason:      req.Reason,
			ActorID:     req.ActorID,
			At:          s.now().UTC(),
		})
		return err
	})
	if err != nil {
		return worklog.EntryResponse{}, err
	}

	slog.Info("Work log entry corrected",
		"entry_id", corrected.ID,
		"staff_member_id", corrected.StaffMemberID,
		"log_date", corrected.LogDate.Format("2006-01-02"),
		"actor_id", req.ActorID,
		"status", corrected.Status,
	)

	return worklog.ToResponse(corrected), nil
}

// Delete implements worklog.Service. Entries are tombstoned, never removed.
func (s *WorkLogServiceImpl) Delete(ctx context.Context, id string, companyID string, actorID string) error {
	if err := s.repo.SoftDelete(ctx, id, companyID, actorID, s.now().UTC()); err != nil {
		return err
	}
	slog.Info("Work log entry deleted", "entry_id", id, "company_id", companyID, "actor_id", actorID)
	return nil
}
