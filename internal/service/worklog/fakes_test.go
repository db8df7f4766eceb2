package worklog

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
)

// fakeRepo mirrors the storage semantics of the PostgreSQL repository: one
// live row per staff member and day, guarded by a single lock the way the
// partial unique index guards the table.
type fakeRepo struct {
	mu      sync.Mutex
	entries []*worklog.WorkLogEntry
	failFor map[string]error // staff member id -> error from GetByStaffAndDate
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{failFor: map[string]error{}}
}

func (r *fakeRepo) live(staffMemberID string, logDate time.Time) *worklog.WorkLogEntry {
	for _, e := range r.entries {
		if e.DeletedAt == nil && e.StaffMemberID == staffMemberID && e.LogDate.Equal(logDate) {
			return e
		}
	}
	return nil
}

func (r *fakeRepo) byID(id, companyID string) *worklog.WorkLogEntry {
	for _, e := range r.entries {
		if e.DeletedAt == nil && e.ID == id && e.CompanyID == companyID {
			return e
		}
	}
	return nil
}

func clone(e *worklog.WorkLogEntry) worklog.WorkLogEntry {
	c := *e
	c.Anomalies = slices.Clone(e.Anomalies)
	if e.Metrics != nil {
		m := *e.Metrics
		c.Metrics = &m
	}
	return c
}

func (r *fakeRepo) ClockIn(ctx context.Context, p worklog.ClockInParams) (worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clockIn := p.ClockIn
	loc := p.Location
	if e := r.live(p.StaffMemberID, p.LogDate); e != nil {
		if e.ClockIn != nil || (e.ReconciledAt != nil && e.LogDate.Before(p.MarkerReuseFrom)) {
			return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedIn
		}
		e.ClockIn = &clockIn
		e.ClockInLocation = loc
		e.OrganizationID, e.CompanyID = p.OrganizationID, p.CompanyID
		e.Status = worklog.StatusPresent
		e.Metrics, e.ReconciledAt, e.LeaveTypeID = nil, nil, nil
		e.Anomalies = slices.Clone(p.Anomalies)
		actor := p.ActorID
		e.UpdatedBy = &actor
		return clone(e), nil
	}

	e := &worklog.WorkLogEntry{
		ID:              p.ID,
		StaffMemberID:   p.StaffMemberID,
		LogDate:         p.LogDate,
		OrganizationID:  p.OrganizationID,
		CompanyID:       p.CompanyID,
		ClockIn:         &clockIn,
		ClockInLocation: loc,
		Status:          worklog.StatusPresent,
		Anomalies:       slices.Clone(p.Anomalies),
		CreatedBy:       p.ActorID,
	}
	r.entries = append(r.entries, e)
	return clone(e), nil
}

func (r *fakeRepo) CompleteClockOut(ctx context.Context, p worklog.ClockOutParams) (worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID != p.EntryID || e.DeletedAt != nil {
			continue
		}
		if e.ClockOut != nil {
			return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedOut
		}
		out, m, at, actor := p.ClockOut, p.Metrics, p.At, p.ActorID
		e.ClockOut = &out
		e.ClockOutLocation = p.Location
		e.Status = p.Status
		e.Metrics = &m
		e.Anomalies = slices.Clone(p.Anomalies)
		e.LeaveTypeID = p.LeaveTypeID
		e.ReconciledAt = &at
		e.UpdatedBy = &actor
		return clone(e), nil
	}
	return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedOut
}

func (r *fakeRepo) GetByStaffAndDate(ctx context.Context, staffMemberID string, logDate time.Time) (*worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failFor[staffMemberID]; err != nil {
		return nil, err
	}
	e := r.live(staffMemberID, logDate)
	if e == nil {
		return nil, nil
	}
	c := clone(e)
	return &c, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string, companyID string) (worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.byID(id, companyID)
	if e == nil {
		return worklog.WorkLogEntry{}, worklog.ErrEntryNotFound
	}
	return clone(e), nil
}

func (r *fakeRepo) GetByIDForUpdate(ctx context.Context, id string, companyID string) (worklog.WorkLogEntry, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *fakeRepo) CreateMarker(ctx context.Context, entry worklog.WorkLogEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.live(entry.StaffMemberID, entry.LogDate) != nil {
		return false, nil
	}
	c := clone(&entry)
	r.entries = append(r.entries, &c)
	return true, nil
}

func (r *fakeRepo) Reconcile(ctx context.Context, p worklog.ReconcileParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID != p.EntryID || e.DeletedAt != nil || e.ReconciledAt != nil || e.ClockOut != nil {
			continue
		}
		m, at, actor := p.Metrics, p.At, p.ActorID
		e.Status = p.Status
		e.Metrics = &m
		e.Anomalies = slices.Clone(p.Anomalies)
		e.LeaveTypeID = p.LeaveTypeID
		e.ReconciledAt = &at
		e.UpdatedBy = &actor
		return true, nil
	}
	return false, nil
}

func (r *fakeRepo) ApplyCorrection(ctx context.Context, p worklog.CorrectionParams) (worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.byID(p.EntryID, p.CompanyID)
	if e == nil {
		return worklog.WorkLogEntry{}, worklog.ErrEntryNotFound
	}
	at, actor, reason := p.At, p.ActorID, p.Reason
	e.ClockIn, e.ClockOut = p.ClockIn, p.ClockOut
	e.Status = p.Status
	e.Metrics, e.ReconciledAt = nil, nil
	if p.Metrics != nil {
		m := *p.Metrics
		e.Metrics, e.ReconciledAt = &m, &at
	}
	e.Anomalies = slices.Clone(p.Anomalies)
	e.LeaveTypeID = p.LeaveTypeID
	e.UpdatedBy = &actor
	e.CorrectionReason = &reason
	return clone(e), nil
}

func (r *fakeRepo) SoftDelete(ctx context.Context, id string, companyID string, actorID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := r.byID(id, companyID)
	if e == nil {
		return worklog.ErrEntryNotFound
	}
	e.DeletedAt = &at
	e.DeletedBy = &actorID
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter worklog.EntryFilter) ([]worklog.WorkLogEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []worklog.WorkLogEntry
	for _, e := range r.entries {
		if e.DeletedAt != nil || e.CompanyID != filter.CompanyID {
			continue
		}
		if filter.StaffMemberID != nil && e.StaffMemberID != *filter.StaffMemberID {
			continue
		}
		out = append(out, clone(e))
	}
	total := int64(len(out))
	start := min((filter.Page-1)*filter.Limit, len(out))
	end := min(start+filter.Limit, len(out))
	return out[start:end], total, nil
}

func (r *fakeRepo) ListForPeriod(ctx context.Context, companyID string, staffMemberID *string, from, to time.Time) ([]worklog.WorkLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []worklog.WorkLogEntry
	for _, e := range r.entries {
		if e.DeletedAt != nil || e.CompanyID != companyID || e.LogDate.Before(from) || e.LogDate.After(to) {
			continue
		}
		if staffMemberID != nil && e.StaffMemberID != *staffMemberID {
			continue
		}
		out = append(out, clone(e))
	}
	return out, nil
}

// snapshot returns every row, live or not, ordered for comparison.
func (r *fakeRepo) snapshot() []worklog.WorkLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]worklog.WorkLogEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StaffMemberID != out[j].StaffMemberID {
			return out[i].StaffMemberID < out[j].StaffMemberID
		}
		return out[i].LogDate.Before(out[j].LogDate)
	})
	return out
}

type fakeRegistry struct {
	members map[string]staff.StaffMember
}

func (f *fakeRegistry) get(id string) (staff.StaffMember, error) {
	m, ok := f.members[id]
	if !ok {
		return staff.StaffMember{}, staff.ErrStaffMemberNotFound
	}
	return m, nil
}

func (f *fakeRegistry) GetShiftWindow(ctx context.Context, staffMemberID string) (staff.ShiftWindow, error) {
	m, err := f.get(staffMemberID)
	return m.Shift, err
}

func (f *fakeRegistry) GetTenancyContext(ctx context.Context, staffMemberID string) (staff.TenancyContext, error) {
	m, err := f.get(staffMemberID)
	return staff.TenancyContext{OrganizationID: m.OrganizationID, CompanyID: m.CompanyID}, err
}

func (f *fakeRegistry) ListActiveStaff(ctx context.Context, companyID string) ([]staff.StaffMember, error) {
	var out []staff.StaffMember
	for _, m := range f.members {
		if m.CompanyID == companyID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRegistry) ListCompanyIDs(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, m := range f.members {
		if !seen[m.CompanyID] {
			seen[m.CompanyID] = true
			out = append(out, m.CompanyID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// fakeResolver treats Monday to Friday as working unless the date is listed
// as a holiday.
type fakeResolver struct {
	holidays   map[time.Time]bool
	unresolved bool
}

func (f *fakeResolver) Resolve(ctx context.Context, organizationID string, companyID string, date time.Time) (calendar.Resolution, error) {
	date = calendar.DateOnly(date)
	if f.unresolved {
		return calendar.Resolution{Date: date, DayType: calendar.DayTypeWeekend, Scope: calendar.ScopeNone}, calendar.ErrUnresolvedCalendar
	}
	if f.holidays[date] {
		return calendar.Resolution{Date: date, DayType: calendar.DayTypeHoliday, Scope: calendar.ScopeHoliday}, nil
	}
	if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return calendar.Resolution{Date: date, DayType: calendar.DayTypeWeekend, Scope: calendar.ScopeOrganizationDefault}, nil
	}
	return calendar.Resolution{Date: date, DayType: calendar.DayTypeWorking, Scope: calendar.ScopeOrganizationDefault}, nil
}

func (f *fakeResolver) IsWorkingDay(ctx context.Context, organizationID string, companyID string, date time.Time) (bool, error) {
	res, err := f.Resolve(ctx, organizationID, companyID, date)
	return res.IsWorkingDay(), err
}

type fakeLeaves struct {
	leaves  []leave.ApprovedLeave
	failFor map[string]error
}

func (f *fakeLeaves) ApprovedLeaveOn(ctx context.Context, staffMemberID string, date time.Time) (*leave.ApprovedLeave, error) {
	if err := f.failFor[staffMemberID]; err != nil {
		return nil, err
	}
	for i, l := range f.leaves {
		if l.StaffMemberID == staffMemberID && l.Covers(date) {
			return &f.leaves[i], nil
		}
	}
	return nil, nil
}

func (f *fakeLeaves) IsApprovedLeave(ctx context.Context, staffMemberID string, date time.Time) (bool, error) {
	l, err := f.ApprovedLeaveOn(ctx, staffMemberID, date)
	return l != nil, err
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[key] {
		return nil, worklog.ErrSweepAlreadyInProgress
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var errBoom = errors.New("boom")
