package worklog

import (
	"context"
	"time"
)

// ClockInParams carries one clock-in write.
type ClockInParams struct {
	ID             string // used only when a new row is inserted
	StaffMemberID  string
	LogDate        time.Time
	OrganizationID string
	CompanyID      string
	ClockIn        time.Time
	Location       Location
	Anomalies      []Anomaly
	ActorID        string

	// MarkerReuseFrom is the earliest log date whose reconciled marker may
	// be taken over.
	MarkerReuseFrom time.Time
}

// ClockOutParams carries the clock-out write. Metrics, status and anomalies
// are persisted in the same statement as the punch.
type ClockOutParams struct {
	EntryID     string
	ClockOut    time.Time
	Location    Location
	Status      Status
	Metrics     Metrics
	Anomalies   []Anomaly
	LeaveTypeID *string
	ActorID     string
	At          time.Time
}

// ReconcileParams finalizes an entry that has not been reconciled yet.
type ReconcileParams struct {
	EntryID     string
	Status      Status
	Metrics     Metrics
	Anomalies   []Anomaly
	LeaveTypeID *string
	ActorID     string
	At          time.Time
}

// CorrectionParams rewrites the punches of an entry together with freshly
// derived fields.
type CorrectionParams struct {
	EntryID     string
	CompanyID   string
	ClockIn     *time.Time
	ClockOut    *time.Time
	Status      Status
	Metrics     *Metrics // nil leaves derived fields empty on a still-open day
	Anomalies   []Anomaly
	LeaveTypeID *string
	Reason      string
	ActorID     string
	At          time.Time
}

// Repository defines data access for ledger entries. Every query excludes
// soft-deleted rows.
type Repository interface {
	// ClockIn inserts the day's entry, or fills clock_in on an existing
	// marker row that has none. Returns ErrAlreadyClockedIn when the live
	// row already carries a clock-in or is a reconciled marker dated before
	// MarkerReuseFrom.
	ClockIn(ctx context.Context, params ClockInParams) (WorkLogEntry, error)

	// CompleteClockOut writes clock_out and derived fields on an open entry.
	// Returns ErrAlreadyClockedOut when the entry is no longer open.
	CompleteClockOut(ctx context.Context, params ClockOutParams) (WorkLogEntry, error)

	// GetByStaffAndDate returns the live entry, or nil when there is none.
	GetByStaffAndDate(ctx context.Context, staffMemberID string, logDate time.Time) (*WorkLogEntry, error)

	// GetByID retrieves an entry with company isolation.
	GetByID(ctx context.Context, id string, companyID string) (WorkLogEntry, error)

	// GetByIDForUpdate is GetByID with a row lock; call inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (WorkLogEntry, error)

	// CreateMarker inserts a reconciled entry without punches. Reports false
	// when a live entry for the day already exists.
	CreateMarker(ctx context.Context, entry WorkLogEntry) (bool, error)

	// Reconcile finalizes an unreconciled open entry. Reports false when the
	// entry was reconciled or clocked out concurrently.
	Reconcile(ctx context.Context, params ReconcileParams) (bool, error)

	ApplyCorrection(ctx context.Context, params CorrectionParams) (WorkLogEntry, error)

	SoftDelete(ctx context.Context, id string, companyID string, actorID string, at time.Time) error

	List(ctx context.Context, filter EntryFilter) ([]WorkLogEntry, int64, error)

	// ListForPeriod returns every live entry of the company in [from, to],
	// optionally narrowed to one staff member.
	ListForPeriod(ctx context.Context, companyID string, staffMemberID *string, from, to time.Time) ([]WorkLogEntry, error)
}

// Transactor runs fn inside a storage transaction bound to the returned ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SweepLocker guards a sweep of one company against concurrent instances.
// Obtain returns ErrSweepAlreadyInProgress when another holder owns key.
type SweepLocker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}
