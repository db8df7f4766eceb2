package worklog

import (
	"context"
	"time"
)

// Service defines the ledger operations exposed to handlers, jobs and the CLI.
type Service interface {
	// ClockIn records the first punch of the day for a staff member
	ClockIn(ctx context.Context, req PunchRequest) (EntryResponse, error)

	// ClockOut closes the open entry and derives its time facts
	ClockOut(ctx context.Context, req PunchRequest) (EntryResponse, error)

	// Status returns today's entry or a not_clocked_in placeholder
	Status(ctx context.Context, staffMemberID string) (EntryResponse, error)

	// List retrieves entries with filters and pagination
	List(ctx context.Context, filter EntryFilter) (ListEntriesResponse, error)

	// Get retrieves a single entry by ID
	Get(ctx context.Context, id string, companyID string) (EntryResponse, error)

	// Correct replaces raw punches and re-derives every derived field
	Correct(ctx context.Context, req CorrectionRequest) (EntryResponse, error)

	// Delete soft deletes an entry
	Delete(ctx context.Context, id string, companyID string, actorID string) error

	Summarize(ctx context.Context, filter SummaryFilter) (Summary, error)
	SummarizeByStaff(ctx context.Context, filter SummaryFilter) ([]StaffSummary, error)

	// Sweep reconciles closed days. Safe to re-run.
	Sweep(ctx context.Context, req SweepRequest) (SweepResult, error)

	// SweepCompany reconciles one company. logDate nil means yesterday and
	// today in each staff member's timezone.
	SweepCompany(ctx context.Context, companyID string, logDate *time.Time, actorID string) (SweepResult, error)
}
