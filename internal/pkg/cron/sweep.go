package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
)

const sweepJobName = "worklog_sweep"

// SweepJob runs the end-of-day ledger sweep for every company. Each run
// covers yesterday and today; the service decides per staff member whether
// their day has closed.
type SweepJob struct {
	workLogService worklog.Service
	interval       time.Duration
}

func NewSweepJob(workLogService worklog.Service, interval time.Duration) *SweepJob {
	return &SweepJob{
		workLogService: workLogService,
		interval:       interval,
	}
}

func (j *SweepJob) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     sweepJobName,
		Interval: j.interval,
		// a run must finish before the next tick
		Timeout: j.interval,
		Fn:      j.Run,
	})
}

func (j *SweepJob) Run(ctx context.Context) error {
	slog.Info("Cron: Starting worklog sweep")

	result, err := j.workLogService.Sweep(ctx, worklog.SweepRequest{})
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	slog.Info("Cron: Worklog sweep completed",
		"companies", result.Companies,
		"staff_visited", result.StaffVisited,
		"markers_created", result.MarkersCreated,
		"finalized", result.Finalized,
		"unchanged", result.Unchanged,
		"not_yet_closed", result.NotYetClosed,
		"unresolved", result.Unresolved,
		"failed", result.Failed,
		"locked_out", result.LockedOut,
	)
	if result.Failed > 0 {
		slog.Warn("Cron: Worklog sweep skipped staff members after errors", "failed", result.Failed)
	}

	return nil
}
