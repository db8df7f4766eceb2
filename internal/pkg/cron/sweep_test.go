package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweepOnlyService struct {
	worklog.Service
	requests []worklog.SweepRequest
	err      error
}

func (s *sweepOnlyService) Sweep(_ context.Context, req worklog.SweepRequest) (worklog.SweepResult, error) {
	s.requests = append(s.requests, req)
	return worklog.SweepResult{Companies: 2, Failed: 1}, s.err
}

func TestSweepJobSweepsEveryCompany(t *testing.T) {
	svc := &sweepOnlyService{}
	job := NewSweepJob(svc, time.Hour)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, svc.requests, 1)
	assert.Nil(t, svc.requests[0].CompanyID)
	assert.Nil(t, svc.requests[0].Date)
}

func TestSweepJobReturnsServiceError(t *testing.T) {
	svc := &sweepOnlyService{err: errors.New("db down")}
	job := NewSweepJob(svc, time.Hour)

	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestSweepJobRegisters(t *testing.T) {
	s := NewScheduler()
	NewSweepJob(&sweepOnlyService{}, 30*time.Minute).RegisterJobs(s)

	require.Len(t, s.jobs, 1)
	assert.Equal(t, sweepJobName, s.jobs[0].Name)
	assert.Equal(t, 30*time.Minute, s.jobs[0].Interval)
	assert.Equal(t, 30*time.Minute, s.jobs[0].Timeout)
}
