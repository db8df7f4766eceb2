package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
	"github.com/cmlabs-hris/worklog-ledger/internal/domain/leave"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveChecker struct {
	db *database.DB
}

func NewLeaveChecker(db *database.DB) leave.Checker {
	return &leaveChecker{db: db}
}

// ApprovedLeaveOn implements leave.Checker.
func (r *leaveChecker) ApprovedLeaveOn(ctx context.Context, staffMemberID string, date time.Time) (*leave.ApprovedLeave, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, staff_member_id, leave_type_id, start_date, end_date
		FROM leave_requests
		WHERE staff_member_id = $1
		  AND status = $2
		  AND $3 BETWEEN start_date AND end_date
		  AND deleted_at IS NULL
		ORDER BY start_date DESC
		LIMIT 1
	`

	var l leave.ApprovedLeave
	err := q.QueryRow(ctx, query, staffMemberID, leave.RequestStatusApproved, calendar.DateOnly(date)).Scan(
		&l.RequestID, &l.StaffMemberID, &l.LeaveTypeID, &l.StartDate, &l.EndDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check approved leave: %w", err)
	}

	return &l, nil
}

// IsApprovedLeave implements leave.Checker.
func (r *leaveChecker) IsApprovedLeave(ctx context.Context, staffMemberID string, date time.Time) (bool, error) {
	l, err := r.ApprovedLeaveOn(ctx, staffMemberID, date)
	if err != nil {
		return false, err
	}
	return l != nil, nil
}
