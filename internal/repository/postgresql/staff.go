package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/staff"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type staffRegistry struct {
	db *database.DB
}

// NewStaffRegistry reads the staff registry tables.
func NewStaffRegistry(db *database.DB) staff.Registry {
	return &staffRegistry{db: db}
}

// TIME columns are selected as minutes after midnight.
const staffColumns = `
	id, organization_id, company_id, full_name, employment_status, timezone,
	(EXTRACT(HOUR FROM shift_start) * 60 + EXTRACT(MINUTE FROM shift_start))::int,
	(EXTRACT(HOUR FROM shift_end) * 60 + EXTRACT(MINUTE FROM shift_end))::int,
	(EXTRACT(HOUR FROM break_start) * 60 + EXTRACT(MINUTE FROM break_start))::int,
	(EXTRACT(HOUR FROM break_end) * 60 + EXTRACT(MINUTE FROM break_end))::int`

func scanStaffMember(row pgx.Row) (staff.StaffMember, error) {
	var (
		m        staff.StaffMember
		timezone string
	)
	if err := row.Scan(
		&m.ID, &m.OrganizationID, &m.CompanyID, &m.FullName, &m.EmploymentStatus, &timezone,
		&m.Shift.StartMinute, &m.Shift.EndMinute, &m.Shift.BreakStartMinute, &m.Shift.BreakEndMinute,
	); err != nil {
		return staff.StaffMember{}, err
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return staff.StaffMember{}, fmt.Errorf("%w: unknown timezone %q for staff member %s", staff.ErrInvalidShiftWindow, timezone, m.ID)
	}
	m.Shift.Location = loc

	if m.Shift.StartMinute == m.Shift.EndMinute {
		return staff.StaffMember{}, fmt.Errorf("%w: shift of staff member %s has zero length", staff.ErrInvalidShiftWindow, m.ID)
	}

	return m, nil
}

func (r *staffRegistry) get(ctx context.Context, staffMemberID string) (staff.StaffMember, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + staffColumns + ` FROM staff_members WHERE id = $1 AND deleted_at IS NULL`

	m, err := scanStaffMember(q.QueryRow(ctx, query, staffMemberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.StaffMember{}, staff.ErrStaffMemberNotFound
		}
		return staff.StaffMember{}, fmt.Errorf("failed to get staff member: %w", err)
	}

	return m, nil
}

// GetShiftWindow implements staff.Registry.
func (r *staffRegistry) GetShiftWindow(ctx context.Context, staffMemberID string) (staff.ShiftWindow, error) {
	m, err := r.get(ctx, staffMemberID)
	if err != nil {
		return staff.ShiftWindow{}, err
	}
	return m.Shift, nil
}

// GetTenancyContext implements staff.Registry.
func (r *staffRegistry) GetTenancyContext(ctx context.Context, staffMemberID string) (staff.TenancyContext, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT organization_id, company_id FROM staff_members WHERE id = $1 AND deleted_at IS NULL`

	var t staff.TenancyContext
	if err := q.QueryRow(ctx, query, staffMemberID).Scan(&t.OrganizationID, &t.CompanyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.TenancyContext{}, staff.ErrStaffMemberNotFound
		}
		return staff.TenancyContext{}, fmt.Errorf("failed to get tenancy context: %w", err)
	}

	return t, nil
}

// ListActiveStaff implements staff.Registry.
func (r *staffRegistry) ListActiveStaff(ctx context.Context, companyID string) ([]staff.StaffMember, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + staffColumns + `
		FROM staff_members
		WHERE company_id = $1
		  AND employment_status = 'active'
		  AND deleted_at IS NULL
		ORDER BY full_name, id
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active staff: %w", err)
	}
	defer rows.Close()

	var members []staff.StaffMember
	for rows.Next() {
		m, err := scanStaffMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff members: %w", err)
	}

	return members, nil
}

// ListCompanyIDs implements staff.Registry.
func (r *staffRegistry) ListCompanyIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT company_id::text
		FROM staff_members
		WHERE employment_status = 'active' AND deleted_at IS NULL
		ORDER BY 1
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan company id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
