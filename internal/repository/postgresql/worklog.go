package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

type workLogRepository struct {
	db *database.DB
}

func NewWorkLogRepository(db *database.DB) worklog.Repository {
	return &workLogRepository{db: db}
}

const entryColumns = `
	w.id, w.staff_member_id, w.log_date, w.organization_id, w.company_id,
	w.clock_in, w.clock_out,
	w.clock_in_latitude, w.clock_in_longitude, w.clock_in_accuracy_m, w.clock_in_source_ip,
	w.clock_out_latitude, w.clock_out_longitude, w.clock_out_accuracy_m, w.clock_out_source_ip,
	w.status, w.late_minutes, w.early_leave_minutes, w.overtime_minutes, w.break_minutes, w.total_hours,
	w.anomalies, w.leave_type_id, w.reconciled_at, w.correction_reason,
	w.created_by, w.updated_by, w.created_at, w.updated_at, w.deleted_at, w.deleted_by`

// scanEntry reads entryColumns, optionally followed by the staff member name.
func scanEntry(row pgx.Row, withName bool) (worklog.WorkLogEntry, error) {
	var (
		e                             worklog.WorkLogEntry
		inIP, outIP                   *string
		late, early, overtime, breaks *int
		total                         decimal.NullDecimal
		anomalies                     []string
	)

	dest := []any{
		&e.ID, &e.StaffMemberID, &e.LogDate, &e.OrganizationID, &e.CompanyID,
		&e.ClockIn, &e.ClockOut,
		&e.ClockInLocation.Latitude, &e.ClockInLocation.Longitude, &e.ClockInLocation.AccuracyMeters, &inIP,
		&e.ClockOutLocation.Latitude, &e.ClockOutLocation.Longitude, &e.ClockOutLocation.AccuracyMeters, &outIP,
		&e.Status, &late, &early, &overtime, &breaks, &total,
		&anomalies, &e.LeaveTypeID, &e.ReconciledAt, &e.CorrectionReason,
		&e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &e.DeletedBy,
	}
	if withName {
		dest = append(dest, &e.StaffMemberName)
	}

	if err := row.Scan(dest...); err != nil {
		return worklog.WorkLogEntry{}, err
	}

	if inIP != nil {
		e.ClockInLocation.SourceIP = *inIP
	}
	if outIP != nil {
		e.ClockOutLocation.SourceIP = *outIP
	}
	if late != nil && early != nil && overtime != nil && breaks != nil && total.Valid {
		e.Metrics = &worklog.Metrics{
			LateMinutes:       *late,
			EarlyLeaveMinutes: *early,
			OvertimeMinutes:   *overtime,
			BreakMinutes:      *breaks,
			TotalHours:        total.Decimal,
		}
	}
	e.LogDate = time.Date(e.LogDate.Year(), e.LogDate.Month(), e.LogDate.Day(), 0, 0, 0, 0, time.UTC)
	for _, a := range anomalies {
		e.Anomalies = append(e.Anomalies, worklog.Anomaly(a))
	}

	return e, nil
}

func anomalyStrings(anomalies []worklog.Anomaly) []string {
	out := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, string(a))
	}
	return out
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ClockIn implements worklog.Repository. The partial unique index on
// (staff_member_id, log_date) serializes concurrent clock-ins; a marker row
// without a clock-in is taken over and reset to an unreconciled entry, unless
// it was reconciled for a day before MarkerReuseFrom.
func (r *workLogRepository) ClockIn(ctx context.Context, p worklog.ClockInParams) (worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO work_log_entries AS w (
			id, staff_member_id, log_date, organization_id, company_id,
			clock_in, clock_in_latitude, clock_in_longitude, clock_in_accuracy_m, clock_in_source_ip,
			status, anomalies, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'present', $11, $12
		)
		ON CONFLICT (staff_member_id, log_date) WHERE deleted_at IS NULL
		DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			company_id = EXCLUDED.company_id,
			clock_in = EXCLUDED.clock_in,
			clock_in_latitude = EXCLUDED.clock_in_latitude,
			clock_in_longitude = EXCLUDED.clock_in_longitude,
			clock_in_accuracy_m = EXCLUDED.clock_in_accuracy_m,
			clock_in_source_ip = EXCLUDED.clock_in_source_ip,
			status = 'present',
			late_minutes = NULL,
			early_leave_minutes = NULL,
			overtime_minutes = NULL,
			break_minutes = NULL,
			total_hours = NULL,
			anomalies = EXCLUDED.anomalies,
			leave_type_id = NULL,
			reconciled_at = NULL,
			updated_by = $12,
			updated_at = now()
		WHERE w.clock_in IS NULL
			AND (w.reconciled_at IS NULL OR w.log_date >= $13)
		RETURNING ` + entryColumns

	row := q.QueryRow(ctx, query,
		p.ID, p.StaffMemberID, p.LogDate, p.OrganizationID, p.CompanyID,
		p.ClockIn, p.Location.Latitude, p.Location.Longitude, p.Location.AccuracyMeters, nullableString(p.Location.SourceIP),
		anomalyStrings(p.Anomalies), p.ActorID, p.MarkerReuseFrom,
	)

	entry, err := scanEntry(row, false)
	if err != nil {
		// the conflicting row has a clock-in or is a closed marker, so DO UPDATE skipped it
		if errors.Is(err, pgx.ErrNoRows) {
			return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedIn
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedIn
		}
		return worklog.WorkLogEntry{}, fmt.Errorf("failed to insert clock-in: %w", err)
	}

	return entry, nil
}

// CompleteClockOut implements worklog.Repository.
func (r *workLogRepository) CompleteClockOut(ctx context.Context, p worklog.ClockOutParams) (worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_log_entries AS w SET
			clock_out = $2,
			clock_out_latitude = $3,
			clock_out_longitude = $4,
			clock_out_accuracy_m = $5,
			clock_out_source_ip = $6,
			status = $7,
			late_minutes = $8,
			early_leave_minutes = $9,
			overtime_minutes = $10,
			break_minutes = $11,
			total_hours = $12,
			anomalies = $13,
			leave_type_id = $14,
			reconciled_at = $15,
			updated_by = $16,
			updated_at = $15
		WHERE w.id = $1
		  AND w.deleted_at IS NULL
		  AND w.clock_in IS NOT NULL
		  AND w.clock_out IS NULL
		RETURNING ` + entryColumns

	row := q.QueryRow(ctx, query,
		p.EntryID,
		p.ClockOut, p.Location.Latitude, p.Location.Longitude, p.Location.AccuracyMeters, nullableString(p.Location.SourceIP),
		p.Status,
		p.Metrics.LateMinutes, p.Metrics.EarlyLeaveMinutes, p.Metrics.OvertimeMinutes, p.Metrics.BreakMinutes, p.Metrics.TotalHours,
		anomalyStrings(p.Anomalies), p.LeaveTypeID, p.At, p.ActorID,
	)

	entry, err := scanEntry(row, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return worklog.WorkLogEntry{}, worklog.ErrAlreadyClockedOut
		}
		return worklog.WorkLogEntry{}, fmt.Errorf("failed to update clock-out: %w", err)
	}

	return entry, nil
}

// GetByStaffAndDate implements worklog.Repository.
func (r *workLogRepository) GetByStaffAndDate(ctx context.Context, staffMemberID string, logDate time.Time) (*worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM work_log_entries w
		WHERE w.staff_member_id = $1
		  AND w.log_date = $2
		  AND w.deleted_at IS NULL
		LIMIT 1
	`

	entry, err := scanEntry(q.QueryRow(ctx, query, staffMemberID, logDate), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No entry for the day yet
		}
		return nil, fmt.Errorf("failed to get entry by staff member and date: %w", err)
	}

	return &entry, nil
}

func (r *workLogRepository) getByID(ctx context.Context, id string, companyID string, forUpdate bool) (worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `, s.full_name
		FROM work_log_entries w
		LEFT JOIN staff_members s ON s.id = w.staff_member_id
		WHERE w.id = $1 AND w.company_id = $2 AND w.deleted_at IS NULL
	`
	if forUpdate {
		query += " FOR UPDATE OF w"
	}

	entry, err := scanEntry(q.QueryRow(ctx, query, id, companyID), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return worklog.WorkLogEntry{}, worklog.ErrEntryNotFound
		}
		return worklog.WorkLogEntry{}, fmt.Errorf("failed to get entry by ID: %w", err)
	}

	return entry, nil
}

// GetByID implements worklog.Repository.
func (r *workLogRepository) GetByID(ctx context.Context, id string, companyID string) (worklog.WorkLogEntry, error) {
	return r.getByID(ctx, id, companyID, false)
}

// GetByIDForUpdate implements worklog.Repository.
func (r *workLogRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (worklog.WorkLogEntry, error) {
	return r.getByID(ctx, id, companyID, true)
}

// CreateMarker implements worklog.Repository.
func (r *workLogRepository) CreateMarker(ctx context.Context, e worklog.WorkLogEntry) (bool, error) {
	q := GetQuerier(ctx, r.db)

	if e.Metrics == nil {
		return false, fmt.Errorf("marker entry requires metrics")
	}

	query := `
		INSERT INTO work_log_entries (
			id, staff_member_id, log_date, organization_id, company_id,
			status, late_minutes, early_leave_minutes, overtime_minutes, break_minutes, total_hours,
			anomalies, leave_type_id, reconciled_at, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		ON CONFLICT (staff_member_id, log_date) WHERE deleted_at IS NULL DO NOTHING
	`

	tag, err := q.Exec(ctx, query,
		e.ID, e.StaffMemberID, e.LogDate, e.OrganizationID, e.CompanyID,
		e.Status, e.Metrics.LateMinutes, e.Metrics.EarlyLeaveMinutes, e.Metrics.OvertimeMinutes, e.Metrics.BreakMinutes, e.Metrics.TotalHours,
		anomalyStrings(e.Anomalies), e.LeaveTypeID, e.ReconciledAt, e.CreatedBy,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert marker entry: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Reconcile implements worklog.Repository.
func (r *workLogRepository) Reconcile(ctx context.Context, p worklog.ReconcileParams) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_log_entries SET
			status = $2,
			late_minutes = $3,
			early_leave_minutes = $4,
			overtime_minutes = $5,
			break_minutes = $6,
			total_hours = $7,
			anomalies = $8,
			leave_type_id = $9,
			reconciled_at = $10,
			updated_by = $11,
			updated_at = $10
		WHERE id = $1
		  AND deleted_at IS NULL
		  AND reconciled_at IS NULL
		  AND clock_out IS NULL
	`

	tag, err := q.Exec(ctx, query,
		p.EntryID, p.Status,
		p.Metrics.LateMinutes, p.Metrics.EarlyLeaveMinutes, p.Metrics.OvertimeMinutes, p.Metrics.BreakMinutes, p.Metrics.TotalHours,
		anomalyStrings(p.Anomalies), p.LeaveTypeID, p.At, p.ActorID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to reconcile entry: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ApplyCorrection implements worklog.Repository.
func (r *workLogRepository) ApplyCorrection(ctx context.Context, p worklog.CorrectionParams) (worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_log_entries AS w SET
			clock_in = $3,
			clock_out = $4,
			status = $5,
			late_minutes = $6,
			early_leave_minutes = $7,
			overtime_minutes = $8,
			break_minutes = $9,
			total_hours = $10,
			anomalies = $11,
			leave_type_id = $12,
			correction_reason = $13,
			reconciled_at = $16,
			updated_by = $15,
			updated_at = $14
		WHERE w.id = $1 AND w.company_id = $2 AND w.deleted_at IS NULL
		RETURNING ` + entryColumns

	var (
		late, early, overtime, breakMinutes *int
		totalHours                          *decimal.Decimal
		reconciledAt                        *time.Time
	)
	if m := p.Metrics; m != nil {
		late, early, overtime, breakMinutes = &m.LateMinutes, &m.EarlyLeaveMinutes, &m.OvertimeMinutes, &m.BreakMinutes
		totalHours = &m.TotalHours
		reconciledAt = &p.At
	}

	row := q.QueryRow(ctx, query,
		p.EntryID, p.CompanyID,
		p.ClockIn, p.ClockOut, p.Status,
		late, early, overtime, breakMinutes, totalHours,
		anomalyStrings(p.Anomalies), p.LeaveTypeID, p.Reason, p.At, p.ActorID, reconciledAt,
	)

	entry, err := scanEntry(row, false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return worklog.WorkLogEntry{}, worklog.ErrEntryNotFound
		}
		return worklog.WorkLogEntry{}, fmt.Errorf("failed to apply correction: %w", err)
	}

	return entry, nil
}

// SoftDelete implements worklog.Repository.
func (r *workLogRepository) SoftDelete(ctx context.Context, id string, companyID string, actorID string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_log_entries
		SET deleted_at = $3, deleted_by = $4, updated_at = $3
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
	`

	commandTag, err := q.Exec(ctx, query, id, companyID, at, actorID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return worklog.ErrEntryNotFound
	}

	return nil
}

// List implements worklog.Repository.
func (r *workLogRepository) List(ctx context.Context, filter worklog.EntryFilter) ([]worklog.WorkLogEntry, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "w.company_id = $1 AND w.deleted_at IS NULL"
	args := []interface{}{filter.CompanyID}
	argIdx := 2

	if filter.StaffMemberID != nil && *filter.StaffMemberID != "" {
		baseWhere += fmt.Sprintf(" AND w.staff_member_id = $%d", argIdx)
		args = append(args, *filter.StaffMemberID)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND w.log_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND w.log_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND w.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.Anomalous {
		baseWhere += " AND cardinality(w.anomalies) > 0"
	}

	countQuery := "SELECT COUNT(*) FROM work_log_entries w WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	// Build ORDER BY
	orderByField := "w.log_date"
	switch filter.SortBy {
	case "clock_in":
		orderByField = "w.clock_in"
	case "clock_out":
		orderByField = "w.clock_out"
	case "status":
		orderByField = "w.status"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s, s.full_name
		FROM work_log_entries w
		LEFT JOIN staff_members s ON s.id = w.staff_member_id
		WHERE %s
		ORDER BY %s %s NULLS LAST, w.id
		LIMIT $%d OFFSET $%d
	`, entryColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (filter.Page - 1) * limit
	args = append(args, limit, offset)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []worklog.WorkLogEntry
	for rows.Next() {
		e, err := scanEntry(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, total, nil
}

// ListForPeriod implements worklog.Repository.
func (r *workLogRepository) ListForPeriod(ctx context.Context, companyID string, staffMemberID *string, from, to time.Time) ([]worklog.WorkLogEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `, s.full_name
		FROM work_log_entries w
		LEFT JOIN staff_members s ON s.id = w.staff_member_id
		WHERE w.company_id = $1
		  AND w.log_date BETWEEN $2 AND $3
		  AND w.deleted_at IS NULL
		  AND ($4::uuid IS NULL OR w.staff_member_id = $4::uuid)
		ORDER BY w.staff_member_id, w.log_date
	`

	rows, err := q.Query(ctx, query, companyID, from, to, staffMemberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for period: %w", err)
	}
	defer rows.Close()

	var entries []worklog.WorkLogEntry
	for rows.Next() {
		e, err := scanEntry(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}

	return entries, nil
}
