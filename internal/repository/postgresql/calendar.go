package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type calendarRepository struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.Repository {
	return &calendarRepository{db: db}
}

// ListWorkingDaysConfigs implements calendar.Repository.
func (r *calendarRepository) ListWorkingDaysConfigs(ctx context.Context, organizationID string, companyID string) ([]calendar.WorkingDaysConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, company_id,
			   monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			   valid_from, valid_to, created_at, updated_at
		FROM working_days_configs
		WHERE organization_id = $1
		  AND (company_id IS NULL OR company_id = NULLIF($2, '')::uuid)
		  AND deleted_at IS NULL
		ORDER BY valid_from DESC NULLS LAST, created_at DESC
	`

	rows, err := q.Query(ctx, query, organizationID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query working days configs: %w", err)
	}
	defer rows.Close()

	var configs []calendar.WorkingDaysConfig
	for rows.Next() {
		var c calendar.WorkingDaysConfig
		if err := rows.Scan(
			&c.ID, &c.OrganizationID, &c.CompanyID,
			&c.Monday, &c.Tuesday, &c.Wednesday, &c.Thursday, &c.Friday, &c.Saturday, &c.Sunday,
			&c.ValidFrom, &c.ValidTo, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan working days config: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate working days configs: %w", err)
	}

	return configs, nil
}

// FindHoliday implements calendar.Repository.
func (r *calendarRepository) FindHoliday(ctx context.Context, organizationID string, companyID string, date time.Time) (*calendar.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, company_id, holiday_date, name
		FROM holidays
		WHERE organization_id = $1
		  AND (company_id IS NULL OR company_id = NULLIF($2, '')::uuid)
		  AND holiday_date = $3
		  AND deleted_at IS NULL
		ORDER BY company_id NULLS LAST
		LIMIT 1
	`

	var h calendar.Holiday
	err := q.QueryRow(ctx, query, organizationID, companyID, calendar.DateOnly(date)).Scan(
		&h.ID, &h.OrganizationID, &h.CompanyID, &h.Date, &h.Name,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find holiday: %w", err)
	}

	return &h, nil
}
