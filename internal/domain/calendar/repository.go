package calendar

import (
	"context"
	"time"
)

// Repository reads calendar configuration. The ledger never writes it.
type Repository interface {
	// ListWorkingDaysConfigs returns every live config for the organization
	// and, when companyID is not empty, for that company.
	ListWorkingDaysConfigs(ctx context.Context, organizationID string, companyID string) ([]WorkingDaysConfig, error)

	// FindHoliday returns the holiday on date, preferring a company-scoped
	// holiday over an organization-wide one. Returns nil when there is none.
	FindHoliday(ctx context.Context, organizationID string, companyID string, date time.Time) (*Holiday, error)
}
