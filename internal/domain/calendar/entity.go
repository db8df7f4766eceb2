package calendar

import "time"

type DayType string

const (
	DayTypeWorking DayType = "working"
	DayTypeWeekend DayType = "weekend"
	DayTypeHoliday DayType = "holiday"
)

// Scope names which config level produced a resolution.
type Scope string

const (
	ScopeCompanyWindowed      Scope = "company_windowed"
	ScopeOrganizationWindowed Scope = "organization_windowed"
	ScopeCompanyDefault       Scope = "company_default"
	ScopeOrganizationDefault  Scope = "organization_default"
	ScopeHoliday              Scope = "holiday"
	ScopeNone                 Scope = "none"
)

// WorkingDaysConfig is a weekly pattern for an organization, optionally
// narrowed to one company. A config without ValidFrom/ValidTo is the
// scope-wide default.
type WorkingDaysConfig struct {
	ID             string
	OrganizationID string
	CompanyID      *string
	Monday         bool
	Tuesday        bool
	Wednesday      bool
	Thursday       bool
	Friday         bool
	Saturday       bool
	Sunday         bool
	ValidFrom      *time.Time
	ValidTo        *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsWorking reports whether weekday is a working day in this pattern.
func (c WorkingDaysConfig) IsWorking(weekday time.Weekday) bool {
	switch weekday {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	case time.Sunday:
		return c.Sunday
	}
	return false
}

// IsWindowed reports whether the config carries a validity window.
func (c WorkingDaysConfig) IsWindowed() bool {
	return c.ValidFrom != nil || c.ValidTo != nil
}

// Covers reports whether date falls inside the validity window. Both bounds
// are inclusive; an open bound is unbounded.
func (c WorkingDaysConfig) Covers(date time.Time) bool {
	d := DateOnly(date)
	if c.ValidFrom != nil && d.Before(DateOnly(*c.ValidFrom)) {
		return false
	}
	if c.ValidTo != nil && d.After(DateOnly(*c.ValidTo)) {
		return false
	}
	return true
}

// IsCompanyScoped reports whether the config belongs to a single company.
func (c WorkingDaysConfig) IsCompanyScoped() bool {
	return c.CompanyID != nil
}

type Holiday struct {
	ID             string
	OrganizationID string
	CompanyID      *string
	Date           time.Time
	Name           string
}

// Resolution is the outcome of resolving one calendar date.
type Resolution struct {
	Date        time.Time
	DayType     DayType
	Scope       Scope
	ConfigID    *string
	HolidayName *string
}

// IsWorkingDay reports whether staff are expected to work on the date.
func (r Resolution) IsWorkingDay() bool {
	return r.DayType == DayTypeWorking
}

// DateOnly truncates t to its calendar date, expressed at UTC midnight.
// Log dates are civil dates; the wall-clock fields of t are kept as-is.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
