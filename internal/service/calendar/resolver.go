package calendar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/calendar"
)

type ResolverImpl struct {
	calendar.Repository
}

func NewResolver(repo calendar.Repository) calendar.Resolver {
	return &ResolverImpl{Repository: repo}
}

// Resolve implements calendar.Resolver.
func (r *ResolverImpl) Resolve(ctx context.Context, organizationID string, companyID string, date time.Time) (calendar.Resolution, error) {
	if organizationID == "" {
		return calendar.Resolution{}, calendar.ErrInvalidScope
	}
	date = calendar.DateOnly(date)

	holiday, err := r.Repository.FindHoliday(ctx, organizationID, companyID, date)
	if err != nil {
		return calendar.Resolution{}, fmt.Errorf("failed to look up holiday: %w", err)
	}
	if holiday != nil {
		name := holiday.Name
		return calendar.Resolution{
			Date:        date,
			DayType:     calendar.DayTypeHoliday,
			Scope:       calendar.ScopeHoliday,
			HolidayName: &name,
		}, nil
	}

	configs, err := r.Repository.ListWorkingDaysConfigs(ctx, organizationID, companyID)
	if err != nil {
		return calendar.Resolution{}, fmt.Errorf("failed to list working days configs: %w", err)
	}

	cfg, scope, ok := SelectConfig(configs, companyID, date)
	if !ok {
		return calendar.Resolution{
			Date:    date,
			DayType: calendar.DayTypeWeekend,
			Scope:   calendar.ScopeNone,
		}, calendar.ErrUnresolvedCalendar
	}

	dayType := calendar.DayTypeWeekend
	if cfg.IsWorking(date.Weekday()) {
		dayType = calendar.DayTypeWorking
	}
	id := cfg.ID
	return calendar.Resolution{
		Date:     date,
		DayType:  dayType,
		Scope:    scope,
		ConfigID: &id,
	}, nil
}

// IsWorkingDay implements calendar.Resolver.
func (r *ResolverImpl) IsWorkingDay(ctx context.Context, organizationID string, companyID string, date time.Time) (bool, error) {
	res, err := r.Resolve(ctx, organizationID, companyID, date)
	if err != nil {
		return false, err
	}
	return res.IsWorkingDay(), nil
}

// SelectConfig picks the config that governs date: company windowed, then
// organization windowed, then company default, then organization default.
// Overlapping windows at one level resolve to the latest ValidFrom.
func SelectConfig(configs []calendar.WorkingDaysConfig, companyID string, date time.Time) (calendar.WorkingDaysConfig, calendar.Scope, bool) {
	levels := []struct {
		scope    calendar.Scope
		company  bool
		windowed bool
	}{
		{calendar.ScopeCompanyWindowed, true, true},
		{calendar.ScopeOrganizationWindowed, false, true},
		{calendar.ScopeCompanyDefault, true, false},
		{calendar.ScopeOrganizationDefault, false, false},
	}

	for _, level := range levels {
		var candidates []calendar.WorkingDaysConfig
		for _, c := range configs {
			if c.IsCompanyScoped() != level.company || c.IsWindowed() != level.windowed {
				continue
			}
			if level.company && (companyID == "" || *c.CompanyID != companyID) {
				continue
			}
			if level.windowed && !c.Covers(date) {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return validFrom(candidates[i]).After(validFrom(candidates[j]))
		})
		return candidates[0], level.scope, true
	}

	return calendar.WorkingDaysConfig{}, calendar.ScopeNone, false
}

func validFrom(c calendar.WorkingDaysConfig) time.Time {
	if c.ValidFrom == nil {
		return time.Time{}
	}
	return *c.ValidFrom
}
