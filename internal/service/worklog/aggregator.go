package worklog

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/shopspring/decimal"
)

// Aggregate rolls entries up into period totals. Entries without derived
// fields are counted as unreconciled and contribute nothing else.
func Aggregate(entries []worklog.WorkLogEntry) worklog.Summary {
	s := worklog.Summary{TotalHours: decimal.Zero}

	for _, e := range entries {
		if !e.IsReconciled() {
			s.UnreconciledDays++
			continue
		}

		switch e.Status {
		case worklog.StatusPresent:
			s.PresentDays++
		case worklog.StatusAbsent:
			s.AbsentDays++
		case worklog.StatusHalfDay:
			s.HalfDays++
		case worklog.StatusOnLeave:
			s.OnLeaveDays++
		case worklog.StatusHoliday:
			s.Holidays++
		}

		s.TotalLateMinutes += e.Metrics.LateMinutes
		s.TotalOvertimeMinutes += e.Metrics.OvertimeMinutes
		s.TotalEarlyLeaveMinutes += e.Metrics.EarlyLeaveMinutes
		s.TotalHours = s.TotalHours.Add(e.Metrics.TotalHours)
	}

	s.TotalHours = s.TotalHours.Round(2)
	return s
}

// Summarize implements worklog.Service.
func (s *WorkLogServiceImpl) Summarize(ctx context.Context, filter worklog.SummaryFilter) (worklog.Summary, error) {
	if err := filter.Validate(); err != nil {
		return worklog.Summary{}, err
	}

	entries, err := s.repo.ListForPeriod(ctx, filter.CompanyID, filter.StaffMemberID, filter.FromDate, filter.ToDate)
	if err != nil {
		return worklog.Summary{}, fmt.Errorf("failed to list entries for period: %w", err)
	}

	summary := Aggregate(entries)
	summary.CompanyID = filter.CompanyID
	summary.StaffMemberID = filter.StaffMemberID
	summary.From = filter.From
	summary.To = filter.To
	return summary, nil
}

// SummarizeByStaff implements worklog.Service. Every active staff member of
// the company gets a row, including those with no entries.
func (s *WorkLogServiceImpl) SummarizeByStaff(ctx context.Context, filter worklog.SummaryFilter) ([]worklog.StaffSummary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	members, err := s.registry.ListActiveStaff(ctx, filter.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active staff: %w", err)
	}

	entries, err := s.repo.ListForPeriod(ctx, filter.CompanyID, filter.StaffMemberID, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for period: %w", err)
	}

	byStaff := make(map[string][]worklog.WorkLogEntry)
	for _, e := range entries {
		byStaff[e.StaffMemberID] = append(byStaff[e.StaffMemberID], e)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		if filter.StaffMemberID != nil && m.ID != *filter.StaffMemberID {
			continue
		}
		names[m.ID] = m.FullName
		if _, ok := byStaff[m.ID]; !ok {
			byStaff[m.ID] = nil
		}
	}

	result := make([]worklog.StaffSummary, 0, len(byStaff))
	for staffID, staffEntries := range byStaff {
		id := staffID
		summary := Aggregate(staffEntries)
		summary.CompanyID = filter.CompanyID
		summary.StaffMemberID = &id
		summary.From = filter.From
		summary.To = filter.To

		name, ok := names[staffID]
		if !ok && len(staffEntries) > 0 && staffEntries[0].StaffMemberName != nil {
			name = *staffEntries[0].StaffMemberName
		}

		result = append(result, worklog.StaffSummary{
			StaffMemberID:   staffID,
			StaffMemberName: name,
			Summary:         summary,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StaffMemberName != result[j].StaffMemberName {
			return result[i].StaffMemberName < result[j].StaffMemberName
		}
		return result[i].StaffMemberID < result[j].StaffMemberID
	})

	return result, nil
}
