package report

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet = "Summary"
	ContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var summaryHeadings = []string{
	"Staff Member",
	"Present",
	"Half Day",
	"Absent",
	"On Leave",
	"Holiday",
	"Late (min)",
	"Early Leave (min)",
	"Overtime (min)",
	"Total Hours",
	"Unreconciled",
}

// WriteSummaryXLSX writes one row per staff summary to w.
func WriteSummaryXLSX(w io.Writer, from, to string, rows []worklog.StaffSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetCellValue(SummarySheet, "A1", fmt.Sprintf("Attendance summary %s to %s", from, to)); err != nil {
		return err
	}

	for i, h := range summaryHeadings {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		s := row.Summary
		hours, _ := s.TotalHours.Round(2).Float64()
		values := []interface{}{
			row.StaffMemberName,
			s.PresentDays,
			s.HalfDays,
			s.AbsentDays,
			s.OnLeaveDays,
			s.Holidays,
			s.TotalLateMinutes,
			s.TotalEarlyLeaveMinutes,
			s.TotalOvertimeMinutes,
			hours,
			s.UnreconciledDays,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SummarySheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.StaffMemberID, err)
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
