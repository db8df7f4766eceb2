package report

import (
	"fmt"
	"io"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/jung-kurt/gofpdf"
)

const PDFContentType = "application/pdf"

// pdfColumns are the timesheet columns in millimetres on landscape A4.
var pdfColumns = []struct {
	heading string
	width   float64
}{
	{"Staff Member", 70},
	{"Present", 20},
	{"Half Day", 20},
	{"Absent", 20},
	{"On Leave", 20},
	{"Holiday", 20},
	{"Late", 20},
	{"Early", 20},
	{"Overtime", 22},
	{"Hours", 25},
}

// WriteSummaryPDF renders the per-staff summary as a printable timesheet.
// Minute columns are totals in minutes.
func WriteSummaryPDF(w io.Writer, from, to string, rows []worklog.StaffSummary) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Attendance Summary")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s to %s", from, to))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range pdfColumns {
		pdf.CellFormat(c.width, 8, c.heading, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		s := row.Summary
		values := []string{
			tr(row.StaffMemberName),
			fmt.Sprint(s.PresentDays),
			fmt.Sprint(s.HalfDays),
			fmt.Sprint(s.AbsentDays),
			fmt.Sprint(s.OnLeaveDays),
			fmt.Sprint(s.Holidays),
			fmt.Sprint(s.TotalLateMinutes),
			fmt.Sprint(s.TotalEarlyLeaveMinutes),
			fmt.Sprint(s.TotalOvertimeMinutes),
			s.TotalHours.StringFixed(2),
		}
		for i, c := range pdfColumns {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(c.width, 7, values[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.Cell(0, 8, "No staff members in this period.")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
