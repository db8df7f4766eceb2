package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/cmlabs-hris/worklog-ledger/internal/pkg/report"
	"github.com/spf13/cobra"
)

var (
	summaryCompany string
	summaryStaff   string
	summaryFrom    string
	summaryTo      string
	summaryXLSX    string
	summaryPDF     string
	summaryFormat  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-staff totals for a period",
	Long: `summary prints one row per active staff member of a company. Use --xlsx
or --pdf to write a file instead.`,
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryCompany, "company", "", "Company ID")
	summaryCmd.Flags().StringVar(&summaryStaff, "staff", "", "Restrict to one staff member")
	summaryCmd.Flags().StringVar(&summaryFrom, "from", "", "First day YYYY-MM-DD")
	summaryCmd.Flags().StringVar(&summaryTo, "to", "", "Last day YYYY-MM-DD")
	summaryCmd.Flags().StringVar(&summaryXLSX, "xlsx", "", "Write the summary to this xlsx file instead of stdout")
	summaryCmd.Flags().StringVar(&summaryPDF, "pdf", "", "Write the summary to this pdf file instead of stdout")
	summaryCmd.Flags().StringVar(&summaryFormat, "format", "md", "Output format: md, json")
	_ = summaryCmd.MarkFlagRequired("company")
	_ = summaryCmd.MarkFlagRequired("from")
	_ = summaryCmd.MarkFlagRequired("to")
}

func runSummary(cmd *cobra.Command, args []string) error {
	filter := worklog.SummaryFilter{
		CompanyID: summaryCompany,
		From:      summaryFrom,
		To:        summaryTo,
	}
	if summaryStaff != "" {
		filter.StaffMemberID = &summaryStaff
	}
	if err := filter.Validate(); err != nil {
		return err
	}

	ledger, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer ledger.Close()

	rows, err := ledger.WorkLogService.SummarizeByStaff(cmd.Context(), filter)
	if err != nil {
		return err
	}

	if summaryXLSX != "" {
		return writeSummaryFile(cmd.OutOrStdout(), summaryXLSX, report.WriteSummaryXLSX, filter, rows)
	}
	if summaryPDF != "" {
		return writeSummaryFile(cmd.OutOrStdout(), summaryPDF, report.WriteSummaryPDF, filter, rows)
	}

	switch summaryFormat {
	case "json":
		return printJSON(cmd.OutOrStdout(), rows)
	default: // md
		printSummaryTable(cmd.OutOrStdout(), filter.From, filter.To, rows)
	}
	return nil
}

type summaryWriter func(w io.Writer, from, to string, rows []worklog.StaffSummary) error

func writeSummaryFile(out io.Writer, path string, write summaryWriter, filter worklog.SummaryFilter, rows []worklog.StaffSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, filter.From, filter.To, rows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d rows to %s\n", len(rows), path)
	return nil
}

func printSummaryTable(w io.Writer, from, to string, rows []worklog.StaffSummary) {
	fmt.Fprintf(w, "Attendance %s to %s\n", from, to)
	fmt.Fprintln(w, "----------------------------------------------------------------------")
	fmt.Fprintf(w, "%-24s%8s%8s%8s%8s%8s%10s\n", "Staff", "Present", "Half", "Absent", "Leave", "Late", "Hours")
	for _, r := range rows {
		s := r.Summary
		fmt.Fprintf(w, "%-24s%8d%8d%8d%8d%8d%10s\n",
			truncate(r.StaffMemberName, 23), s.PresentDays, s.HalfDays, s.AbsentDays, s.OnLeaveDays, s.TotalLateMinutes, s.TotalHours.StringFixed(2))
	}
	fmt.Fprintln(w, "----------------------------------------------------------------------")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
