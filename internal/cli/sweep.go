package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cmlabs-hris/worklog-ledger/internal/domain/worklog"
	"github.com/spf13/cobra"
)

var (
	sweepCompany string
	sweepDate    string
	sweepJSON    bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reconcile closed days",
	Long: `sweep finalizes open entries and writes absent, on-leave and holiday markers
for every staff member whose day has closed. Without --date it covers yesterday
and today. Without --company it covers every company. Safe to re-run.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringVar(&sweepCompany, "company", "", "Company ID (default: all companies)")
	sweepCmd.Flags().StringVar(&sweepDate, "date", "", "Log date YYYY-MM-DD (default: yesterday and today)")
	sweepCmd.Flags().BoolVar(&sweepJSON, "json", false, "Print the result as JSON")
}

func runSweep(cmd *cobra.Command, args []string) error {
	req := worklog.SweepRequest{ActorID: "cli:ledgerctl"}
	if sweepCompany != "" {
		req.CompanyID = &sweepCompany
	}
	if sweepDate != "" {
		req.Date = &sweepDate
	}
	// reject bad flags before connecting
	if err := req.Validate(); err != nil {
		return err
	}

	ledger, err := openLedger(cmd.Context())
	if err != nil {
		return err
	}
	defer ledger.Close()

	result, err := ledger.WorkLogService.Sweep(cmd.Context(), req)
	if err != nil {
		return err
	}

	if sweepJSON {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printSweepResult(cmd.OutOrStdout(), result)
	return nil
}

func printSweepResult(w io.Writer, r worklog.SweepResult) {
	rows := []struct {
		label string
		value int
	}{
		{"Companies", r.Companies},
		{"Staff visited", r.StaffVisited},
		{"Markers created", r.MarkersCreated},
		{"Finalized", r.Finalized},
		{"Unchanged", r.Unchanged},
		{"Not yet closed", r.NotYetClosed},
		{"Unresolved", r.Unresolved},
		{"Failed", r.Failed},
		{"Locked out", r.LockedOut},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-18s%d\n", row.label, row.value)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
