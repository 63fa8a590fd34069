package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/report"
)

func newReportCommand(dir func() string) *cobra.Command {
	var exportDir string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report [YYYY-MM]",
		Short: "Show the rent and expense position of a month",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			month := id.CurrentMonth(time.Now().In(a.Location))
			if len(args) > 0 {
				month = args[0]
			}
			if _, _, err := id.ParseMonth(month); err != nil {
				return err
			}

			sum, err := a.Reports.MonthlySummary(cmd.Context(), month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(sum); err != nil {
					return fmt.Errorf("encoding summary: %w", err)
				}
			} else {
				stats, err := a.Reports.UnitStats(cmd.Context())
				if err != nil {
					return err
				}
				printSummary(out, sum, stats)
			}

			if exportDir != "" {
				paths, err := a.Reports.ExportMonth(cmd.Context(), exportDir, month, a.Location)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", p)
				}
				if err := commitProject(cmd, a, "export: "+month); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportDir, "export-dir", "", "also write payments and expenses CSV files to this directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func printSummary(w io.Writer, sum *report.Summary, stats []report.UnitStat) {
	fmt.Fprintf(w, "Month %s\n", sum.Month)
	for _, s := range stats {
		if s.Count > 0 {
			fmt.Fprintf(w, "  %s %d", s.Label, s.Count)
		}
	}
	fmt.Fprintln(w)

	for _, l := range sum.Units {
		status := "목표 없음"
		if l.TargetKnown {
			status = fmt.Sprintf("%d / %d원 %s", l.Paid, l.Target, l.Status.Label())
		}
		fmt.Fprintf(w, "%-10s %s\n", l.UnitID, status)
	}

	rate := sum.CollectionRate.Mul(decimal.NewFromInt(100)).StringFixed(1)
	fmt.Fprintf(w, "Collected %d원 of %d원 (%s%%)\n", sum.Collected, sum.RentTarget, rate)
	fmt.Fprintf(w, "Pending   %d payments, %d원\n", sum.PendingCount, sum.PendingAmount)
	fmt.Fprintf(w, "Expenses  %d원 in %d entries\n", sum.Expenses, sum.ExpenseCount)
	fmt.Fprintf(w, "Net       %d원\n", sum.Net)
}
