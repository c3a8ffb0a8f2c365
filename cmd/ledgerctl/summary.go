package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chatledger/internal/core"
	"chatledger/internal/ledger"
)

type summaryFlags struct {
	year   int
	month  int
	mode   string
	asJSON bool
}

type categoryJSON struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type summaryJSON struct {
	Month              string         `json:"month"`
	Label              string         `json:"label"`
	Mode               string         `json:"mode"`
	TotalIncome        float64        `json:"total_income"`
	TotalExpense       float64        `json:"total_expense"`
	Balance            float64        `json:"balance"`
	ExpensesByCategory []categoryJSON `json:"expenses_by_category"`
	IncomeBySource     []categoryJSON `json:"income_by_source"`
}

func newSummaryCmd() *cobra.Command {
	var f summaryFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income, expenses, balance and breakdowns for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ledger.ParseMatchMode(f.mode)
			if err != nil {
				return err
			}
			month, err := resolveMonth(f.year, f.month)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.ctrl.SummaryFor(cmd.Context(), month, mode)
			if err != nil {
				return fmt.Errorf("summarize %s: %w", month, err)
			}
			if f.asJSON {
				return writeSummaryJSON(cmd.OutOrStdout(), s)
			}
			return writeSummary(cmd.OutOrStdout(), s)
		},
	}
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Year (default: current year)")
	cmd.Flags().IntVarP(&f.month, "month", "m", 0, "Month 1-12 (default: current month)")
	cmd.Flags().StringVar(&f.mode, "mode", ledger.MatchCalendarMonth.String(), "Month matching: calendar or month-of-year")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func writeSummary(w io.Writer, s ledger.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t(%s)\n", s.Month.Label(), s.Mode)
	fmt.Fprintf(tw, "Income\t%s\n", core.FormatAmount(s.TotalIncome))
	fmt.Fprintf(tw, "Expenses\t%s\n", core.FormatAmount(s.TotalExpense))
	fmt.Fprintf(tw, "Balance\t%s\n", core.FormatAmount(s.Balance))

	writeBreakdown(tw, "Expenses by category", s.ExpensesByCategory)
	writeBreakdown(tw, "Income by source", s.IncomeBySource)
	return tw.Flush()
}

func writeBreakdown(w io.Writer, title string, totals ledger.CategoryTotals) {
	fmt.Fprintf(w, "\n%s\n", title)
	if totals.Empty() {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, e := range totals.Entries() {
		fmt.Fprintf(w, "  %s\t%s\n", e.Name, core.FormatAmount(e.Amount))
	}
}

func writeSummaryJSON(w io.Writer, s ledger.Summary) error {
	out := summaryJSON{
		Month:              s.Month.String(),
		Label:              s.Month.Label(),
		Mode:               s.Mode.String(),
		TotalIncome:        s.TotalIncome,
		TotalExpense:       s.TotalExpense,
		Balance:            s.Balance,
		ExpensesByCategory: toCategoryJSON(s.ExpensesByCategory),
		IncomeBySource:     toCategoryJSON(s.IncomeBySource),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func toCategoryJSON(totals ledger.CategoryTotals) []categoryJSON {
	out := make([]categoryJSON, 0, totals.Len())
	for _, e := range totals.Entries() {
		out = append(out, categoryJSON{Name: e.Name, Amount: e.Amount})
	}
	return out
}
