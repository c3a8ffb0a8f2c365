package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chatledger/internal/core"
	"chatledger/internal/export"
	"chatledger/internal/ledger"
)

// monthLister is implemented by stores that can filter a ledger by month.
type monthLister interface {
	ListMonth(ctx context.Context, kind core.Kind, month ledger.Month, mode ledger.MatchMode) ([]core.Transaction, error)
}

type exportFlags struct {
	kind      string
	year      int
	month     int
	mode      string
	output    string
	semicolon bool
	bom       bool
}

func newExportCmd() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions as CSV",
		Long:  `Export writes both ledgers (or one, with --kind) as CSV, oldest first. With --month only that month is exported.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := exportKinds(f.kind)
			if err != nil {
				return err
			}
			mode, err := ledger.ParseMatchMode(f.mode)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var txs []core.Transaction
			if f.month == 0 {
				txs, err = allTransactions(cmd.Context(), a, kinds)
			} else {
				var month ledger.Month
				if month, err = resolveMonth(f.year, f.month); err != nil {
					return err
				}
				txs, err = monthTransactions(cmd.Context(), a, kinds, month, mode)
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if f.output != "" && f.output != "-" {
				file, err := os.Create(f.output)
				if err != nil {
					return fmt.Errorf("create %s: %w", f.output, err)
				}
				defer file.Close()
				w = file
			}

			opts := export.Options{BOM: f.bom}
			if f.semicolon {
				opts.Comma = ';'
			}
			if err := export.WriteCSV(w, txs, opts); err != nil {
				return err
			}
			if f.output != "" && f.output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d transactions to %s\n", len(txs), f.output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "all", "Ledger to export: expense, income or all")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Year of --month (default: current year)")
	cmd.Flags().IntVarP(&f.month, "month", "m", 0, "Only export this month (1-12)")
	cmd.Flags().StringVar(&f.mode, "mode", ledger.MatchCalendarMonth.String(), "Month matching: calendar or month-of-year")
	cmd.Flags().StringVarP(&f.output, "output", "o", "-", "Output file, - for stdout")
	cmd.Flags().BoolVar(&f.semicolon, "semicolon", false, "Separate fields with ';'")
	cmd.Flags().BoolVar(&f.bom, "bom", false, "Prefix a UTF-8 byte order mark")
	return cmd
}

func exportKinds(s string) ([]core.Kind, error) {
	if s == "" || s == "all" {
		return []core.Kind{core.KindExpense, core.KindIncome}, nil
	}
	k, err := core.ParseKind(s)
	if err != nil {
		return nil, fmt.Errorf("kind %q: %w", s, err)
	}
	return []core.Kind{k}, nil
}

func allTransactions(ctx context.Context, a *app, kinds []core.Kind) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, k := range kinds {
		txs, err := a.ctrl.Transactions(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", k, err)
		}
		out = append(out, txs...)
	}
	return out, nil
}

func monthTransactions(ctx context.Context, a *app, kinds []core.Kind, month ledger.Month, mode ledger.MatchMode) ([]core.Transaction, error) {
	lister, ok := a.backend.Store.(monthLister)
	var out []core.Transaction
	for _, k := range kinds {
		var (
			txs []core.Transaction
			err error
		)
		if ok {
			txs, err = lister.ListMonth(ctx, k, month, mode)
		} else {
			txs, err = a.ctrl.Transactions(ctx, k)
			txs = ledger.Filter(txs, month, mode)
		}
		if err != nil {
			return nil, fmt.Errorf("list %s for %s: %w", k, month, err)
		}
		out = append(out, txs...)
	}
	return out, nil
}
