package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chatledger/internal/core"
)

func newAddCmd() *cobra.Command {
	var income bool
	cmd := &cobra.Command{
		Use:   "add <amount> <category> [description...]",
		Short: "Record an expense (or income with --income) dated now",
		Example: `  ledgerctl add 12.50 Food lunch with team
  ledgerctl add 2500 Salary --income`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[0], err)
			}
			category := args[1]
			description := strings.Join(args[2:], " ")
			if description == "" {
				description = category
			}

			a, err := openApp(cmd.Context(), cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.ctrl.Record(cmd.Context(), description, amount, category, income)
			if err != nil {
				return fmt.Errorf("record transaction: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s %s (%s) id=%s\n",
				t.Kind(), core.FormatAmount(t.Amount), t.Description, t.Category, t.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&income, "income", false, "Record into the income ledger")
	return cmd
}
