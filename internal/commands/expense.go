package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/model"
)

func newExpenseCommand(dir func() string) *cobra.Command {
	expenseCmd := &cobra.Command{
		Use:   "expense",
		Short: "Expense operations",
	}
	expenseCmd.AddCommand(newExpenseSetCommand(dir), newExpenseRemoveCommand(dir))
	return expenseCmd
}

func parseExpenseID(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", raw)
	}
	return v, nil
}

func newExpenseSetCommand(dir func() string) *cobra.Command {
	var category, memo, unit string
	var shared bool

	cmd := &cobra.Command{
		Use:   "set <expense-id>",
		Short: "Reclassify an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseExpenseID(args[0])
			if err != nil {
				return err
			}

			var edit ledger.ExpenseEdit
			if cmd.Flags().Changed("category") {
				c := model.ExpenseCategory(strings.ToUpper(category))
				edit.Category = &c
			}
			if cmd.Flags().Changed("memo") {
				edit.Memo = &memo
			}
			switch {
			case shared && cmd.Flags().Changed("unit"):
				return fmt.Errorf("--unit and --shared are mutually exclusive")
			case shared:
				none := ""
				edit.UnitID = &none
			case cmd.Flags().Changed("unit"):
				edit.UnitID = &unit
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.Store.EditExpense(cmd.Context(), expenseID, edit)
			if err != nil {
				return err
			}
			owner := "shared"
			if !e.Shared() {
				owner = *e.UnitID
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expense #%d\t%s\t%d원\t%s\t%s\n", e.ExpenseID, e.Category, e.Amount, owner, e.Memo)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "UTILITIES, REPAIR, CLEANING, TAX, INSURANCE, MANAGEMENT or OTHER")
	cmd.Flags().StringVar(&memo, "memo", "", "free-text memo")
	cmd.Flags().StringVar(&unit, "unit", "", "unit the expense belongs to")
	cmd.Flags().BoolVar(&shared, "shared", false, "make the expense shared by the whole property")

	return cmd
}

func newExpenseRemoveCommand(dir func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := parseExpenseID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.DeleteExpense(cmd.Context(), expenseID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted expense #%d\n", expenseID)
			return nil
		},
	}
}
