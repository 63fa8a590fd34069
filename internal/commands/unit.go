package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/ledger"
	"github.com/pinehill-dev/pinehill/internal/model"
)

func newUnitCommand(dir func() string) *cobra.Command {
	unitCmd := &cobra.Command{
		Use:   "unit",
		Short: "Unit operations",
	}
	unitCmd.AddCommand(newUnitSetCommand(dir))
	return unitCmd
}

func newUnitSetCommand(dir func() string) *cobra.Command {
	var status, price string

	cmd := &cobra.Command{
		Use:   "set <unit-id>",
		Short: "Change the occupancy status or target price of a unit",
		Long:  "Change the occupancy status or target price of a unit. An empty --price clears the price.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit ledger.UnitEdit
			if cmd.Flags().Changed("status") {
				s := model.UnitStatus(strings.ToUpper(status))
				edit.Status = &s
			}
			if cmd.Flags().Changed("price") {
				edit.TargetPrice = &price
			}
			if edit.Status == nil && edit.TargetPrice == nil {
				return fmt.Errorf("nothing to change: pass --status or --price")
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			u, err := a.Store.EditUnit(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			shown := "-"
			if u.TargetPrice != nil {
				shown = *u.TargetPrice
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s)\t%s\n", u.UnitID, u.Status, u.Status.Label(), shown)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "RENTED, VACANT, MAINTENANCE, LAWSUIT or OTHER")
	cmd.Flags().StringVar(&price, "price", "", `target price "<deposit>-<monthly>", e.g. 500-50`)

	return cmd
}
