package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/model"
)

func newTenantCommand(dir func() string) *cobra.Command {
	tenantCmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant operations",
	}
	tenantCmd.AddCommand(newTenantAddCommand(dir), newTenantListCommand(dir), newTenantRemoveCommand(dir))
	return tenantCmd
}

func newTenantAddCommand(dir func() string) *cobra.Command {
	var name, phone, unit string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a tenant of a unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetUnit(cmd.Context(), unit); err != nil {
				return err
			}
			t := &model.Tenant{
				TenantKey: id.TenantKey(name, phone),
				Name:      name,
				Phone:     phone,
				UnitID:    unit,
			}
			if err := a.Store.CreateTenant(cmd.Context(), t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added tenant %s in %s\n", t.TenantKey, t.UnitID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "tenant name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "tenant phone number (required)")
	cmd.Flags().StringVar(&unit, "unit", "", "unit id, e.g. PINE-201 (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("unit")

	return cmd
}

func newTenantListCommand(dir func() string) *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			var tenants []model.Tenant
			if unit != "" {
				tenants, err = a.Store.TenantsByUnit(cmd.Context(), unit)
			} else {
				tenants, err = a.Store.ListTenants(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, t := range tenants {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.UnitID, t.TenantKey)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "", "only tenants of this unit")

	return cmd
}

func newTenantRemoveCommand(dir func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <tenant-key>",
		Short: "Remove a tenant; their payments stay on record unattributed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.DeleteTenant(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed tenant %s\n", args[0])
			return nil
		},
	}
}
