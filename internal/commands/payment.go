package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/id"
	"github.com/pinehill-dev/pinehill/internal/model"
	"github.com/pinehill-dev/pinehill/internal/reconcile"
)

func newAttributeCommand(dir func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "attribute <payment-id> <tenant-key>",
		Short: "Link a payment to a tenant and recompute its month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, err := parsePaymentID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Engine.Attribute(cmd.Context(), paymentID, args[1])
			if err != nil {
				return err
			}
			printReconcile(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newStatusCommand(dir func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <payment-id> <PAID|PARTIAL|UNPAID>",
		Short: "Set a payment status by hand",
		Long:  "Set a payment status by hand. The status is kept by later recomputations.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paymentID, err := parsePaymentID(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			status := model.PaymentStatus(strings.ToUpper(args[1]))
			res, err := a.Engine.SetStatus(cmd.Context(), paymentID, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment #%d set to %s\n", paymentID, status)
			if res.Bucket.UnitID != "" {
				printReconcile(cmd.OutOrStdout(), res)
			}
			return nil
		},
	}
}

func newPayCommand(dir func() string) *cobra.Command {
	var paidAt, sender string

	cmd := &cobra.Command{
		Use:   "pay <tenant-key> <YYYY-MM> <amount>",
		Short: "Record a payment made outside the bank channel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := id.ParseMonth(args[1]); err != nil {
				return err
			}
			amount, err := strconv.ParseInt(strings.ReplaceAll(args[2], ",", ""), 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("invalid amount %q", args[2])
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			m := reconcile.ManualPayment{
				TenantKey:  args[0],
				Month:      args[1],
				Amount:     amount,
				SenderName: sender,
			}
			if paidAt != "" {
				t, err := time.ParseInLocation("2006-01-02", paidAt, a.Location)
				if err != nil {
					return fmt.Errorf("invalid --paid-at %q: %w", paidAt, err)
				}
				m.PaidAt = &t
			}

			p, res, err := a.Engine.RecordPayment(cmd.Context(), m)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded payment #%d\n", p.PaymentID)
			printReconcile(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&paidAt, "paid-at", "", "payment date, YYYY-MM-DD")
	cmd.Flags().StringVar(&sender, "sender", "", "payer name as shown to the bank")

	return cmd
}

func newSweepCommand(dir func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [YYYY-MM]",
		Short: "Recompute payment status of every attributed bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var month string
			if len(args) > 0 {
				month = args[0]
				if _, _, err := id.ParseMonth(month); err != nil {
					return err
				}
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.Engine.Sweep(cmd.Context(), month)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Swept %d buckets, %d payments updated\n", sum.Buckets, sum.Updated)
			for _, b := range sum.TargetMissing {
				fmt.Fprintf(out, "  no rent target: %s\n", b)
			}
			return nil
		},
	}
}

func parsePaymentID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid payment id %q", s)
	}
	return v, nil
}

func printReconcile(w io.Writer, res reconcile.Result) {
	if res.TargetMissing {
		fmt.Fprintf(w, "%s: total %d원, no rent target for %s\n", res.Bucket, res.Total, res.Bucket.UnitID)
		return
	}
	fmt.Fprintf(w, "%s: total %d원 / %d원 -> %s (%s)\n", res.Bucket, res.Total, res.Target, res.Status, res.Status.Label())
}
