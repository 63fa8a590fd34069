package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/app"
)

func newServeCommand(dir func() string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the periodic reconciliation sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.Config.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := scheduleSweep(a, a.Config.Reconcile.SweepSchedule)
			if err != nil {
				return err
			}
			if c != nil {
				c.Start()
				defer func() { <-c.Stop().Done() }()
			}

			return a.Server().Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")

	return cmd
}

// scheduleSweep registers the reconciliation sweep on schedule. It returns nil
// when schedule is empty.
func scheduleSweep(a *app.App, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New(cron.WithLocation(a.Location), cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(a.Log))))
	_, err := c.AddFunc(schedule, func() {
		if _, err := a.Engine.Sweep(context.Background(), ""); err != nil {
			a.Log.WithError(err).Error("Scheduled reconciliation sweep failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling sweep %q: %w", schedule, err)
	}
	return c, nil
}
