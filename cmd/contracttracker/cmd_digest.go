package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ContractTracker/internal/usecase"
)

func (c *cli) digestCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Send the exception digest to the configured notifier",
		Long: `Build the exception digest and send it to Telegram when configured.
The digest is printed as well. With --watch it is sent on scheduler.interval
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				if err := c.app.Scheduler.Start(ctx); err != nil {
					return err
				}
				c.app.Logger().Info("digest scheduler started", "interval", c.cfg.Scheduler.Interval.String())
				<-ctx.Done()
				return c.app.Scheduler.Stop(cmd.Context())
			}

			today, err := c.now()
			if err != nil {
				return err
			}
			report, err := c.app.Digest.Build(cmd.Context(), today, "")
			if err != nil {
				return err
			}
			fmt.Fprint(c.out, usecase.FormatDigest(report))
			return c.app.Digest.Run(cmd.Context(), today)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and send on every scheduler tick")
	return cmd
}
