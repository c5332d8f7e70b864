package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ContractTracker/internal/app"
	"ContractTracker/internal/config"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/logging"
)

// cli carries the flags shared by every command and the application built
// from them.
type cli struct {
	out        io.Writer
	configPath string
	logLevel   string
	today      string

	cfg config.Config
	app *app.Application
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "contracttracker",
		Short: "Production scheduling and contract exception tracking",
		Long: `contracttracker plans production runs for manufacturing contracts and
reports contracts that are blocked or late.

Configuration is read from --config or CONTRACT_TRACKER_CONFIG, then
overridden by DATABASE_DRIVER, DATABASE_DSN, LOG_LEVEL, CONTRACTS_API_URL,
TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.cfg = config.Load(c.configPath)
			if c.logLevel != "" {
				c.cfg.Logging.Level = c.logLevel
			}

			application, err := app.New(cmd.Context(), c.cfg, logging.New(c.cfg.Logging.Level))
			if err != nil {
				return err
			}
			c.app = application
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			err := c.app.Close()
			c.app = nil
			return err
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to the YAML config (default: $CONTRACT_TRACKER_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&c.today, "today", "", "Evaluate as of this day (YYYY-MM-DD)")

	root.AddCommand(
		c.dashboardCmd(),
		c.scheduleCmd(),
		c.matrixCmd(),
		c.digestCmd(),
		c.importCmd(),
	)
	return root
}

// now returns --today or the current day in the configured timezone.
func (c *cli) now() (time.Time, error) {
	if c.today == "" {
		return c.app.Today(), nil
	}
	return parseDay("today", c.today)
}

func parseDay(flag, value string) (time.Time, error) {
	day, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return day, nil
}
