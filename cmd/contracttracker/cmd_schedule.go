package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ContractTracker/internal/domain"
	"ContractTracker/internal/usecase"
)

func (c *cli) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Plan, list and remove production runs",
	}
	cmd.AddCommand(c.scheduleAddCmd(), c.scheduleRemoveCmd(), c.scheduleListCmd())
	return cmd
}

func (c *cli) scheduleAddCmd() *cobra.Command {
	var (
		contractID string
		machineID  string
		from       string
		to         string
		qty        int
		weekends   bool
		overrides  []string
		notes      string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Expand a daily target over a date range and commit it",
		Long: `Expand a daily target over [--from, --to] and commit the run.

Weekends are skipped unless --weekends is set. --override date=qty replaces
the target of one day and may be repeated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseDay("from", from)
			if err != nil {
				return err
			}
			end, err := parseDay("to", to)
			if err != nil {
				return err
			}
			parsed, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			req := usecase.PlanRequest{
				ContractID:      contractID,
				MachineID:       machineID,
				StartDate:       start,
				EndDate:         end,
				DailyTarget:     qty,
				IncludeWeekends: weekends,
				Overrides:       parsed,
				Notes:           notes,
			}

			preview, err := c.app.Planner.Preview(req)
			if err != nil {
				return err
			}
			c.printPreview(preview)
			if dryRun {
				return nil
			}

			entry, err := c.app.Planner.Plan(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "committed %s: %d units on %s\n", entry.ID, entry.TotalScheduled, entry.MachineID)
			return nil
		},
	}

	cmd.Flags().StringVar(&contractID, "contract", "", "Contract ID (required)")
	cmd.Flags().StringVar(&machineID, "machine", "", "Machine ID (required)")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD (required)")
	cmd.Flags().IntVar(&qty, "qty", 0, "Daily target quantity")
	cmd.Flags().BoolVar(&weekends, "weekends", false, "Also produce on Saturdays and Sundays")
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "Per-day quantity as YYYY-MM-DD=qty")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the breakdown without committing")
	for _, name := range []string{"contract", "machine", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) printPreview(preview usecase.Preview) {
	for _, day := range preview.Breakdown {
		fmt.Fprintf(c.out, "%s  %d\n", domain.DateKey(day.Date), day.Quantity)
	}
	fmt.Fprintf(c.out, "total %d, remaining after plan %d\n", preview.TotalScheduled, preview.RemainingQuantity)
}

func (c *cli) scheduleRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <schedule-id>",
		Short: "Delete a committed run and release its quantity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Planner.Unplan(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed %s\n", args[0])
			return nil
		},
	}
}

func (c *cli) scheduleListCmd() *cobra.Command {
	var contractID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := c.app.Store.Schedules()
			if contractID != "" {
				entries = c.app.Store.SchedulesForContract(contractID)
			}

			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCONTRACT\tMACHINE\tFROM\tTO\tTOTAL\tNOTES")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					e.ID, e.ContractID, e.MachineID, domain.DateKey(e.StartDate), domain.DateKey(e.EndDate), e.TotalScheduled, e.Notes)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&contractID, "contract", "", "Only runs of this contract")
	return cmd
}

func parseOverrides(values []string) (map[string]int, error) {
	if len(values) == 0 {
		return nil, nil
	}
	overrides := make(map[string]int, len(values))
	for _, v := range values {
		day, qty, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("--override: expected YYYY-MM-DD=qty, got %q", v)
		}
		parsed, err := parseDay("override", strings.TrimSpace(day))
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return nil, fmt.Errorf("--override: invalid quantity in %q", v)
		}
		overrides[domain.DateKey(parsed)] = n
	}
	return overrides, nil
}
