package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ContractTracker/internal/analytics"
	"ContractTracker/internal/domain"
	"ContractTracker/internal/usecase"
)

func (c *cli) dashboardCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show KPIs, key contracts, zombie inventory and data quality",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch analytics.Category(filter) {
			case "", analytics.CategoryLeadTime, analytics.CategoryPayment, analytics.CategoryMaterial, analytics.CategoryData:
			default:
				return fmt.Errorf("--filter: unknown category %q", filter)
			}

			today, err := c.now()
			if err != nil {
				return err
			}
			report, err := c.app.Digest.Build(cmd.Context(), today, analytics.Category(filter))
			if err != nil {
				return err
			}
			return c.printDashboard(report)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Restrict key contracts to lead-time, payment, material or data")
	return cmd
}

func (c *cli) printDashboard(report usecase.Report) error {
	fmt.Fprintf(c.out, "Exception dashboard %s\n\n", domain.DateKey(report.Day))

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KPI\tVALUE\tTOTAL\tDETAIL")
	for _, kpi := range report.KPIs.All() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", kpi.Title, kpi.Value, kpi.Total, kpi.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "\nKey contracts (%d)\n", len(report.KeyContracts))
	if len(report.KeyContracts) > 0 {
		tw = tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CONTRACT\tCLIENT\tSTAGE\tSTATUS\tDELAY\tKIND\tSIGNED\tUPDATED")
		for _, row := range report.KeyContracts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dd\t%s\t%dd ago\t%dd ago\n",
				row.Contract.ContractNo,
				row.Contract.Client,
				row.Classification.Stage,
				row.Classification.StatusText,
				row.Classification.DelayDays,
				row.Kind,
				row.DaysSinceSigning,
				row.DaysSinceUpdate)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.out, "\nZombie inventory: %d contracts, value %s\n", report.Zombies.Count, report.Zombies.TotalValue.StringFixed(2))
	for _, item := range report.Zombies.Items {
		fmt.Fprintf(c.out, "  %s %s  %dd  %s\n", item.ContractNo, item.ProductName, item.Days, item.Amount.StringFixed(2))
	}

	good := report.DataQuality.Good
	total := report.KPIs.Data.Total
	fmt.Fprintf(c.out, "\nData quality: %d%% (%d/%d clean)\n", report.DataQuality.Score, good, total)
	for _, issue := range report.DataQuality.Issues {
		fmt.Fprintf(c.out, "  %s %s: %s\n", issue.ContractNo, issue.ProductName, issue.Issue)
	}
	return nil
}
