package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ContractTracker/internal/scheduling"
)

func (c *cli) matrixCmd() *cobra.Command {
	var (
		room string
		from string
		days int
	)

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Show machine occupation of a room day by day",
		Long: `Show which contract occupies each machine of a room per day.

--room defaults to the first room alphabetically, --from to the Monday of the
current week and --days to dashboard.windowDays.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if room == "" {
				rooms := c.app.Store.Rooms()
				if len(rooms) == 0 {
					return fmt.Errorf("no machines configured")
				}
				room = rooms[0]
			}

			today, err := c.now()
			if err != nil {
				return err
			}
			start := scheduling.WeekStart(today)
			if from != "" {
				if start, err = parseDay("from", from); err != nil {
					return err
				}
			}
			if days <= 0 {
				days = c.app.WindowDays()
			}

			return c.printMatrix(c.app.Planner.Matrix(room, start, days))
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "Room to show")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().IntVar(&days, "days", 0, "Number of days")
	return cmd
}

func (c *cli) printMatrix(m scheduling.Matrix) error {
	fmt.Fprintf(c.out, "%s\n", m.Room)

	tw := tabwriter.NewWriter(c.out, 0, 4, 1, ' ', 0)
	header := []string{"MACHINE"}
	for _, col := range m.Columns {
		label := col.Date.Format("Mon 01-02")
		if col.Weekend {
			label += "*"
		}
		header = append(header, label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range m.Rows {
		line := []string{row.Machine.Name}
		for _, cell := range row.Cells {
			if !cell.Occupied() {
				line = append(line, "-")
				continue
			}
			line = append(line, fmt.Sprintf("%s:%d", cell.ContractNo, cell.Quantity))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	return tw.Flush()
}
