package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load contracts and machines from the configured sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := c.app.Importer.Import(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "imported %d contracts, %d machines\n", result.Contracts, result.Machines)
			return nil
		},
	}
}
