package main

import (
	"github.com/spf13/cobra"

	"github.com/safing/objectbase/database"
)

func newMetricsCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Open the database and print its metrics in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDatabase(func(c *database.Connection) error {
				if _, err := c.StoreNames(); err != nil {
					return err
				}
				database.WriteMetrics(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func newMaintainCommand(rootOpts *rootOptions) *cobra.Command {
	var thorough bool

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Run storage maintenance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDatabase(func(c *database.Connection) error {
				if thorough {
					return c.MaintainThorough()
				}
				return c.Maintain()
			})
		},
	}

	cmd.Flags().BoolVar(&thorough, "thorough", false, "run the thorough maintenance cycle")
	return cmd
}
