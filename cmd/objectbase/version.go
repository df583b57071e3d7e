package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safing/objectbase/info"
)

func newVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Works without a valid config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if short {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version())
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.FullVersion())
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "only print the version number")
	return cmd
}
