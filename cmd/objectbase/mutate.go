package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safing/objectbase/database"
)

func newInsertCommand(rootOpts *rootOptions) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "insert <store> <json>...",
		Short: "Insert records and print their keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]map[string]interface{}, 0, len(args)-1)
			for _, arg := range args[1:] {
				v, err := parseValue(arg)
				if err != nil {
					return err
				}
				values = append(values, v)
			}

			return rootOpts.withDatabase(func(c *database.Connection) error {
				keys, err := c.InsertMany(values, overwrite, args[0])
				for _, key := range keys {
					if printErr := printJSON(cmd.OutOrStdout(), key); printErr != nil {
						return printErr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace records with the same key")
	return cmd
}

func newUpdateCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <store> <key> <json>",
		Short: "Merge fields into a record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseValue(args[2])
			if err != nil {
				return err
			}

			return rootOpts.withDatabase(func(c *database.Connection) error {
				r, err := c.Update(patch, parseKey(args[1]), args[0])
				if err != nil {
					return err
				}
				if r == nil {
					return fmt.Errorf("no record with key %s in %s", args[1], args[0])
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
}

func newRemoveCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <store> <key>...",
		Short: "Remove records",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDatabase(func(c *database.Connection) error {
				return c.RemoveMany(parseKeys(args[1:]), args[0])
			})
		},
	}
}
