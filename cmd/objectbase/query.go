package main

import (
	"github.com/spf13/cobra"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/database/query"
	"github.com/safing/objectbase/database/storage"
)

type queryOptions struct {
	index     string
	only      string
	lower     string
	upper     string
	lowerOpen bool
	upperOpen bool
	page      int
	size      int
	dir       string
	count     bool
}

func newQueryCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <store>",
		Short: "Query the records of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := opts.build(args[0])
			return rootOpts.withDatabase(func(c *database.Connection) error {
				if opts.count {
					n, err := c.Count(q)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), n)
				}

				records, err := c.Query(q)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records)
			})
		},
	}

	cmd.Flags().StringVar(&opts.index, "index", "", "query over this index")
	cmd.Flags().StringVar(&opts.only, "only", "", "select exactly this key")
	cmd.Flags().StringVar(&opts.lower, "lower", "", "lower bound of the key range")
	cmd.Flags().StringVar(&opts.upper, "upper", "", "upper bound of the key range")
	cmd.Flags().BoolVar(&opts.lowerOpen, "lower-open", false, "exclude the lower bound")
	cmd.Flags().BoolVar(&opts.upperOpen, "upper-open", false, "exclude the upper bound")
	cmd.Flags().IntVar(&opts.page, "page", 0, "page index")
	cmd.Flags().IntVar(&opts.size, "size", 0, "page size, 0 returns all records")
	cmd.Flags().StringVar(&opts.dir, "dir", "next", "direction [next|nextunique|prev|prevunique]")
	cmd.Flags().BoolVar(&opts.count, "count", false, "only print the number of matching records")
	return cmd
}

func (opts *queryOptions) build(storeName string) *query.Query {
	q := query.New(storeName).
		Over(opts.index).
		Page(opts.page, opts.size).
		Order(query.ParseDirection(opts.dir))

	var lower, upper interface{}
	if opts.lower != "" {
		lower = parseKey(opts.lower)
	}
	if opts.upper != "" {
		upper = parseKey(opts.upper)
	}
	switch {
	case opts.only != "":
		q.Only(parseKey(opts.only))
	case lower != nil || upper != nil:
		q.Range(storage.Bound(lower, upper, opts.lowerOpen, opts.upperOpen))
	}
	return q
}

func newKeysCommand(rootOpts *rootOptions) *cobra.Command {
	var index string

	cmd := &cobra.Command{
		Use:   "keys <store> <key>...",
		Short: "Look up records by keys",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDatabase(func(c *database.Connection) error {
				records, err := c.QueryByKeys(parseKeys(args[1:]), index, args[0])
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records)
			})
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "look up keys in this index")
	return cmd
}

func newInfoCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info [store]",
		Short: "Show the stores of the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withDatabase(func(c *database.Connection) error {
				names := args
				if len(names) == 0 {
					var err error
					names, err = c.StoreNames()
					if err != nil {
						return err
					}
				}

				for _, name := range names {
					info, err := c.GetStoreInfo(name)
					if err != nil {
						return err
					}
					if err := printJSON(cmd.OutOrStdout(), info); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
