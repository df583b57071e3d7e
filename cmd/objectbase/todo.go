package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/database/query"
)

const tasksStore = "tasks"

var todoDescriptor = &database.Descriptor{
	Name:    "Todos",
	Version: 1,
	Stores: []database.StoreDescriptor{{
		Name:    tasksStore,
		KeyPath: "postDate",
		Indexes: map[string]database.IndexOptions{
			"title":    {},
			"content":  {},
			"postDate": {Unique: true},
			"done":     {},
		},
	}},
}

// now returns the post date of new tasks.
var now = time.Now

func newTodoCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Manage a todo list",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <title> [content]",
			Short: "Add a task",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				task := map[string]interface{}{
					"title":    args[0],
					"content":  "",
					"postDate": now().UnixMilli(),
					"done":     false,
				}
				if len(args) > 1 {
					task["content"] = args[1]
				}

				return rootOpts.withTodos(func(c *database.Connection) error {
					key, err := c.Insert(task, false, tasksStore)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), key)
				})
			},
		},
		newTodoListCommand(rootOpts),
		&cobra.Command{
			Use:   "done <postDate>",
			Short: "Mark a task as done",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := parsePostDate(args[0])
				if err != nil {
					return err
				}

				return rootOpts.withTodos(func(c *database.Connection) error {
					r, err := c.Update(map[string]interface{}{"done": true}, key, tasksStore)
					if err != nil {
						return err
					}
					if r == nil {
						return fmt.Errorf("no task posted at %s", args[0])
					}
					return printJSON(cmd.OutOrStdout(), r)
				})
			},
		},
		&cobra.Command{
			Use:   "rm <postDate>",
			Short: "Remove a task",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := parsePostDate(args[0])
				if err != nil {
					return err
				}

				return rootOpts.withTodos(func(c *database.Connection) error {
					return c.Remove(key, tasksStore)
				})
			},
		},
	)
	return cmd
}

func newTodoListCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		title string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := query.New(tasksStore).Order(query.ParseDirection(dir))
			if title != "" {
				q.Over("title").Only(title)
			}

			return rootOpts.withTodos(func(c *database.Connection) error {
				records, err := c.Query(q)
				if err != nil {
					return err
				}
				return printRecords(cmd.OutOrStdout(), records)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "only list tasks with this title")
	cmd.Flags().StringVar(&dir, "dir", "next", "direction [next|prev]")
	return cmd
}

func (opts *rootOptions) withTodos(fn func(c *database.Connection) error) error {
	c, err := opts.openDescriptor(todoDescriptor)
	if err != nil {
		return err
	}
	return closeAfter(c, fn)
}

func parsePostDate(arg string) (float64, error) {
	key, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid post date %q: %w", arg, err)
	}
	return key, nil
}
