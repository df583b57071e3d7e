package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safing/objectbase/config"
	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/log"
)

// rootOptions holds the global flags and the loaded config.
type rootOptions struct {
	configPath string
	data       string
	engine     string
	logLevel   string

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "objectbase",
		Short:         "Manage objectbase databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().StringVar(&opts.data, "data", "", "data directory, overrides the config")
	cmd.PersistentFlags().StringVar(&opts.engine, "engine", "", "storage engine [bbolt|badger|sqlite|hashmap], overrides the config")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log", "", "log level [trace|debug|info|warning|error|critical], overrides the config")

	cmd.AddCommand(
		newInfoCommand(opts),
		newQueryCommand(opts),
		newKeysCommand(opts),
		newInsertCommand(opts),
		newUpdateCommand(opts),
		newRemoveCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newMetricsCommand(opts),
		newMaintainCommand(opts),
		newTodoCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// load loads the config file and applies the flag overrides.
func (opts *rootOptions) load() error {
	cfg := config.Defaults()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return err
		}
	}

	if opts.data != "" {
		cfg.Data = opts.data
	}
	if opts.engine != "" {
		cfg.Engine = opts.engine
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.SetLogLevel(log.ParseLevel(cfg.LogLevel))
	opts.cfg = cfg
	return nil
}

// open opens the database of the config.
func (opts *rootOptions) open() (*database.Connection, error) {
	desc, err := opts.cfg.Descriptor()
	if err != nil {
		return nil, fmt.Errorf("%w: use --config with a database section", err)
	}
	return opts.openDescriptor(desc)
}

func (opts *rootOptions) openDescriptor(desc *database.Descriptor) (*database.Connection, error) {
	dbOpts, err := opts.cfg.Options()
	if err != nil {
		return nil, err
	}
	return database.Open(desc, dbOpts)
}

// withDatabase runs fn with the database of the config and closes it afterwards.
func (opts *rootOptions) withDatabase(fn func(c *database.Connection) error) error {
	c, err := opts.open()
	if err != nil {
		return err
	}
	return closeAfter(c, fn)
}

func closeAfter(c *database.Connection, fn func(c *database.Connection) error) (err error) {
	defer func() {
		if closeErr := c.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(c)
}
