// Package config loads the configuration of the objectbase command line tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/formats/dsd"
	"github.com/safing/objectbase/log"
)

// Config is the content of a config file.
type Config struct {
	// Data is the root directory of all databases.
	Data string `json:"data" toml:"data"`
	// Engine is the storage engine.
	Engine string `json:"engine" toml:"engine"`
	// Format is the value format: json, cbor or msgpack.
	Format   string `json:"format" toml:"format"`
	LogLevel string `json:"logLevel" toml:"logLevel"`
	// Merge is the update merge mode: truthy or present.
	Merge string `json:"merge" toml:"merge"`

	Database *database.Descriptor `json:"database,omitempty" toml:"database,omitempty"`
	// Schema is an alias of Database.
	Schema *database.Descriptor `json:"schema,omitempty" toml:"schema,omitempty"`
}

// Defaults returns a Config with the default engine, format and log level.
func Defaults() *Config {
	return &Config{
		Engine:   database.DefaultStorageType,
		Format:   "json",
		LogLevel: "info",
		Merge:    database.MergeTruthy.String(),
	}
}

// Load reads and validates a YAML (.yaml, .yml, .json) or TOML (.toml) config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	log.Debugf("config: loaded %s", path)
	return cfg, nil
}

// Parse parses and validates config data of the type given by its file extension.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Defaults()

	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}

	if cfg.Database == nil {
		cfg.Database = cfg.Schema
	}
	cfg.Schema = nil

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all values of the config.
func (cfg *Config) Validate() error {
	if _, err := dsd.ParseFormat(cfg.Format); err != nil {
		return newInvalidValueError("format", cfg.Format, "must be json, cbor or msgpack")
	}
	if format, _ := dsd.ParseFormat(cfg.Format); format == dsd.RAW {
		return newInvalidValueError("format", cfg.Format, "raw values cannot be stored")
	}
	if log.ParseLevel(cfg.LogLevel) == 0 {
		return newInvalidValueError("logLevel", cfg.LogLevel, "must be trace, debug, info, warning, error or critical")
	}
	if _, err := parseMergeMode(cfg.Merge); err != nil {
		return err
	}
	if cfg.Database != nil {
		if err := cfg.Database.Check(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	return nil
}

// Descriptor returns the configured database descriptor.
func (cfg *Config) Descriptor() (*database.Descriptor, error) {
	if cfg.Database == nil {
		return nil, ErrNoDatabase
	}
	return cfg.Database.Copy(), nil
}

// Options returns the database options of the config.
func (cfg *Config) Options() (*database.Options, error) {
	format, err := dsd.ParseFormat(cfg.Format)
	if err != nil {
		return nil, newInvalidValueError("format", cfg.Format, err.Error())
	}
	merge, err := parseMergeMode(cfg.Merge)
	if err != nil {
		return nil, err
	}
	return &database.Options{
		StorageType: cfg.Engine,
		Location:    ExpandHome(cfg.Data),
		Format:      format,
		MergeMode:   merge,
	}, nil
}

func parseMergeMode(name string) (database.MergeMode, error) {
	switch strings.ToLower(name) {
	case "", "truthy":
		return database.MergeTruthy, nil
	case "present":
		return database.MergePresent, nil
	default:
		return 0, newInvalidValueError("merge", name, "must be truthy or present")
	}
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
