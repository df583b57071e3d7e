package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/safing/objectbase/database"
	"github.com/safing/objectbase/database/archive"
	"github.com/safing/objectbase/formats/dsd"
	"github.com/safing/objectbase/log"
)

func newExportCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		out      string
		format   string
		compress bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all stores as an archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dsd.ParseFormat(format)
			if err != nil {
				return err
			}

			return rootOpts.withDatabase(func(c *database.Connection) error {
				var w io.Writer = cmd.OutOrStdout()
				if out != "" && out != "-" {
					file, err := os.Create(out)
					if err != nil {
						return err
					}
					defer func() {
						_ = file.Close()
					}()
					w = file
				}

				h, err := archive.Export(c, w, archive.Options{
					Format:   f,
					Compress: compress,
				})
				if err != nil {
					return err
				}
				log.Infof("objectbase: exported %s v%d as archive %s", h.Database, h.Version, h.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file, defaults to stdout")
	cmd.Flags().StringVar(&format, "format", "json", "archive format [json|cbor|msgpack]")
	cmd.Flags().BoolVar(&compress, "compress", false, "gzip the archive")
	return cmd
}

func newImportCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import an archive, overwriting records with the same keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() {
				_ = file.Close()
			}()

			a, err := archive.Read(file)
			if err != nil {
				return err
			}

			return rootOpts.withDatabase(func(c *database.Connection) error {
				return archive.Restore(c, a)
			})
		},
	}
}
