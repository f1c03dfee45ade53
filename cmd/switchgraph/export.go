package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"switchgraph/internal/codec"
)

var exportFlags struct {
	format  string
	file    string
	devices []string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored graph",
	Long: fmt.Sprintf(`Export writes the stored devices, entities and memberships in one of the
supported formats: %s.

The ansible-inventory format renders each device as a host whose vars follow
the enterprise SONiC collection resource layout.`, strings.Join(codec.Formats(), ", ")),
	Example: `  switchgraph export --format ansible-inventory -f inventory.yml
  switchgraph export --device leaf* --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		exporter, err := codec.ExporterFor(exportFlags.format)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			fragment, err := a.svc.Export(ctx, exportFlags.devices...)
			if err != nil {
				return err
			}
			if exportFlags.file == "" || exportFlags.file == "-" {
				return exporter.Export(fragment, cmd.OutOrStdout())
			}

			f, err := os.Create(exportFlags.file)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportFlags.file, err)
			}
			if err := exporter.Export(fragment, f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.format, "format", "json", "export format")
	f.StringVarP(&exportFlags.file, "file", "f", "", "output file (default stdout)")
	f.StringSliceVarP(&exportFlags.devices, "device", "d", nil, "device IP or name glob (repeatable)")
	rootCmd.AddCommand(exportCmd)
}
