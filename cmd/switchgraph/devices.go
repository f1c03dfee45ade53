package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"switchgraph/internal/codec"
	"switchgraph/internal/config"
)

var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"device"},
	Short:   "Manage the device registry",
}

var devicesListCmd = &cobra.Command{
	Use:   "list [glob...]",
	Short: "List registered devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			devices, err := a.svc.SelectDevices(ctx, args...)
			if err != nil {
				return err
			}
			return printResult(cmd, devices)
		})
	},
}

var devicesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Make the device registry equal to the configured inventory",
	Long: `Sync registers every device listed in the config file and removes
registered devices that are no longer listed, along with their stored
entities.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfgPath == "" {
			return errors.New("no config file found; pass --config or set SWITCHGRAPH_CONFIG")
		}
		ctx := cmd.Context()
		a, err := openApp(nil)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.syncInventory(ctx)
		if err != nil {
			return err
		}
		return printResult(cmd, summary)
	},
}

var devicesImportCmd = &cobra.Command{
	Use:   "import <ansible-inventory>",
	Short: "Convert an Ansible inventory into config file device entries",
	Long: `Import reads the hosts of an Ansible inventory and prints them as entries
for the devices section of the config file. Hosts without an IP address in
ansible_host or as their name are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		devices, err := codec.NewAnsibleCodec().Parse(f)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("output") {
			opts.output = "yaml"
		}
		return printResult(cmd, map[string][]config.DeviceConfig{"devices": devices})
	},
}

func init() {
	devicesCmd.AddCommand(devicesListCmd, devicesSyncCmd, devicesImportCmd)
	rootCmd.AddCommand(devicesCmd)
}
