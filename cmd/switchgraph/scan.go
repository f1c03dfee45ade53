package main

import (
	"time"

	"github.com/spf13/cobra"

	"switchgraph/internal/config"
	"switchgraph/internal/inventory"
)

var scanFlags struct {
	port              int
	timeout           time.Duration
	skipHostDiscovery bool
	serviceDetection  bool
}

var scanCmd = &cobra.Command{
	Use:   "scan <cidr|ip|range>...",
	Short: "Scan networks for RESTCONF-capable switches",
	Long: `Scan checks the given targets with nmap and prints an inventory snippet
for every host with the RESTCONF port open. Paste the output into the
devices section of the config file.`,
	Example: `  switchgraph scan 10.0.0.0/24
  switchgraph scan 10.0.0.1-32 --port 8443 --skip-host-discovery`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		port := scanFlags.port
		if port == 0 {
			port = cfg.Transport.Port
		}

		scanner := inventory.NewScanner(
			inventory.WithPort(port),
			inventory.WithScanTimeout(scanFlags.timeout),
			inventory.WithSkipHostDiscovery(scanFlags.skipHostDiscovery),
			inventory.WithServiceDetection(scanFlags.serviceDetection),
		)
		candidates, err := scanner.Scan(cmd.Context(), args...)
		if err != nil {
			return err
		}

		devices := make([]config.DeviceConfig, 0, len(candidates))
		for _, c := range candidates {
			devices = append(devices, c.DeviceConfig(cfg.Transport.Port))
		}
		if !cmd.Flags().Changed("output") {
			opts.output = "yaml"
		}
		return printResult(cmd, map[string][]config.DeviceConfig{"devices": devices})
	},
}

func init() {
	f := scanCmd.Flags()
	f.IntVar(&scanFlags.port, "port", 0, "RESTCONF port to check (default from config)")
	f.DurationVar(&scanFlags.timeout, "timeout", 2*time.Minute, "overall scan timeout")
	f.BoolVar(&scanFlags.skipHostDiscovery, "skip-host-discovery", false, "treat every target as up (nmap -Pn)")
	f.BoolVar(&scanFlags.serviceDetection, "service-detection", false, "detect service versions (slower)")
	rootCmd.AddCommand(scanCmd)
}
