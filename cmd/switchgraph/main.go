// Command switchgraph discovers switch configuration over RESTCONF into a
// graph store and pushes configuration changes back to the switches.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "switchgraph",
	Short: "Mirror switch configuration into a graph store",
	Long: `switchgraph discovers interfaces, VLANs, port-groups and STP ports from
switches over RESTCONF and keeps them, with their memberships, in a local
graph database. Configuration changes are pushed to the switch and the
affected kind is re-discovered afterwards.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var opts struct {
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	output     string
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "config file (default: search $SWITCHGRAPH_CONFIG, ./switchgraph.yaml, ~/.config/switchgraph)")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides config)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format: auto, console, json")
	pf.StringVarP(&opts.output, "output", "o", "json", "output format for results: json or yaml")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
