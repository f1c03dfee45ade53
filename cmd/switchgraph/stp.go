package main

import (
	"context"

	"github.com/spf13/cobra"

	"switchgraph/internal/domain"
	"switchgraph/internal/transport"
)

var stpCmd = &cobra.Command{
	Use:   "stp",
	Short: "Configure spanning-tree on interfaces",
}

var stpFlags struct {
	edgePort     string
	linkType     string
	guard        string
	bpduFilter   bool
	bpduGuard    bool
	bpduShutdown bool
	portfast     bool
	uplinkFast   bool
	enabled      bool
	cost         int
	priority     int
}

var stpSetCmd = &cobra.Command{
	Use:   "set <device-ip> <interface>",
	Short: "Apply STP settings to an interface",
	Long: `Set applies the given STP attributes to an interface. Attributes whose flag
is not given are left unchanged on the device.`,
	Example: `  switchgraph stp set 10.0.0.1 Ethernet0 --edge-port EDGE_ENABLE --bpdu-guard`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := transport.ConfigureSTPPort{
			IfName:   args[1],
			LinkType: stpFlags.linkType,
			Guard:    stpFlags.guard,
		}
		if stpFlags.edgePort != "" {
			e, err := domain.ParseEdgePort(stpFlags.edgePort)
			if err != nil {
				return err
			}
			m.EdgePort = e
		}

		f := cmd.Flags()
		setBool := func(name string, v bool, dst **bool) {
			if f.Changed(name) {
				*dst = &v
			}
		}
		setBool("bpdu-filter", stpFlags.bpduFilter, &m.BPDUFilter)
		setBool("bpdu-guard", stpFlags.bpduGuard, &m.BPDUGuard)
		setBool("bpdu-guard-shutdown", stpFlags.bpduShutdown, &m.BPDUGuardPortShutdown)
		setBool("portfast", stpFlags.portfast, &m.Portfast)
		setBool("uplink-fast", stpFlags.uplinkFast, &m.UplinkFast)
		setBool("enabled", stpFlags.enabled, &m.STPEnabled)
		if f.Changed("cost") {
			m.Cost = &stpFlags.cost
		}
		if f.Changed("priority") {
			m.PortPriority = &stpFlags.priority
		}

		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.ConfigureSTPPort(ctx, args[0], m)
		})
	},
}

var stpDeleteCmd = &cobra.Command{
	Use:   "delete <device-ip> <interface>",
	Short: "Remove the STP configuration of an interface",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.DeleteSTPPort(ctx, args[0], args[1])
		})
	},
}

func init() {
	f := stpSetCmd.Flags()
	f.StringVar(&stpFlags.edgePort, "edge-port", "", "EDGE_AUTO, EDGE_ENABLE or EDGE_DISABLE")
	f.StringVar(&stpFlags.linkType, "link-type", "", "P2P or SHARED")
	f.StringVar(&stpFlags.guard, "guard", "", "ROOT, LOOP or NONE")
	f.BoolVar(&stpFlags.bpduFilter, "bpdu-filter", false, "enable BPDU filter")
	f.BoolVar(&stpFlags.bpduGuard, "bpdu-guard", false, "enable BPDU guard")
	f.BoolVar(&stpFlags.bpduShutdown, "bpdu-guard-shutdown", false, "shut the port down on BPDU guard violation")
	f.BoolVar(&stpFlags.portfast, "portfast", false, "enable portfast")
	f.BoolVar(&stpFlags.uplinkFast, "uplink-fast", false, "enable uplink fast")
	f.BoolVar(&stpFlags.enabled, "enabled", false, "enable spanning-tree on the interface (--enabled=false disables it)")
	f.IntVar(&stpFlags.cost, "cost", 0, "port path cost")
	f.IntVar(&stpFlags.priority, "priority", 0, "port priority (0-240)")

	stpCmd.AddCommand(stpSetCmd, stpDeleteCmd)
	rootCmd.AddCommand(stpCmd)
}
