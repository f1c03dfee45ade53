package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"switchgraph/internal/domain"
	"switchgraph/internal/transport"
)

var vlanCmd = &cobra.Command{
	Use:   "vlan",
	Short: "Configure VLANs",
}

var vlanCreateFlags transport.ConfigureVLAN

var vlanCreateCmd = &cobra.Command{
	Use:   "create <device-ip> <vlan-id>",
	Short: "Create a VLAN or update its attributes",
	Example: `  switchgraph vlan create 10.0.0.1 10 --mtu 9100
  switchgraph vlan create 10.0.0.1 20 --ip 10.20.0.1/24 --autostate enable`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVLANID(args[1])
		if err != nil {
			return err
		}
		m := vlanCreateFlags
		m.VlanID = id
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.ConfigureVLAN(ctx, args[0], m)
		})
	},
}

var vlanDeleteCmd = &cobra.Command{
	Use:     "delete <device-ip> <vlan-name|vlan-id>",
	Short:   "Delete a VLAN",
	Example: `  switchgraph vlan delete 10.0.0.1 Vlan10`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[1]
		if id, err := strconv.Atoi(name); err == nil {
			name = domain.VLANName(id)
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.DeleteVLAN(ctx, args[0], name)
		})
	},
}

var memberMode string

var vlanAddMemberCmd = &cobra.Command{
	Use:     "add-member <device-ip> <vlan-id> <interface>...",
	Short:   "Add interfaces to a VLAN",
	Example: `  switchgraph vlan add-member 10.0.0.1 10 Ethernet0 Ethernet4 --mode untagged`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVLANID(args[1])
		if err != nil {
			return err
		}
		mode, err := domain.ParseTaggingMode(memberMode)
		if err != nil {
			return err
		}

		m := transport.AddVLANMembers{VlanID: id}
		for _, ifName := range args[2:] {
			m.Members = append(m.Members, transport.VLANMemberSpec{Interface: ifName, Mode: mode})
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.AddVLANMembers(ctx, args[0], m)
		})
	},
}

var vlanRemoveMemberCmd = &cobra.Command{
	Use:   "remove-member <device-ip> <vlan-id> [interface]",
	Short: "Remove an interface from a VLAN, or all members when none is named",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseVLANID(args[1])
		if err != nil {
			return err
		}
		var ifName string
		if len(args) == 3 {
			ifName = args[2]
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.RemoveVLANMember(ctx, args[0], id, ifName)
		})
	},
}

func init() {
	f := vlanCreateCmd.Flags()
	f.StringVar(&vlanCreateFlags.Name, "name", "", "VLAN name (default Vlan<id>)")
	f.IntVar(&vlanCreateFlags.MTU, "mtu", 0, "MTU")
	f.StringVar(&vlanCreateFlags.AdminStatus, "admin-status", "", "up or down")
	f.StringVar(&vlanCreateFlags.Autostate, "autostate", "", "enable or disable")
	f.StringVar(&vlanCreateFlags.IPAddress, "ip", "", "IPv4 address with prefix length")
	f.StringVar(&vlanCreateFlags.SAGIP, "sag-ip", "", "static anycast gateway address")

	vlanAddMemberCmd.Flags().StringVar(&memberMode, "mode", "tagged", "tagging mode: tagged or untagged")

	vlanCmd.AddCommand(vlanCreateCmd, vlanDeleteCmd, vlanAddMemberCmd, vlanRemoveMemberCmd)
	rootCmd.AddCommand(vlanCmd)
}

// parseVLANID accepts "10" or "Vlan10"
func parseVLANID(s string) (int, error) {
	if id, err := strconv.Atoi(s); err == nil {
		return id, nil
	}
	id, err := domain.VLANID(s)
	if err != nil {
		return 0, fmt.Errorf("invalid vlan %q", s)
	}
	return id, nil
}
