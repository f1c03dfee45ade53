package main

import (
	"context"

	"github.com/spf13/cobra"

	"switchgraph/internal/domain"
)

var getCmd = &cobra.Command{
	Use:   "get <kind> <device-ip> [key]",
	Short: "Show stored entities of a device",
	Long: `Get prints the stored entities of one kind on a device, or a single entity
when a key is given. VLANs and port-groups are printed with their members.

Examples:
  switchgraph get vlans 10.0.0.1
  switchgraph get vlan 10.0.0.1 Vlan10
  switchgraph get port-group 10.0.0.1 1 -o yaml`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := domain.ParseKind(args[0])
		if err != nil {
			return err
		}
		ip := args[1]

		return withApp(cmd, func(ctx context.Context, a *app) error {
			if len(args) == 3 {
				v, err := getEntity(ctx, a, kind, ip, args[2])
				if err != nil {
					return err
				}
				return printResult(cmd, v)
			}
			v, err := listEntities(ctx, a, kind, ip)
			if err != nil {
				return err
			}
			return printResult(cmd, v)
		})
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func getEntity(ctx context.Context, a *app, kind domain.Kind, ip, key string) (any, error) {
	switch kind {
	case domain.KindVLAN:
		return a.svc.GetVLANWithMembers(ctx, ip, key)
	case domain.KindPortGroup:
		return a.svc.GetPortGroupWithMembers(ctx, ip, key)
	case domain.KindSTPPort:
		return a.svc.GetSTPPort(ctx, ip, key)
	default:
		return a.svc.GetInterface(ctx, ip, key)
	}
}

func listEntities(ctx context.Context, a *app, kind domain.Kind, ip string) (any, error) {
	switch kind {
	case domain.KindVLAN:
		return a.svc.ListVLANsWithMembers(ctx, ip)
	case domain.KindPortGroup:
		return a.svc.ListPortGroupsWithMembers(ctx, ip)
	case domain.KindSTPPort:
		return a.svc.ListSTPPorts(ctx, ip)
	default:
		return a.svc.ListInterfaces(ctx, ip)
	}
}
