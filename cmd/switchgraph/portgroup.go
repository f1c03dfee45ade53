package main

import (
	"context"

	"github.com/spf13/cobra"

	"switchgraph/internal/domain"
	"switchgraph/internal/transport"
)

var portGroupCmd = &cobra.Command{
	Use:     "portgroup",
	Aliases: []string{"port-group"},
	Short:   "Configure port-groups",
}

var portGroupSpeedCmd = &cobra.Command{
	Use:     "speed <device-ip> <port-group-id> <speed>",
	Short:   "Set the speed of a port-group",
	Example: `  switchgraph portgroup speed 10.0.0.1 1 SPEED_10GB`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		speed, err := domain.ParseSpeed(args[2])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			return a.svc.SetPortGroupSpeed(ctx, args[0], transport.SetPortGroupSpeed{ID: args[1], Speed: speed})
		})
	},
}

func init() {
	portGroupCmd.AddCommand(portGroupSpeedCmd)
	rootCmd.AddCommand(portGroupCmd)
}
