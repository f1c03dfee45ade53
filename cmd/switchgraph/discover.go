package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"switchgraph/internal/domain"
	"switchgraph/internal/reconcile"
)

var discoverDevices []string

var discoverCmd = &cobra.Command{
	Use:   "discover [kind...]",
	Short: "Discover kinds from devices into the store",
	Long: `Discover reads the named kinds (all enabled kinds when none are given) from
every registered device, or from the devices matching --device, and
reconciles them into the store.

Examples:
  switchgraph discover
  switchgraph discover vlans port-groups --device 10.0.1.*
  switchgraph discover interfaces --device leaf*`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := parseKinds(args)
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app) error {
			results, err := a.svc.DiscoverDevices(ctx, kinds, discoverDevices...)
			if printErr := printResult(cmd, summarize(results)); printErr != nil {
				return printErr
			}
			return err
		})
	},
}

func init() {
	discoverCmd.Flags().StringSliceVarP(&discoverDevices, "device", "d", nil, "device IP or name glob (repeatable)")
	rootCmd.AddCommand(discoverCmd)
}

func parseKinds(args []string) ([]domain.Kind, error) {
	var kinds []domain.Kind
	for _, a := range args {
		k, err := domain.ParseKind(a)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

type resultSummary struct {
	Device         string      `json:"device" yaml:"device"`
	Kind           domain.Kind `json:"kind" yaml:"kind"`
	Created        int         `json:"created" yaml:"created"`
	Updated        int         `json:"updated" yaml:"updated"`
	Unchanged      int         `json:"unchanged" yaml:"unchanged"`
	Deleted        int         `json:"deleted" yaml:"deleted"`
	MembersLinked  int         `json:"members_linked" yaml:"members_linked"`
	MembersSkipped int         `json:"members_skipped" yaml:"members_skipped"`
	MembersRemoved int         `json:"members_removed" yaml:"members_removed"`
}

func summarize(results []reconcile.Result) []resultSummary {
	out := make([]resultSummary, 0, len(results))
	for _, r := range results {
		out = append(out, resultSummary{
			Device:         r.DeviceIP,
			Kind:           r.Kind,
			Created:        r.Created,
			Updated:        r.Updated,
			Unchanged:      r.Unchanged,
			Deleted:        r.Deleted,
			MembersLinked:  r.MembersLinked,
			MembersSkipped: r.MembersSkipped,
			MembersRemoved: r.MembersRemoved,
		})
		if r.MembersSkipped > 0 {
			log.Warn().Str("device", r.DeviceIP).Str("kind", string(r.Kind)).
				Int("skipped", r.MembersSkipped).Msg("Members reference unknown interfaces")
		}
	}
	return out
}
