package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/IGLOU-EU/go-wildcard/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/repository"
)

// Runner discovers many devices at once. Devices run in parallel up to a
// limit; the kinds of one device run in dependency order so interfaces are
// stored before the entities that reference them.
type Runner struct {
	devices       repository.DeviceRegistry
	syncers       map[domain.Kind]Syncer
	maxConcurrent int
}

// NewRunner creates a runner over the given syncers. maxConcurrent < 1
// means one device at a time.
func NewRunner(devices repository.DeviceRegistry, maxConcurrent int, syncers ...Syncer) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	r := &Runner{
		devices:       devices,
		syncers:       make(map[domain.Kind]Syncer, len(syncers)),
		maxConcurrent: maxConcurrent,
	}
	for _, s := range syncers {
		r.syncers[s.Kind()] = s
	}
	return r
}

// Syncer returns the syncer registered for kind
func (r *Runner) Syncer(kind domain.Kind) (Syncer, bool) {
	s, ok := r.syncers[kind]
	return s, ok
}

// Kinds returns the registered kinds in discovery order
func (r *Runner) Kinds() []domain.Kind {
	var kinds []domain.Kind
	for _, k := range domain.AllKinds() {
		if _, ok := r.syncers[k]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// SelectDevices returns the registered devices whose management IP or name
// matches one of patterns. No patterns selects every device.
func (r *Runner) SelectDevices(ctx context.Context, patterns ...string) ([]domain.Device, error) {
	all, err := r.devices.ListDevices(ctx)
	if err != nil {
		return nil, serrors.WrapStore("list_devices", "", err)
	}
	if len(patterns) == 0 {
		return all, nil
	}

	var selected []domain.Device
	for _, d := range all {
		for _, p := range patterns {
			if wildcard.Match(p, d.MgtIP) || (d.Name != "" && wildcard.Match(p, d.Name)) {
				selected = append(selected, d)
				break
			}
		}
	}
	return selected, nil
}

// Run discovers kinds on every device matching patterns. Empty kinds means
// every registered kind. A failure on one device or kind does not stop the
// others; all failures are joined into the returned error.
func (r *Runner) Run(ctx context.Context, kinds []domain.Kind, patterns ...string) ([]Result, error) {
	syncers, err := r.ordered(kinds)
	if err != nil {
		return nil, err
	}

	devices, err := r.SelectDevices(ctx, patterns...)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		log.Warn().Strs("patterns", patterns).Msg("No devices selected for discovery")
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results []Result
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for _, device := range devices {
		deviceIP := device.MgtIP
		g.Go(func() error {
			for _, s := range syncers {
				if gctx.Err() != nil {
					mu.Lock()
					errs = append(errs, gctx.Err())
					mu.Unlock()
					return nil
				}
				res, err := s.Discover(gctx, deviceIP)
				mu.Lock()
				if err != nil {
					errs = append(errs, err)
				} else {
					results = append(results, res)
				}
				mu.Unlock()
			}
			// Per-device failures never cancel the group
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

func (r *Runner) ordered(kinds []domain.Kind) ([]Syncer, error) {
	if len(kinds) == 0 {
		kinds = r.Kinds()
	}
	want := make(map[domain.Kind]bool, len(kinds))
	for _, k := range kinds {
		if _, ok := r.syncers[k]; !ok {
			return nil, serrors.Invalid("discover", "no syncer for kind %q", k)
		}
		want[k] = true
	}

	var out []Syncer
	for _, k := range domain.AllKinds() {
		if want[k] {
			out = append(out, r.syncers[k])
		}
	}
	return out, nil
}
