package reconcile

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/metrics"
	"switchgraph/internal/transport"
)

// Kind describes how one resource kind is discovered. R is the raw snapshot
// produced by the fetch stage and consumed by the mapper.
type Kind[E domain.Entity, R any] struct {
	Name domain.Kind

	// Fetch reads the raw snapshot of the kind from a device
	Fetch func(ctx context.Context, f transport.Fetcher, deviceIP string) (R, error)

	// Map turns the raw snapshot into entries. It must be pure.
	Map func(raw R) ([]domain.Entry[E], error)
}

// Syncer discovers one kind on one device
type Syncer interface {
	Kind() domain.Kind
	Discover(ctx context.Context, deviceIP string) (Result, error)
}

// Outcome describes one finished discovery pass
type Outcome struct {
	RunID    string        `json:"run_id"`
	DeviceIP string        `json:"device_ip"`
	Kind     domain.Kind   `json:"kind"`
	Result   Result        `json:"result"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Observer is called after every discovery pass
type Observer func(Outcome)

// EngineConfig tunes an engine
type EngineConfig struct {
	// Timeout bounds a whole pass. Zero means no bound beyond the caller's.
	Timeout  time.Duration
	Observer Observer
}

// Engine runs fetch, map and reconcile for one kind
type Engine[E domain.Entity, R any] struct {
	kind       Kind[E, R]
	fetcher    transport.Fetcher
	reconciler *Reconciler
	cfg        EngineConfig
}

var _ Syncer = (*Engine[domain.Vlan, transport.Raw])(nil)

// NewEngine creates an engine for kind
func NewEngine[E domain.Entity, R any](kind Kind[E, R], fetcher transport.Fetcher, reconciler *Reconciler, cfg EngineConfig) *Engine[E, R] {
	return &Engine[E, R]{
		kind:       kind,
		fetcher:    fetcher,
		reconciler: reconciler,
		cfg:        cfg,
	}
}

func (e *Engine[E, R]) Kind() domain.Kind {
	return e.kind.Name
}

// Discover fetches the kind from deviceIP and reconciles the snapshot into
// the store
func (e *Engine[E, R]) Discover(ctx context.Context, deviceIP string) (Result, error) {
	runID := ulid.Make().String()
	start := time.Now()
	logger := log.With().
		Str("run_id", runID).
		Str("device", deviceIP).
		Str("kind", string(e.kind.Name)).
		Logger()

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	res, err := e.discover(ctx, deviceIP)
	elapsed := time.Since(start)

	metrics.RecordDiscovery(string(e.kind.Name), elapsed, err)
	if err != nil {
		logger.Error().Err(err).Dur("duration", elapsed).Msg("Discovery failed")
	} else {
		metrics.RecordChanges(string(e.kind.Name), res.Created, res.Updated, res.Deleted, res.MembersSkipped)
		logger.Info().
			Int("created", res.Created).
			Int("updated", res.Updated).
			Int("unchanged", res.Unchanged).
			Int("deleted", res.Deleted).
			Int("members_skipped", res.MembersSkipped).
			Dur("duration", elapsed).
			Msg("Discovery complete")
	}

	if e.cfg.Observer != nil {
		e.cfg.Observer(Outcome{
			RunID:    runID,
			DeviceIP: deviceIP,
			Kind:     e.kind.Name,
			Result:   res,
			Err:      err,
			Duration: elapsed,
		})
	}
	return res, err
}

func (e *Engine[E, R]) discover(ctx context.Context, deviceIP string) (Result, error) {
	empty := Result{DeviceIP: deviceIP, Kind: e.kind.Name}
	kind := string(e.kind.Name)

	if err := e.reconciler.EnsureDevice(ctx, deviceIP); err != nil {
		return empty, err
	}

	raw, err := e.kind.Fetch(ctx, e.fetcher, deviceIP)
	if err != nil {
		if se, ok := serrors.As(err); ok {
			return empty, se.WithDevice(deviceIP)
		}
		return empty, serrors.WrapTransport("fetch", deviceIP, err).WithKind(kind)
	}

	entries, err := e.kind.Map(raw)
	if err != nil {
		if se, ok := serrors.As(err); ok {
			return empty, se.WithDevice(deviceIP)
		}
		return empty, serrors.WrapMapping("map", kind, err).WithDevice(deviceIP)
	}

	items, err := Items(entries)
	if err != nil {
		return empty, serrors.WrapMapping("encode", kind, err).WithDevice(deviceIP)
	}

	return e.reconciler.Reconcile(ctx, deviceIP, e.kind.Name, items)
}

// Items flattens mapped entries into store items
func Items[E domain.Entity](entries []domain.Entry[E]) ([]Item, error) {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		props, err := domain.EncodeProperties(entry.Entity)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			Key:        entry.Key,
			Properties: props,
			Members:    entry.Members,
		})
	}
	return items, nil
}
