package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/metrics"
	"switchgraph/internal/transport"
)

// DefaultResyncTimeout bounds the discovery that follows a mutation
const DefaultResyncTimeout = 60 * time.Second

// Dispatcher applies configuration changes and re-discovers the affected
// kind afterwards, whether or not the change succeeded, so the store always
// reflects the device.
type Dispatcher struct {
	mutator       transport.Mutator
	syncers       map[domain.Kind]Syncer
	resyncTimeout time.Duration
}

// NewDispatcher creates a dispatcher. resyncTimeout <= 0 means
// DefaultResyncTimeout.
func NewDispatcher(mutator transport.Mutator, resyncTimeout time.Duration, syncers ...Syncer) *Dispatcher {
	if resyncTimeout <= 0 {
		resyncTimeout = DefaultResyncTimeout
	}
	d := &Dispatcher{
		mutator:       mutator,
		syncers:       make(map[domain.Kind]Syncer, len(syncers)),
		resyncTimeout: resyncTimeout,
	}
	for _, s := range syncers {
		d.syncers[s.Kind()] = s
	}
	return d
}

// Apply pushes m to deviceIP and then re-discovers m.Kind() on that device.
// The resync runs even when the caller's context is cancelled. A mutation
// failure is returned after the resync; when both fail the errors are
// joined. Invalid mutations are rejected before anything is sent.
func (d *Dispatcher) Apply(ctx context.Context, deviceIP string, m transport.Mutation) (err error) {
	syncer, ok := d.syncers[m.Kind()]
	if !ok {
		return serrors.Invalid(m.Op(), "no syncer for kind %q", m.Kind()).WithDevice(deviceIP)
	}
	if verr := m.Validate(); verr != nil {
		return serrors.New(serrors.ErrorTypeValidation, m.Op(), deviceIP, verr).WithKind(string(m.Kind()))
	}

	logger := log.With().
		Str("device", deviceIP).
		Str("kind", string(m.Kind())).
		Str("op", m.Op()).
		Logger()

	defer func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.resyncTimeout)
		defer cancel()

		if _, syncErr := syncer.Discover(rctx, deviceIP); syncErr != nil {
			logger.Error().Err(syncErr).Msg("Resync after mutation failed")
			err = errors.Join(err, syncErr)
		}
	}()

	mutErr := d.mutator.Apply(ctx, deviceIP, m)
	metrics.RecordMutation(m.Op(), mutErr)
	if mutErr != nil {
		logger.Error().Err(mutErr).Msg("Mutation failed")
		if _, ok := serrors.As(mutErr); !ok {
			mutErr = serrors.WrapTransport(m.Op(), deviceIP, mutErr).WithKind(string(m.Kind()))
		}
		return mutErr
	}

	logger.Info().Msg("Mutation applied")
	return nil
}
