package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/reconcile"
	"switchgraph/internal/repository"
	"switchgraph/internal/transport"
)

// Config tunes discovery and mutation handling
type Config struct {
	DiscoveryTimeout time.Duration
	ResyncTimeout    time.Duration
	MaxConcurrent    int
	// Kinds limits the kinds discovered when none are named. Empty means all.
	Kinds []domain.Kind
}

// Service is the entry point for discovery, reads and configuration changes
type Service struct {
	store      repository.Store
	runner     *reconcile.Runner
	dispatcher *reconcile.Dispatcher
	eventBus   *EventBus
	kinds      []domain.Kind
}

// New wires the reconciliation engines for every kind over store and client
func New(store repository.Store, client transport.Client, eventBus *EventBus, cfg Config) *Service {
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	s := &Service{
		store:    store,
		eventBus: eventBus,
		kinds:    cfg.Kinds,
	}

	reconciler := reconcile.NewReconciler(store, nil)
	syncers := NewSyncers(client, reconciler, reconcile.EngineConfig{
		Timeout:  cfg.DiscoveryTimeout,
		Observer: s.publishOutcome,
	})

	s.runner = reconcile.NewRunner(store, cfg.MaxConcurrent, syncers...)
	s.dispatcher = reconcile.NewDispatcher(client, cfg.ResyncTimeout, syncers...)
	return s
}

// EventBus returns the bus discovery and mutation events are published on
func (s *Service) EventBus() *EventBus {
	return s.eventBus
}

func (s *Service) publishOutcome(o reconcile.Outcome) {
	payload := DiscoveryPayload{
		RunID:      o.RunID,
		DeviceIP:   o.DeviceIP,
		Kind:       string(o.Kind),
		Created:    o.Result.Created,
		Updated:    o.Result.Updated,
		Deleted:    o.Result.Deleted,
		Skipped:    o.Result.MembersSkipped,
		DurationMS: o.Duration.Milliseconds(),
	}
	eventType := EventDiscoveryCompleted
	if o.Err != nil {
		eventType = EventDiscoveryFailed
		payload.Error = o.Err.Error()
	}
	s.eventBus.Publish(Event{Type: eventType, Payload: payload})
}

// ============================================================================
// Discovery
// ============================================================================

// Discover runs discovery of kind for deviceIP. An empty deviceIP means every
// registered device; an empty kind means every enabled kind.
func (s *Service) Discover(ctx context.Context, kind domain.Kind, deviceIP string) ([]reconcile.Result, error) {
	var kinds []domain.Kind
	if kind != "" {
		kinds = []domain.Kind{kind}
	}
	if deviceIP == "" {
		return s.DiscoverDevices(ctx, kinds)
	}

	if err := s.requireDevice(ctx, deviceIP); err != nil {
		return nil, err
	}
	return s.DiscoverDevices(ctx, kinds, deviceIP)
}

// DiscoverDevices runs discovery of kinds on every device matching one of
// patterns
func (s *Service) DiscoverDevices(ctx context.Context, kinds []domain.Kind, patterns ...string) ([]reconcile.Result, error) {
	if len(kinds) == 0 {
		kinds = s.kinds
	}
	results, err := s.runner.Run(ctx, kinds, patterns...)
	if err != nil {
		log.Warn().Err(err).Int("succeeded", len(results)).Msg("Discovery finished with errors")
	}
	return results, err
}

// SelectDevices returns the registered devices matching patterns
func (s *Service) SelectDevices(ctx context.Context, patterns ...string) ([]domain.Device, error) {
	return s.runner.SelectDevices(ctx, patterns...)
}

// ============================================================================
// Devices
// ============================================================================

// ListDevices returns all registered devices
func (s *Service) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return s.store.ListDevices(ctx)
}

// GetDevice returns a registered device
func (s *Service) GetDevice(ctx context.Context, mgtIP string) (*domain.Device, error) {
	device, err := s.store.GetDevice(ctx, mgtIP)
	if err != nil {
		return nil, serrors.WrapStore("get_device", mgtIP, err)
	}
	if device == nil {
		return nil, serrors.NotFound(mgtIP, "", "")
	}
	return device, nil
}

// SyncDevices makes the device registry equal to devices
func (s *Service) SyncDevices(ctx context.Context, devices []domain.Device) (repository.SyncSummary, error) {
	for _, d := range devices {
		if d.MgtIP == "" {
			return repository.SyncSummary{}, serrors.Invalid("sync_devices", "device without management IP")
		}
	}

	summary, err := s.store.SyncDevices(ctx, devices)
	if err != nil {
		return summary, serrors.WrapStore("sync_devices", "", err)
	}

	log.Info().
		Int("added", len(summary.Added)).
		Int("updated", len(summary.Updated)).
		Int("removed", len(summary.Removed)).
		Msg("Device registry synced")

	s.eventBus.Publish(Event{Type: EventDevicesSynced, Payload: summary})
	return summary, nil
}

// Stats counts stored devices, entities and memberships
func (s *Service) Stats(ctx context.Context) (repository.Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) requireDevice(ctx context.Context, deviceIP string) error {
	_, err := s.GetDevice(ctx, deviceIP)
	return err
}
