package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrAdapterNotFound is returned when triggering an unknown adapter
var ErrAdapterNotFound = errors.New("adapter not found")

// ResultFunc is called after every completed adapter sync
type ResultFunc func(name string, result *SyncResult)

// Registry manages all registered adapters and their lifecycle
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	configs  map[string]AdapterConfig
	onResult ResultFunc
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewRegistry creates a new adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		configs:  make(map[string]AdapterConfig),
	}
}

// SetResultHandler sets the handler called after every sync
func (r *Registry) SetResultHandler(fn ResultFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onResult = fn
}

// Register adds an adapter to the registry
func (r *Registry) Register(adapter Adapter, config AdapterConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %s already registered", name)
	}

	r.adapters[name] = adapter
	r.configs[name] = config
	log.Debug().
		Str("adapter", name).
		Str("type", string(adapter.Type())).
		Int("priority", config.Priority).
		Bool("enabled", config.Enabled).
		Dur("interval", config.PollInterval).
		Msg("Registered adapter")

	return nil
}

// Start initializes all enabled adapters, runs a first sync of the polling
// ones in priority order, then polls each on its interval. Polling adapters
// without an interval only run on demand.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ctx, r.cancel = context.WithCancel(ctx)

	var polling []string
	intervals := make(map[string]time.Duration)
	for _, name := range r.orderedLocked() {
		adapter, config := r.adapters[name], r.configs[name]
		if !config.Enabled {
			log.Info().Str("adapter", name).Msg("Adapter is disabled, skipping")
			continue
		}
		if err := adapter.Start(r.ctx); err != nil {
			log.Error().Err(err).Str("adapter", name).Msg("Failed to start adapter")
			continue
		}
		if adapter.Type() == AdapterTypePolling && config.PollInterval > 0 {
			polling = append(polling, name)
			intervals[name] = config.PollInterval
		}
	}
	if len(polling) == 0 {
		return nil
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for _, name := range polling {
			if err := r.runSync(r.ctx, name); err != nil {
				log.Warn().Err(err).Str("adapter", name).Msg("Initial sync failed")
			}
		}
		for _, name := range polling {
			r.startPollingLoop(name, intervals[name])
		}
	}()
	return nil
}

// Stop cancels the polling loops, waits for them and stops every adapter
func (r *Registry) Stop() error {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, adapter := range r.adapters {
		if err := adapter.Stop(); err != nil {
			log.Warn().Err(err).Str("adapter", name).Msg("Error stopping adapter")
		}
	}
	return nil
}

// TriggerSync manually triggers a sync for a specific adapter
func (r *Registry) TriggerSync(ctx context.Context, name string) (*SyncResult, error) {
	r.mu.RLock()
	_, exists := r.adapters[name]
	config := r.configs[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, name)
	}
	if !config.Enabled {
		return nil, fmt.Errorf("adapter %s is disabled", name)
	}

	return r.sync(ctx, name)
}

// TriggerSyncAll syncs every enabled adapter in priority order
func (r *Registry) TriggerSyncAll(ctx context.Context) error {
	r.mu.RLock()
	var names []string
	for _, name := range r.orderedLocked() {
		if r.configs[name].Enabled {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	var errs []error
	for _, name := range names {
		if err := r.runSync(ctx, name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// ListAdapters returns information about registered adapters, highest
// priority first
func (r *Registry) ListAdapters() []AdapterInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var infos []AdapterInfo
	for _, name := range r.orderedLocked() {
		config := r.configs[name]
		infos = append(infos, AdapterInfo{
			Name:         name,
			Type:         r.adapters[name].Type(),
			Priority:     config.Priority,
			Enabled:      config.Enabled,
			PollInterval: config.PollInterval.String(),
		})
	}
	return infos
}

// AdapterInfo provides read-only information about an adapter
type AdapterInfo struct {
	Name         string      `json:"name"`
	Type         AdapterType `json:"type"`
	Priority     int         `json:"priority"`
	Enabled      bool        `json:"enabled"`
	PollInterval string      `json:"poll_interval,omitempty"`
}

// orderedLocked returns adapter names by descending priority, then name
func (r *Registry) orderedLocked() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := r.configs[names[i]].Priority, r.configs[names[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return names[i] < names[j]
	})
	return names
}

// startPollingLoop starts a goroutine that syncs the adapter on schedule
func (r *Registry) startPollingLoop(name string, interval time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				log.Debug().Str("adapter", name).Msg("Stopping polling loop")
				return
			case <-ticker.C:
				if err := r.runSync(r.ctx, name); err != nil {
					log.Warn().Err(err).Str("adapter", name).Msg("Sync failed")
				}
			}
		}
	}()

	log.Info().Str("adapter", name).Dur("interval", interval).Msg("Started polling loop")
}

func (r *Registry) runSync(ctx context.Context, name string) error {
	_, err := r.sync(ctx, name)
	return err
}

// sync executes one adapter sync and reports the result
func (r *Registry) sync(ctx context.Context, name string) (*SyncResult, error) {
	r.mu.RLock()
	adapter := r.adapters[name]
	onResult := r.onResult
	r.mu.RUnlock()

	start := time.Now()
	result, err := adapter.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	log.Info().
		Str("adapter", name).
		Int("results", len(result.Results)).
		Int("changed", result.Changed()).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Adapter sync complete")

	if onResult != nil {
		onResult(name, result)
	}
	return result, nil
}
