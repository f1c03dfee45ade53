package adapter

import (
	"context"
	"fmt"
	"sync"

	"switchgraph/internal/domain"
	"switchgraph/internal/reconcile"
)

// DiscoverFunc runs discovery of kinds on the devices matching patterns.
// It returns the results of the passes that succeeded alongside the joined
// errors of the ones that failed.
type DiscoverFunc func(ctx context.Context, kinds []domain.Kind, patterns ...string) ([]reconcile.Result, error)

// DiscoveryAdapter syncs one resource kind across the selected devices
type DiscoveryAdapter struct {
	kind     domain.Kind
	discover DiscoverFunc
	patterns []string

	mu      sync.Mutex
	running bool
}

// NewDiscoveryAdapter creates an adapter for kind. Without patterns every
// registered device is discovered.
func NewDiscoveryAdapter(kind domain.Kind, discover DiscoverFunc, patterns ...string) *DiscoveryAdapter {
	return &DiscoveryAdapter{kind: kind, discover: discover, patterns: patterns}
}

// Name returns the kind name
func (a *DiscoveryAdapter) Name() string {
	return string(a.kind)
}

// Type returns AdapterTypePolling
func (a *DiscoveryAdapter) Type() AdapterType {
	return AdapterTypePolling
}

// Start marks the adapter running
func (a *DiscoveryAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
	return nil
}

// Stop marks the adapter stopped
func (a *DiscoveryAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	return nil
}

// Sync discovers the kind on every selected device. Per-device failures are
// reported in the result; an error is returned only when nothing succeeded.
func (a *DiscoveryAdapter) Sync(ctx context.Context) (*SyncResult, error) {
	a.mu.Lock()
	running := a.running
	a.mu.Unlock()
	if !running {
		return nil, fmt.Errorf("adapter %s not running", a.kind)
	}

	results, err := a.discover(ctx, []domain.Kind{a.kind}, a.patterns...)
	res := &SyncResult{Results: results}
	if err == nil {
		return res, nil
	}
	if len(results) == 0 {
		return res, err
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			res.Errors = append(res.Errors, e.Error())
		}
	} else {
		res.Errors = append(res.Errors, err.Error())
	}
	return res, nil
}

// DiscoveryAdapters returns one adapter per kind with its configuration,
// copied from base. Kinds earlier in kinds get a higher priority.
func DiscoveryAdapters(kinds []domain.Kind, discover DiscoverFunc, base AdapterConfig) ([]Adapter, []AdapterConfig) {
	adapters := make([]Adapter, 0, len(kinds))
	configs := make([]AdapterConfig, 0, len(kinds))
	for i, k := range kinds {
		cfg := base
		cfg.Priority = 100 - 10*i
		adapters = append(adapters, NewDiscoveryAdapter(k, discover))
		configs = append(configs, cfg)
	}
	return adapters, configs
}
