package adapter

import (
	"context"
	"time"

	"switchgraph/internal/reconcile"
)

// AdapterType defines how an adapter is driven
type AdapterType string

const (
	// AdapterTypePolling - adapter syncs on a schedule
	AdapterTypePolling AdapterType = "polling"
	// AdapterTypeOneShot - manual trigger only
	AdapterTypeOneShot AdapterType = "oneshot"
)

// AdapterConfig holds configuration for an adapter instance
type AdapterConfig struct {
	Enabled bool `json:"enabled"`
	// Priority orders the first pass and TriggerSyncAll (higher runs first)
	Priority     int           `json:"priority"`
	PollInterval time.Duration `json:"poll_interval,omitempty"`
}

// SyncResult is the outcome of one adapter sync
type SyncResult struct {
	Results []reconcile.Result `json:"results"`
	// Errors encountered during sync (non-fatal)
	Errors []string `json:"errors,omitempty"`
}

// Changed counts the results that modified the store
func (r *SyncResult) Changed() int {
	var n int
	for _, res := range r.Results {
		if res.Changed() {
			n++
		}
	}
	return n
}

// Adapter defines the interface for discovery sources
type Adapter interface {
	// Name returns the unique identifier for this adapter
	Name() string

	// Type returns how this adapter is driven
	Type() AdapterType

	// Start initializes the adapter (called once on startup)
	Start(ctx context.Context) error

	// Stop shuts down the adapter
	Stop() error

	// Sync performs one discovery pass
	Sync(ctx context.Context) (*SyncResult, error)
}
