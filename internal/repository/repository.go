package repository

import (
	"context"
	"time"

	"switchgraph/internal/domain"
)

// DeviceRegistry resolves managed devices. A missing device is (nil, nil).
type DeviceRegistry interface {
	GetDevice(ctx context.Context, mgtIP string) (*domain.Device, error)
	ListDevices(ctx context.Context) ([]domain.Device, error)
}

// DeviceStore maintains the device registry
type DeviceStore interface {
	DeviceRegistry
	UpsertDevice(ctx context.Context, device *domain.Device) error
	DeleteDevice(ctx context.Context, mgtIP string) error

	// SyncDevices makes the registry equal to devices: listed devices are
	// upserted, unlisted ones deleted along with everything they own.
	SyncDevices(ctx context.Context, devices []domain.Device) (SyncSummary, error)
}

// SyncSummary reports what a device sync changed
type SyncSummary struct {
	Added   []string `json:"added,omitempty"`
	Updated []string `json:"updated,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// GraphReader reads entity nodes and membership edges. Lookups of missing
// nodes return (nil, nil).
type GraphReader interface {
	GetNode(ctx context.Context, id string) (*domain.Node, error)
	GetNodeByKey(ctx context.Context, deviceIP string, kind domain.Kind, key string) (*domain.Node, error)
	ListNodes(ctx context.Context, deviceIP string, kind domain.Kind) ([]domain.Node, error)
	ListEdgesFrom(ctx context.Context, fromID string, edgeType domain.EdgeType) ([]domain.Edge, error)
}

// GraphWriter mutates entity nodes and membership edges
type GraphWriter interface {
	CreateNode(ctx context.Context, node *domain.Node) error
	UpdateNodeProperties(ctx context.Context, id string, props map[string]any, updatedAt time.Time) error
	DeleteNode(ctx context.Context, id string) error
	UpsertEdge(ctx context.Context, edge *domain.Edge) (bool, error)
	DeleteEdge(ctx context.Context, id string) error
}

// GraphTx is the view of the store inside one transaction
type GraphTx interface {
	DeviceRegistry
	GraphReader
	GraphWriter
}

// GraphStore is the graph store consumed by the reconciler
type GraphStore interface {
	DeviceRegistry
	GraphReader

	// InTx runs fn in a single transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx GraphTx) error) error
}

// Store is everything the sqlite implementation offers
type Store interface {
	GraphStore
	DeviceStore
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats counts stored rows
type Stats struct {
	Devices int                 `json:"devices"`
	Nodes   map[domain.Kind]int `json:"nodes"`
	Edges   int                 `json:"edges"`
}
