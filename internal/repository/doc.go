// Package repository defines the data access interfaces for switchgraph.
//
// This package provides the repository abstraction layer for persisting
// devices and the entity graph discovered from them. The actual
// implementation is in the sqlite subpackage.
//
// # Interfaces
//
// DeviceRegistry and DeviceStore cover the managed device inventory.
//
// GraphReader, GraphWriter and GraphTx cover entity nodes and membership
// edges. GraphStore adds InTx so a whole reconciliation pass commits or
// rolls back as one unit.
//
// # SQLite Implementation
//
// The sqlite implementation stores devices, nodes and edges with WAL mode
// and foreign keys enabled. It handles:
//
// - One node per (device, kind, key), enforced by a unique index
// - JSON serialization of entity and edge properties
// - Cascade deletes from devices to nodes and from nodes to edges
// - Deterministic edge IDs so repeated upserts never duplicate a membership
//
// # Testing
//
// The sqlite repository is tested with in-memory databases.
package repository
