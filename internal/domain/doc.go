// Package domain defines the core domain types for the switchgraph state
// reconciliation system.
//
// This package contains the entities discovered from network switches and the
// graph primitives they are stored as.
//
// # Core Types
//
// Device is a managed switch, identified by its management IP.
//
// Vlan, PortGroup, STPPort and Interface are device-scoped resource entities.
// Each one has a natural key that is unique within its device and kind.
//
// Entry pairs a mapped entity with its natural key and the memberships it
// declares toward interfaces of the same device.
//
// # Graph Representation
//
// Node is the stored form of an entity: a stable UUID, the owning device, the
// kind, the natural key and a flat property map. Entities convert to and from
// that map through EncodeProperties and DecodeProperties.
//
// Edge is a directed membership relationship from an entity node to an
// interface node. Edge IDs are deterministic so re-discovery never duplicates
// a relationship.
//
// # Enumerations
//
// TaggingMode, Speed and EdgePort are closed enumerations with explicit string
// tables. They implement encoding.TextMarshaler so they round-trip through
// JSON, YAML and the RESTCONF identity values used by the device.
package domain
