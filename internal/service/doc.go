// Package service implements the operations switchgraph exposes to its
// command line and HTTP API.
//
// Service wires one reconciliation engine per resource kind (interfaces,
// VLANs, port-groups and STP ports) over a device transport and the graph
// store, and offers per kind:
//
// - Discovery for one device or for every registered device
// - Typed reads of the stored entities and their memberships
// - Configuration changes, each followed by a resync of the affected kind
//
// # Event System
//
// Every discovery pass, configuration change and device sync is published on
// the EventBus. The hub streams these events to HTTP clients via Server-Sent
// Events (SSE).
package service
