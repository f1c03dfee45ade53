// Package reconcile keeps the graph store in step with device state.
//
// An Engine runs one resource kind through three stages: fetch raw state
// from a device, map it into entries, and reconcile the entries into the
// store. The Reconciler owns the last stage. It creates or updates one node
// per natural key, links memberships to the interface nodes that exist, and
// deletes whatever the device no longer reports. Each pass is a single
// transaction under a per-(device, kind) lock.
//
// The Runner fans discovery out across devices and the Dispatcher wraps
// configuration changes so that every change is followed by a resync.
package reconcile
