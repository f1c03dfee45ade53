// Package adapter schedules discovery.
//
// Each adapter wraps one source of discovery work, in practice one resource
// kind synced across every registered device. The Registry starts enabled
// adapters, runs a first pass of all of them in priority order so that
// interfaces exist before the kinds linking to them, and then polls each
// adapter on its own interval.
//
// Adapters can also be triggered on demand by name, which is how the HTTP
// API starts a discovery pass outside the schedule.
package adapter
