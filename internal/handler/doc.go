// Package handler implements the switchgraph HTTP API.
//
// # Routes
//
// Reads serve the stored graph: the device registry, the entities of one
// kind on a device, and one entity by key. VLANs and port-groups carry their
// members in both forms. Kinds appear in URLs as interfaces, vlans,
// port-groups and stp-ports.
//
// Writes push configuration to a device. Every write re-discovers the
// affected kind before responding, so a following read reflects the device.
//
// POST /api/discover runs discovery on demand, optionally limited to one
// kind and to devices matching a glob pattern. GET /api/export writes the
// stored graph as json, yaml or ansible-inventory.
//
// # Errors
//
// Errors are returned as JSON {error, details}. Unknown devices and entities
// map to 404, invalid input to 400 and device failures to 502.
package handler
