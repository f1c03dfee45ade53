package domain

import (
	"crypto/sha256"
	"fmt"
)

// EdgeType represents the type of membership relationship
type EdgeType string

const (
	EdgeTypeVLANMember      EdgeType = "vlan_member"
	EdgeTypePortGroupMember EdgeType = "port_group_member"
)

// Edge is a directed relationship from an entity node to an interface node
type Edge struct {
	ID         string         `json:"id"`
	FromID     string         `json:"from_id"`
	ToID       string         `json:"to_id"`
	Type       EdgeType       `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// NewEdge creates a new edge
func NewEdge(fromID, toID string, edgeType EdgeType) *Edge {
	edge := &Edge{
		FromID:     fromID,
		ToID:       toID,
		Type:       edgeType,
		Properties: make(map[string]any),
	}
	edge.ID = edge.GenerateID()
	return edge
}

// GenerateID creates a deterministic ID for the edge. Membership edges are
// directed, so endpoints are not normalized.
func (e *Edge) GenerateID() string {
	key := fmt.Sprintf("%s-%s-%s", e.FromID, e.ToID, e.Type)
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", hash[:8])
}

// SetProperty sets a property value
func (e *Edge) SetProperty(key string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
}

// GetProperty gets a property value
func (e *Edge) GetProperty(key string) (any, bool) {
	if e.Properties == nil {
		return nil, false
	}
	val, ok := e.Properties[key]
	return val, ok
}
