package domain

import (
	"time"

	"github.com/google/uuid"
)

// Node represents a discovered entity in the graph
type Node struct {
	ID         string         `json:"id"`
	DeviceIP   string         `json:"device_ip"`
	Kind       Kind           `json:"kind"`
	Key        string         `json:"key"`
	Properties map[string]any `json:"properties,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewNode creates a node with a fresh identity attached to deviceIP
func NewNode(deviceIP string, kind Kind, key string) *Node {
	now := time.Now().UTC()
	return &Node{
		ID:         uuid.NewString(),
		DeviceIP:   deviceIP,
		Kind:       kind,
		Key:        key,
		Properties: make(map[string]any),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetProperty sets a property value
func (n *Node) SetProperty(key string, value any) {
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	n.Properties[key] = value
}

// GetProperty gets a property value
func (n *Node) GetProperty(key string) (any, bool) {
	if n.Properties == nil {
		return nil, false
	}
	val, ok := n.Properties[key]
	return val, ok
}

// GetPropertyString gets a property as string
func (n *Node) GetPropertyString(key string) string {
	if val, ok := n.GetProperty(key); ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}
