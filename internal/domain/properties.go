package domain

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// EncodeProperties flattens an entity into the property map stored on its
// node. Values take their JSON form (numbers become float64) so a map read
// back from the store compares equal to a freshly encoded one.
func EncodeProperties(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	props := make(map[string]any)
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to encode properties: %w", err)
	}
	return props, nil
}

// DecodeProperties fills out from a node property map
func DecodeProperties(props map[string]any, out any) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode properties: %w", err)
	}
	return nil
}

// PropertiesEqual reports whether two property maps hold the same values.
// A nil map equals an empty one.
func PropertiesEqual(a, b map[string]any) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// DecodeNode decodes a node's properties into a typed entity
func DecodeNode[E Entity](n *Node) (E, error) {
	var e E
	if err := DecodeProperties(n.Properties, &e); err != nil {
		return e, fmt.Errorf("node %s (%s %s): %w", n.ID, n.Kind, n.Key, err)
	}
	return e, nil
}
