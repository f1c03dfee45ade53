package domain

import (
	"testing"
)

func TestNewEdge(t *testing.T) {
	t.Run("creates edge with generated ID", func(t *testing.T) {
		edge := NewEdge("vlan1", "eth0", EdgeTypeVLANMember)

		if edge.FromID != "vlan1" {
			t.Errorf("expected FromID 'vlan1', got %s", edge.FromID)
		}
		if edge.ToID != "eth0" {
			t.Errorf("expected ToID 'eth0', got %s", edge.ToID)
		}
		if edge.Type != EdgeTypeVLANMember {
			t.Errorf("expected Type %s, got %s", EdgeTypeVLANMember, edge.Type)
		}
		if edge.ID == "" {
			t.Error("expected ID to be generated")
		}
		if edge.Properties == nil {
			t.Error("expected Properties to be initialized")
		}
	})
}

func TestEdgeGenerateID(t *testing.T) {
	t.Run("generates consistent ID", func(t *testing.T) {
		edge1 := NewEdge("vlan1", "eth0", EdgeTypeVLANMember)
		edge2 := NewEdge("vlan1", "eth0", EdgeTypeVLANMember)

		if edge1.ID != edge2.ID {
			t.Error("expected same endpoints to generate same ID")
		}
	})

	t.Run("direction is part of the ID", func(t *testing.T) {
		edge1 := NewEdge("vlan1", "eth0", EdgeTypeVLANMember)
		edge2 := NewEdge("eth0", "vlan1", EdgeTypeVLANMember)

		if edge1.ID == edge2.ID {
			t.Error("expected reversed endpoints to generate different IDs")
		}
	})

	t.Run("different edge types generate different IDs", func(t *testing.T) {
		edge1 := NewEdge("pg1", "eth0", EdgeTypeVLANMember)
		edge2 := NewEdge("pg1", "eth0", EdgeTypePortGroupMember)

		if edge1.ID == edge2.ID {
			t.Error("expected different types to generate different IDs")
		}
	})
}

func TestNodeProperties(t *testing.T) {
	node := NewNode("10.0.0.1", KindVLAN, "Vlan10")

	if node.ID == "" {
		t.Fatal("expected ID to be generated")
	}
	if other := NewNode("10.0.0.1", KindVLAN, "Vlan10"); other.ID == node.ID {
		t.Error("expected each node to get a fresh ID")
	}

	node.SetProperty("name", "Vlan10")
	if got := node.GetPropertyString("name"); got != "Vlan10" {
		t.Errorf("expected name 'Vlan10', got %q", got)
	}
	if got := node.GetPropertyString("missing"); got != "" {
		t.Errorf("expected empty string for missing property, got %q", got)
	}
}
