package codec

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"switchgraph/internal/config"
	"switchgraph/internal/domain"
)

func entityNode(t *testing.T, id, deviceIP string, kind domain.Kind, key string, entity any) domain.Node {
	t.Helper()
	props, err := domain.EncodeProperties(entity)
	require.NoError(t, err)
	return domain.Node{ID: id, DeviceIP: deviceIP, Kind: kind, Key: key, Properties: props}
}

func memberEdge(from, to string, edgeType domain.EdgeType, mode domain.TaggingMode) domain.Edge {
	e := domain.NewEdge(from, to, edgeType)
	if edgeType == domain.EdgeTypeVLANMember {
		e.SetProperty(domain.MemberTaggingMode, mode.String())
	}
	return *e
}

func sampleFragment(t *testing.T) *domain.GraphFragment {
	t.Helper()
	const ip = "10.0.0.1"
	edge := true
	f := domain.NewGraphFragment()
	f.AddDevice(domain.Device{MgtIP: ip, Name: "leaf1", Platform: "sonic"})
	f.AddDevice(domain.Device{MgtIP: "10.0.0.2"})

	f.AddNode(entityNode(t, "if0", ip, domain.KindInterface, "Ethernet0", domain.Interface{Name: "Ethernet0"}))
	f.AddNode(entityNode(t, "if4", ip, domain.KindInterface, "Ethernet4", domain.Interface{Name: "Ethernet4"}))
	f.AddNode(entityNode(t, "v10", ip, domain.KindVLAN, "Vlan10", domain.Vlan{VlanID: 10, Name: "Vlan10", MTU: 9100}))
	f.AddNode(entityNode(t, "v20", ip, domain.KindVLAN, "Vlan20", domain.Vlan{VlanID: 20, Name: "Vlan20"}))
	f.AddNode(entityNode(t, "pg1", ip, domain.KindPortGroup, "1", domain.PortGroup{ID: "1", Speed: "SPEED_10GB"}))
	f.AddNode(entityNode(t, "stp0", ip, domain.KindSTPPort, "Ethernet0", domain.STPPort{
		IfName: "Ethernet0", EdgePort: "EDGE_ENABLE", BPDUGuard: &edge,
	}))

	f.AddEdge(memberEdge("v10", "if0", domain.EdgeTypeVLANMember, domain.TaggingModeTagged))
	f.AddEdge(memberEdge("v20", "if0", domain.EdgeTypeVLANMember, domain.TaggingModeTagged))
	f.AddEdge(memberEdge("v20", "if4", domain.EdgeTypeVLANMember, domain.TaggingModeUntagged))
	f.AddEdge(memberEdge("pg1", "if0", domain.EdgeTypePortGroupMember, 0))
	return f
}

func TestExporterFor(t *testing.T) {
	assert.Equal(t, []string{"ansible-inventory", "json", "yaml"}, Formats())

	e, err := ExporterFor("yaml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", e.Format())

	_, err = ExporterFor("csv")
	assert.Error(t, err)
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONCodec().Export(sampleFragment(t), &buf))

	var got domain.GraphFragment
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Devices, 2)
	assert.Len(t, got.Nodes, 6)
	assert.Len(t, got.Edges, 4)
}

func TestYAMLExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLCodec().Export(sampleFragment(t), &buf))

	var got yamlFragment
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, yamlDevice{MgtIP: "10.0.0.1", Name: "leaf1", Platform: "sonic"}, got.Devices[0])
	require.Len(t, got.Nodes, 6)
	assert.Equal(t, "vlan", got.Nodes[2].Kind)
	assert.Equal(t, "Vlan10", got.Nodes[2].Key)
	require.Len(t, got.Edges, 4)
	assert.Equal(t, "tagged", got.Edges[0].Properties["tagging_mode"])
}

func TestAnsibleExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewAnsibleCodec().Export(sampleFragment(t), &buf))

	var inv map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &inv))

	host := dig(t, inv, "all", "children", "sonic", "hosts", "leaf1")
	assert.Equal(t, "10.0.0.1", host["ansible_host"])
	assert.Equal(t, []any{
		map[string]any{"vlan_id": 10, "mtu": 9100},
		map[string]any{"vlan_id": 20},
	}, host["sonic_vlans"])
	assert.Equal(t, []any{
		map[string]any{"name": "Ethernet0", "trunk": map[string]any{
			"allowed_vlans": []any{map[string]any{"vlan": 10}, map[string]any{"vlan": 20}},
		}},
		map[string]any{"name": "Ethernet4", "access": map[string]any{"vlan": 20}},
	}, host["sonic_l2_interfaces"])
	assert.Equal(t, []any{map[string]any{"id": "1", "speed": "SPEED_10GB"}}, host["sonic_port_groups"])
	assert.Equal(t, []any{
		map[string]any{"intf_name": "Ethernet0", "edge_port": true, "bpdu_guard": true},
	}, host["sonic_stp_interfaces"])

	bare := dig(t, inv, "all", "children", defaultGroup, "hosts", "10.0.0.2")
	assert.Equal(t, map[string]any{"ansible_host": "10.0.0.2"}, bare)
}

func dig(t *testing.T, m map[string]any, path ...string) map[string]any {
	t.Helper()
	for _, p := range path {
		next, ok := m[p].(map[string]any)
		require.True(t, ok, "missing %s", p)
		m = next
	}
	return m
}

func TestAnsibleParse(t *testing.T) {
	inventory := `
all:
  hosts:
    10.0.0.9: {}
  children:
    sonic:
      vars:
        ansible_network_os: dellemc.enterprise_sonic.sonic
        ansible_user: admin
      hosts:
        leaf1:
          ansible_host: 10.0.0.1
        leaf2:
          ansible_host: 10.0.0.2
          ansible_httpapi_port: 8443
    spines:
      children:
        dc1:
          hosts:
            spine1:
              ansible_host: 10.0.1.1
            nameless: {}
`
	devices, err := NewAnsibleCodec().Parse(strings.NewReader(inventory))
	require.NoError(t, err)
	assert.Equal(t, []config.DeviceConfig{
		{MgtIP: "10.0.0.1", Name: "leaf1", Platform: "dellemc.enterprise_sonic.sonic", Username: "admin"},
		{MgtIP: "10.0.0.2", Name: "leaf2", Platform: "dellemc.enterprise_sonic.sonic", Username: "admin", Port: 8443},
		{MgtIP: "10.0.0.9"},
		{MgtIP: "10.0.1.1", Name: "spine1"},
	}, devices)
}

func TestAnsibleParseInvalid(t *testing.T) {
	_, err := NewAnsibleCodec().Parse(strings.NewReader("all: ["))
	assert.Error(t, err)
}
