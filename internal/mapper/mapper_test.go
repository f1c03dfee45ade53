package mapper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

// rawJSON decodes a JSON literal the way the transport does
func rawJSON(t *testing.T, s string) transport.Raw {
	t.Helper()
	var raw transport.Raw
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestStripModulePrefixes(t *testing.T) {
	in := map[string]any{
		"sonic-vlan:VLAN_LIST": []any{
			map[string]any{"name": "Vlan1", "openconfig-spanning-tree-ext:cost": 10.0},
		},
		"plain": "openconfig-if-ethernet:SPEED_25GB",
	}

	out := StripModulePrefixes(in).(map[string]any)

	assert.Contains(t, out, "VLAN_LIST")
	row := out["VLAN_LIST"].([]any)[0].(map[string]any)
	assert.Equal(t, 10.0, row["cost"])
	assert.Equal(t, "openconfig-if-ethernet:SPEED_25GB", out["plain"], "values keep their prefixes")
	assert.Contains(t, in, "sonic-vlan:VLAN_LIST", "input is not modified")
}

func TestExpandRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    []string
		wantErr bool
	}{
		{name: "ascending", start: "Ethernet0", end: "Ethernet3", want: []string{"Ethernet0", "Ethernet1", "Ethernet2", "Ethernet3"}},
		{name: "single", start: "Ethernet8", end: "Ethernet8", want: []string{"Ethernet8"}},
		{name: "slashed names", start: "Eth1/1", end: "Eth1/3", want: []string{"Eth1/1", "Eth1/2", "Eth1/3"}},
		{name: "mismatched prefix", start: "Ethernet0", end: "PortChannel3", wantErr: true},
		{name: "descending", start: "Ethernet3", end: "Ethernet0", wantErr: true},
		{name: "no suffix", start: "Ethernet", end: "Ethernet3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandRange(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapVLANsJoin(t *testing.T) {
	details := rawJSON(t, `{
		"sonic-vlan:VLAN_LIST": [{"name": "Vlan10", "vlanid": 10}],
		"sonic-vlan:VLAN_TABLE_LIST": [
			{"name": "Vlan10", "mtu": 9100, "admin_status": "up", "oper_status": "up"},
			{"name": "Vlan99", "mtu": 1500}
		],
		"sonic-vlan:VLAN_MEMBER_LIST": [
			{"name": "Vlan10", "ifname": "Ethernet0", "tagging_mode": "tagged"},
			{"name": "Vlan99", "ifname": "Ethernet4", "tagging_mode": "untagged"}
		]
	}`)

	entries, err := MapVLANs(VLANRaw{Details: details})
	require.NoError(t, err)
	require.Len(t, entries, 1, "secondary rows without a primary entry are dropped")

	e := entries[0]
	assert.Equal(t, "Vlan10", e.Key)
	assert.Equal(t, domain.Vlan{
		VlanID:      10,
		Name:        "Vlan10",
		Autostate:   domain.AutostateDisable,
		MTU:         9100,
		AdminStatus: "up",
		OperStatus:  "up",
	}, e.Entity)
	assert.Equal(t, []domain.Member{domain.VLANMember("Ethernet0", domain.TaggingModeTagged)}, e.Members)
}

func TestMapVLANsPrimaryWithoutTableRow(t *testing.T) {
	details := rawJSON(t, `{"sonic-vlan:VLAN_LIST": [{"name": "Vlan20", "vlanid": 20, "autostate": "enable"}]}`)

	entries, err := MapVLANs(VLANRaw{Details: details})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	v := entries[0].Entity
	assert.Equal(t, 0, v.MTU)
	assert.Empty(t, v.AdminStatus)
	assert.Empty(t, v.OperStatus)
	assert.Equal(t, domain.AutostateEnable, v.Autostate)
	assert.Empty(t, entries[0].Members)
}

func TestMapVLANsAddresses(t *testing.T) {
	details := rawJSON(t, `{"sonic-vlan:VLAN_LIST": [{"name": "Vlan10", "vlanid": 10}, {"name": "Vlan30", "vlanid": 30}]}`)
	ipv4 := map[string]transport.Raw{
		"Vlan10": rawJSON(t, `{"openconfig-if-ip:ipv4": {
			"addresses": {"address": [
				{"ip": "10.1.1.1", "config": {"ip": "10.1.1.1"}},
				{"ip": "10.1.2.1", "config": {"ip": "10.1.2.1", "prefix-length": 24}},
				{"ip": "10.1.3.1", "config": {"ip": "10.1.3.1", "prefix-length": 16}}
			]},
			"openconfig-interfaces-ext:sag-ipv4": {"config": {"static-anycast-gateway": ["10.1.2.254/24", "10.1.9.254/24"]}}
		}}`),
	}

	entries, err := MapVLANs(VLANRaw{Details: details, IPv4: ipv4})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "10.1.2.1/24", entries[0].Entity.IPAddress, "first address with both ip and prefix wins")
	assert.Equal(t, "10.1.2.254/24", entries[0].Entity.SAGIPAddress)
	assert.Empty(t, entries[1].Entity.IPAddress)
	assert.Empty(t, entries[1].Entity.SAGIPAddress)
}

func TestMapVLANsErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "list is not a list", raw: `{"sonic-vlan:VLAN_LIST": "Vlan10"}`},
		{name: "vlanid is not a number", raw: `{"sonic-vlan:VLAN_LIST": [{"name": "Vlan10", "vlanid": "ten"}]}`},
		{name: "missing name", raw: `{"sonic-vlan:VLAN_LIST": [{"vlanid": 10}]}`},
		{name: "duplicate vlan", raw: `{"sonic-vlan:VLAN_LIST": [{"name": "Vlan10"}, {"name": "Vlan10"}]}`},
		{name: "unknown tagging mode", raw: `{
			"sonic-vlan:VLAN_LIST": [{"name": "Vlan10"}],
			"sonic-vlan:VLAN_MEMBER_LIST": [{"name": "Vlan10", "ifname": "Ethernet0", "tagging_mode": "trunk"}]
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapVLANs(VLANRaw{Details: rawJSON(t, tt.raw)})
			require.Error(t, err)
			assert.ErrorIs(t, err, serrors.ErrMapping)
		})
	}
}

func TestMapVLANsMemberWithoutTaggingMode(t *testing.T) {
	raw := rawJSON(t, `{
		"sonic-vlan:VLAN_LIST": [{"name": "Vlan10", "vlanid": 10}, {"name": "Vlan20", "vlanid": 20}],
		"sonic-vlan:VLAN_MEMBER_LIST": [
			{"name": "Vlan10", "ifname": "Ethernet0"},
			{"name": "Vlan20", "ifname": "Ethernet4", "tagging_mode": "untagged"}
		]
	}`)

	entries, err := MapVLANs(VLANRaw{Details: raw})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []domain.Member{domain.VLANMember("Ethernet0", domain.TaggingModeTagged)}, entries[0].Members)
	assert.Equal(t, []domain.Member{domain.VLANMember("Ethernet4", domain.TaggingModeUntagged)}, entries[1].Members)
}

func TestMapVLANsEmpty(t *testing.T) {
	entries, err := MapVLANs(VLANRaw{Details: transport.Raw{}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestVLANNames(t *testing.T) {
	names, err := VLANNames(rawJSON(t, `{"sonic-vlan:VLAN_LIST": [{"name": "Vlan10"}, {"name": "Vlan20"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Vlan10", "Vlan20"}, names)
}

func TestMapPortGroups(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-port-group:port-group": [
		{"id": "1", "state": {
			"id": "1",
			"speed": "openconfig-if-ethernet:SPEED_25GB",
			"valid-speeds": ["openconfig-if-ethernet:SPEED_10GB", "openconfig-if-ethernet:SPEED_25GB"],
			"default-speed": "openconfig-if-ethernet:SPEED_25GB",
			"member-if-start": "Ethernet0",
			"member-if-end": "Ethernet3"
		}},
		{"id": "2", "state": {"id": "2", "speed": "openconfig-if-ethernet:SPEED_10GB", "member-if-start": "Ethernet4"}}
	]}`)

	entries, err := MapPortGroups(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	pg := entries[0]
	assert.Equal(t, "1", pg.Key)
	assert.Equal(t, domain.PortGroup{
		ID:           "1",
		Speed:        "SPEED_25GB",
		ValidSpeeds:  []string{"SPEED_10GB", "SPEED_25GB"},
		DefaultSpeed: "SPEED_25GB",
	}, pg.Entity)
	assert.Equal(t, []domain.Member{
		{Interface: "Ethernet0"}, {Interface: "Ethernet1"}, {Interface: "Ethernet2"}, {Interface: "Ethernet3"},
	}, pg.Members)

	assert.Empty(t, entries[1].Members, "a group with one bound has no members")
}

func TestMapPortGroupsBadRange(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-port-group:port-group": [
		{"id": "1", "state": {"id": "1", "member-if-start": "Ethernet3", "member-if-end": "Ethernet0"}}
	]}`)

	_, err := MapPortGroups(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, serrors.ErrMapping)

	syncErr, ok := serrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "1", syncErr.Key)
}

func TestMapSTPPorts(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-spanning-tree:interface": [
		{"name": "Ethernet0", "config": {
			"name": "Ethernet0",
			"edge-port": "openconfig-spanning-tree-types:EDGE_ENABLE",
			"link-type": "P2P",
			"guard": "ROOT",
			"bpdu-guard": true,
			"openconfig-spanning-tree-ext:bpdu-guard-port-shutdown": false,
			"openconfig-spanning-tree-ext:portfast": true,
			"openconfig-spanning-tree-ext:cost": 200,
			"openconfig-spanning-tree-ext:port-priority": 128,
			"openconfig-spanning-tree-ext:spanning-tree-enable": true
		}},
		{"name": "Ethernet4", "config": {"name": "Ethernet4"}}
	]}`)

	entries, err := MapSTPPorts(raw)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	p := entries[0].Entity
	assert.Equal(t, "Ethernet0", p.IfName)
	assert.Equal(t, "EDGE_ENABLE", p.EdgePort)
	assert.Equal(t, "P2P", p.LinkType)
	assert.Equal(t, "ROOT", p.Guard)
	require.NotNil(t, p.BPDUGuard)
	assert.True(t, *p.BPDUGuard)
	require.NotNil(t, p.BPDUGuardPortShutdown)
	assert.False(t, *p.BPDUGuardPortShutdown)
	require.NotNil(t, p.Cost)
	assert.Equal(t, 200, *p.Cost)
	require.NotNil(t, p.PortPriority)
	assert.Equal(t, 128, *p.PortPriority)
	assert.Nil(t, p.BPDUFilter, "unreported settings stay absent")
	assert.Nil(t, p.UplinkFast)
	assert.Empty(t, entries[0].Members)

	assert.Equal(t, domain.STPPort{IfName: "Ethernet4"}, entries[1].Entity)
}

func TestMapSTPPortsWrongType(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-spanning-tree:interface": [{"name": "Ethernet0", "config": {"bpdu-guard": "yes"}}]}`)
	_, err := MapSTPPorts(raw)
	assert.ErrorIs(t, err, serrors.ErrMapping)
}

func TestMapInterfaces(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-interfaces:interface": [
		{"name": "Ethernet0",
		 "config": {"enabled": true, "mtu": 9100, "description": "uplink"},
		 "state": {"admin-status": "UP", "oper-status": "DOWN", "mtu": 9000},
		 "openconfig-if-ethernet:ethernet": {"config": {"port-speed": "openconfig-if-ethernet:SPEED_25GB"}}}
	]}`)

	entries, err := MapInterfaces(raw)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	iface := entries[0].Entity
	assert.Equal(t, "Ethernet0", iface.Name)
	assert.Equal(t, 9000, iface.MTU, "state wins over config")
	assert.Equal(t, "uplink", iface.Description)
	assert.Equal(t, "UP", iface.AdminStatus)
	assert.Equal(t, "DOWN", iface.OperStatus)
	assert.Equal(t, "SPEED_25GB", iface.Speed)
	require.NotNil(t, iface.Enabled)
	assert.True(t, *iface.Enabled)
}

func TestMappersArePure(t *testing.T) {
	raw := rawJSON(t, `{"openconfig-port-group:port-group": [
		{"id": "1", "state": {"id": "1", "member-if-start": "Ethernet0", "member-if-end": "Ethernet1"}}
	]}`)

	first, err := MapPortGroups(raw)
	require.NoError(t, err)
	second, err := MapPortGroups(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
