package restconf

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

type request struct {
	method string
	path   string
	body   any
}

// buildRequests translates a mutation into the RESTCONF requests that apply it
func (c *Client) buildRequests(ctx context.Context, deviceIP string, m transport.Mutation) ([]request, error) {
	switch m := m.(type) {
	case transport.ConfigureVLAN:
		return configureVLANRequests(m), nil
	case transport.DeleteVLAN:
		return []request{{method: http.MethodDelete, path: keyed(pathVLANList, m.Name)}}, nil
	case transport.AddVLANMembers:
		return addVLANMemberRequests(m), nil
	case transport.RemoveVLANMember:
		return c.removeVLANMemberRequests(ctx, deviceIP, m)
	case transport.SetPortGroupSpeed:
		return []request{{
			method: http.MethodPatch,
			path:   keyed(pathPortGroups, m.ID) + "/config/speed",
			body:   map[string]any{"openconfig-port-group:speed": m.Speed.OCValue()},
		}}, nil
	case transport.ConfigureSTPPort:
		return []request{configureSTPPortRequest(m)}, nil
	case transport.DeleteSTPPort:
		return []request{{method: http.MethodDelete, path: keyed(pathSTPInterfaces, m.IfName)}}, nil
	}
	return nil, serrors.Invalid("apply", "unsupported mutation %T", m).WithDevice(deviceIP)
}

func configureVLANRequests(m transport.ConfigureVLAN) []request {
	name := m.VLANName()
	row := map[string]any{
		"name":   name,
		"vlanid": m.VlanID,
	}
	if m.MTU != 0 {
		row["mtu"] = m.MTU
	}
	if m.AdminStatus != "" {
		row["admin_status"] = m.AdminStatus
	}
	if m.Autostate != "" {
		row["autostate"] = m.Autostate
	}

	reqs := []request{{
		method: http.MethodPatch,
		path:   pathVLANList,
		body:   map[string]any{"sonic-vlan:VLAN_LIST": []any{row}},
	}}

	if m.IPAddress != "" {
		ip, prefix, _ := strings.Cut(m.IPAddress, "/")
		cfg := map[string]any{"ip": ip}
		if n, err := strconv.Atoi(prefix); err == nil {
			cfg["prefix-length"] = n
		}
		reqs = append(reqs, request{
			method: http.MethodPatch,
			path:   vlanIPv4Path(name) + "/addresses",
			body: map[string]any{
				"openconfig-if-ip:addresses": map[string]any{
					"address": []any{map[string]any{"ip": ip, "config": cfg}},
				},
			},
		})
	}

	if m.SAGIP != "" {
		reqs = append(reqs, request{
			method: http.MethodPatch,
			path:   vlanIPv4Path(name) + "/openconfig-interfaces-ext:sag-ipv4/config/static-anycast-gateway",
			body:   map[string]any{"openconfig-interfaces-ext:static-anycast-gateway": []string{m.SAGIP}},
		})
	}

	return reqs
}

func addVLANMemberRequests(m transport.AddVLANMembers) []request {
	name := transport.ConfigureVLAN{VlanID: m.VlanID}.VLANName()
	rows := make([]any, 0, len(m.Members))
	for _, mem := range m.Members {
		rows = append(rows, map[string]any{
			"name":         name,
			"ifname":       mem.Interface,
			"tagging_mode": mem.Mode.String(),
		})
	}
	return []request{{
		method: http.MethodPatch,
		path:   pathVLANMemberList,
		body:   map[string]any{"sonic-vlan:VLAN_MEMBER_LIST": rows},
	}}
}

// removeVLANMemberRequests deletes one member row, or every member row of
// the VLAN when no interface is named.
func (c *Client) removeVLANMemberRequests(ctx context.Context, deviceIP string, m transport.RemoveVLANMember) ([]request, error) {
	name := transport.ConfigureVLAN{VlanID: m.VlanID}.VLANName()
	if m.Interface != "" {
		return []request{{method: http.MethodDelete, path: keyed(pathVLANMemberList, name, m.Interface)}}, nil
	}

	raw, err := c.do(ctx, deviceIP, http.MethodGet, pathVLANMemberList, nil)
	if err != nil {
		return nil, err
	}
	rows, _ := raw["sonic-vlan:VLAN_MEMBER_LIST"].([]any)

	var reqs []request
	for _, r := range rows {
		row, ok := r.(map[string]any)
		if !ok || row["name"] != name {
			continue
		}
		ifName, _ := row["ifname"].(string)
		if ifName == "" {
			continue
		}
		reqs = append(reqs, request{method: http.MethodDelete, path: keyed(pathVLANMemberList, name, ifName)})
	}
	return reqs, nil
}

func configureSTPPortRequest(m transport.ConfigureSTPPort) request {
	cfg := map[string]any{"name": m.IfName}
	if m.EdgePort != 0 {
		cfg["edge-port"] = m.EdgePort.OCValue()
	}
	if m.LinkType != "" {
		cfg["link-type"] = m.LinkType
	}
	if m.Guard != "" {
		cfg["guard"] = m.Guard
	}
	setIf(cfg, "bpdu-filter", m.BPDUFilter)
	setIf(cfg, "bpdu-guard", m.BPDUGuard)
	setIf(cfg, "openconfig-spanning-tree-ext:bpdu-guard-port-shutdown", m.BPDUGuardPortShutdown)
	setIf(cfg, "openconfig-spanning-tree-ext:portfast", m.Portfast)
	setIf(cfg, "openconfig-spanning-tree-ext:uplink-fast", m.UplinkFast)
	setIf(cfg, "openconfig-spanning-tree-ext:cost", m.Cost)
	setIf(cfg, "openconfig-spanning-tree-ext:port-priority", m.PortPriority)
	setIf(cfg, "openconfig-spanning-tree-ext:spanning-tree-enable", m.STPEnabled)

	return request{
		method: http.MethodPatch,
		path:   pathSTPInterfaces,
		body: map[string]any{
			"openconfig-spanning-tree:interface": []any{
				map[string]any{"name": m.IfName, "config": cfg},
			},
		},
	}
}

func setIf[T any](cfg map[string]any, key string, v *T) {
	if v != nil {
		cfg[key] = *v
	}
}
