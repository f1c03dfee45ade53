package restconf

import (
	"fmt"
	"net/url"
	"strings"

	"switchgraph/internal/transport"
)

const (
	dataRoot = "/restconf/data/"

	pathVLANList       = "sonic-vlan:sonic-vlan/VLAN/VLAN_LIST"
	pathVLANTableList  = "sonic-vlan:sonic-vlan/VLAN_TABLE/VLAN_TABLE_LIST"
	pathVLANMemberList = "sonic-vlan:sonic-vlan/VLAN_MEMBER/VLAN_MEMBER_LIST"
	pathInterfaces     = "openconfig-interfaces:interfaces/interface"
	pathPortGroups     = "openconfig-port-group:port-groups/port-group"
	pathSTPInterfaces  = "openconfig-spanning-tree:stp/interfaces/interface"

	routedVLANIPv4 = "openconfig-vlan:routed-vlan/openconfig-if-ip:ipv4"
)

// keyed appends a list key selector: "list=key1,key2"
func keyed(path string, keys ...string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = url.PathEscape(k)
	}
	return path + "=" + strings.Join(escaped, ",")
}

// fetchPaths returns the data paths read for a resource. Resources backed
// by several tables return one path per table; the responses are merged.
func fetchPaths(res transport.Resource, key string) ([]string, error) {
	switch res {
	case transport.ResourceVLAN:
		if key == "" {
			return []string{pathVLANList, pathVLANTableList, pathVLANMemberList}, nil
		}
		// Member rows are keyed by (name, ifname); the list is read whole and
		// narrowed by the mapper.
		return []string{keyed(pathVLANList, key), keyed(pathVLANTableList, key), pathVLANMemberList}, nil
	case transport.ResourceVLANIP:
		if key == "" {
			return nil, fmt.Errorf("resource %s requires a vlan name", res)
		}
		return []string{vlanIPv4Path(key)}, nil
	case transport.ResourcePortGroup:
		return []string{withKey(pathPortGroups, key)}, nil
	case transport.ResourceSTPPort:
		return []string{withKey(pathSTPInterfaces, key)}, nil
	case transport.ResourceInterface:
		return []string{withKey(pathInterfaces, key)}, nil
	}
	return nil, fmt.Errorf("unknown resource %q", res)
}

func withKey(path, key string) string {
	if key == "" {
		return path
	}
	return keyed(path, key)
}

func vlanIPv4Path(vlanName string) string {
	return keyed(pathInterfaces, vlanName) + "/" + routedVLANIPv4
}
