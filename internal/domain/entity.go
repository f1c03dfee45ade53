package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// VLAN autostate values. A VLAN whose autostate is not reported is
// AutostateDisable.
const (
	AutostateEnable  = "enable"
	AutostateDisable = "disable"
)

// Vlan is a VLAN configured on a device, keyed by name
type Vlan struct {
	VlanID       int    `json:"vlanid"`
	Name         string `json:"name"`
	IPAddress    string `json:"ip_address,omitempty"`
	SAGIPAddress string `json:"sag_ip_address,omitempty"`
	Autostate    string `json:"autostate,omitempty"`
	MTU          int    `json:"mtu,omitempty"`
	AdminStatus  string `json:"admin_status,omitempty"`
	OperStatus   string `json:"oper_status,omitempty"`
}

// VLANName returns the device name of the VLAN with the given id, e.g. "Vlan10"
func VLANName(id int) string {
	return "Vlan" + strconv.Itoa(id)
}

// VLANID parses the id out of a VLAN name such as "Vlan10"
func VLANID(name string) (int, error) {
	digits, ok := strings.CutPrefix(name, "Vlan")
	if !ok {
		return 0, fmt.Errorf("vlan name %q does not start with Vlan", name)
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id < 1 || id > 4094 {
		return 0, fmt.Errorf("vlan name %q has no valid id", name)
	}
	return id, nil
}

// PortGroup is a group of front-panel ports sharing one speed setting
type PortGroup struct {
	ID           string   `json:"port_group_id"`
	Speed        string   `json:"speed,omitempty"`
	ValidSpeeds  []string `json:"valid_speeds,omitempty"`
	DefaultSpeed string   `json:"default_speed,omitempty"`
}

// STPPort is the spanning-tree configuration of one interface. Optional
// settings the device does not report stay nil.
type STPPort struct {
	IfName                string `json:"if_name"`
	EdgePort              string `json:"edge_port,omitempty"`
	LinkType              string `json:"link_type,omitempty"`
	Guard                 string `json:"guard,omitempty"`
	BPDUFilter            *bool  `json:"bpdu_filter,omitempty"`
	BPDUGuard             *bool  `json:"bpdu_guard,omitempty"`
	BPDUGuardPortShutdown *bool  `json:"bpdu_guard_port_shutdown,omitempty"`
	Portfast              *bool  `json:"portfast,omitempty"`
	UplinkFast            *bool  `json:"uplink_fast,omitempty"`
	Cost                  *int   `json:"cost,omitempty"`
	PortPriority          *int   `json:"port_priority,omitempty"`
	STPEnabled            *bool  `json:"stp_enabled,omitempty"`
}

// Interface is a device interface. It is the target of every membership.
type Interface struct {
	Name        string `json:"name"`
	Enabled     *bool  `json:"enabled,omitempty"`
	MTU         int    `json:"mtu,omitempty"`
	Description string `json:"description,omitempty"`
	AdminStatus string `json:"admin_status,omitempty"`
	OperStatus  string `json:"oper_status,omitempty"`
	Speed       string `json:"speed,omitempty"`
}

// Entity is implemented by every resource entity type
type Entity interface {
	Vlan | PortGroup | STPPort | Interface
}

// Member is one membership declared by an entity: the target interface name
// plus relationship-scoped attributes.
type Member struct {
	Interface  string         `json:"interface"`
	Properties map[string]any `json:"properties,omitempty"`
}

// MemberTaggingMode is the edge property holding a VLAN member's tagging mode
const MemberTaggingMode = "tagging_mode"

// DefaultTaggingMode applies to members whose tagging mode is not reported
const DefaultTaggingMode = TaggingModeTagged

// VLANMember builds a VLAN membership with its tagging mode
func VLANMember(ifName string, mode TaggingMode) Member {
	return Member{
		Interface:  ifName,
		Properties: map[string]any{MemberTaggingMode: mode.String()},
	}
}

// PortGroupMember builds a port-group membership, which carries no attributes
func PortGroupMember(ifName string) Member {
	return Member{Interface: ifName}
}

// Entry is one mapped entity with its natural key and memberships
type Entry[E Entity] struct {
	Key     string
	Entity  E
	Members []Member
}

// TaggingModeOf returns the tagging mode stored on a VLAN membership edge.
// An edge without one is DefaultTaggingMode.
func TaggingModeOf(e Edge) (TaggingMode, error) {
	raw, ok := e.GetProperty(MemberTaggingMode)
	if !ok || raw == nil {
		return DefaultTaggingMode, nil
	}
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("edge %s: %s is %T", e.ID, MemberTaggingMode, raw)
	}
	return ParseTaggingMode(s)
}
