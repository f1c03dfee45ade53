package codec

import (
	"fmt"
	"io"
	"net"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"switchgraph/internal/config"
	"switchgraph/internal/domain"
)

// defaultGroup holds exported devices without a platform
const defaultGroup = "switches"

// AnsibleCodec reads and writes Ansible inventories. Exported host vars use
// the resource layout of the enterprise SONiC collection (sonic_vlans,
// sonic_l2_interfaces, sonic_port_groups, sonic_stp_interfaces).
type AnsibleCodec struct{}

// NewAnsibleCodec creates a new Ansible codec
func NewAnsibleCodec() *AnsibleCodec {
	return &AnsibleCodec{}
}

// Format returns the codec format identifier
func (c *AnsibleCodec) Format() string {
	return "ansible-inventory"
}

// ansibleInventory represents the Ansible inventory structure
type ansibleInventory struct {
	All ansibleGroup `yaml:"all"`
}

type ansibleGroup struct {
	Children map[string]ansibleGroup `yaml:"children,omitempty"`
	Hosts    map[string]ansibleHost  `yaml:"hosts,omitempty"`
	Vars     map[string]any          `yaml:"vars,omitempty"`
}

type ansibleHost struct {
	AnsibleHost string         `yaml:"ansible_host,omitempty"`
	Vars        map[string]any `yaml:",inline"`
}

type sonicVLAN struct {
	VlanID int `yaml:"vlan_id"`
	MTU    int `yaml:"mtu,omitempty"`
}

type sonicL2Interface struct {
	Name   string       `yaml:"name"`
	Access *sonicAccess `yaml:"access,omitempty"`
	Trunk  *sonicTrunk  `yaml:"trunk,omitempty"`
}

type sonicAccess struct {
	VLAN int `yaml:"vlan"`
}

type sonicTrunk struct {
	AllowedVLANs []sonicAllowedVLAN `yaml:"allowed_vlans"`
}

type sonicAllowedVLAN struct {
	VLAN int `yaml:"vlan"`
}

type sonicPortGroup struct {
	ID    string `yaml:"id"`
	Speed string `yaml:"speed,omitempty"`
}

type sonicSTPInterface struct {
	IntfName     string `yaml:"intf_name"`
	EdgePort     bool   `yaml:"edge_port,omitempty"`
	LinkType     string `yaml:"link_type,omitempty"`
	Guard        string `yaml:"guard,omitempty"`
	BPDUGuard    bool   `yaml:"bpdu_guard,omitempty"`
	BPDUFilter   bool   `yaml:"bpdu_filter,omitempty"`
	Portfast     bool   `yaml:"portfast,omitempty"`
	UplinkFast   bool   `yaml:"uplink_fast,omitempty"`
	Cost         *int   `yaml:"cost,omitempty"`
	PortPriority *int   `yaml:"port_priority,omitempty"`
}

// Export writes one host per device, grouped by platform
func (c *AnsibleCodec) Export(fragment *domain.GraphFragment, w io.Writer) error {
	inv := ansibleInventory{
		All: ansibleGroup{Children: make(map[string]ansibleGroup)},
	}

	byDevice := make(map[string][]domain.Node)
	names := make(map[string]string)
	for _, n := range fragment.Nodes {
		byDevice[n.DeviceIP] = append(byDevice[n.DeviceIP], n)
		if n.Kind == domain.KindInterface {
			names[n.ID] = n.Key
		}
	}
	edgesFrom := make(map[string][]domain.Edge)
	for _, e := range fragment.Edges {
		edgesFrom[e.FromID] = append(edgesFrom[e.FromID], e)
	}

	for _, device := range fragment.Devices {
		vars, err := c.hostVars(byDevice[device.MgtIP], edgesFrom, names)
		if err != nil {
			return fmt.Errorf("device %s: %w", device.MgtIP, err)
		}

		group := device.Platform
		if group == "" {
			group = defaultGroup
		}
		g := inv.All.Children[group]
		if g.Hosts == nil {
			g.Hosts = make(map[string]ansibleHost)
		}
		g.Hosts[device.DisplayName()] = ansibleHost{AnsibleHost: device.MgtIP, Vars: vars}
		inv.All.Children[group] = g
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&inv); err != nil {
		return fmt.Errorf("failed to encode Ansible inventory: %w", err)
	}
	return nil
}

// hostVars renders the entities of one device. names maps interface node
// ids to interface names.
func (c *AnsibleCodec) hostVars(nodes []domain.Node, edgesFrom map[string][]domain.Edge, names map[string]string) (map[string]any, error) {
	var (
		vlans      []sonicVLAN
		portGroups []sonicPortGroup
		stp        []sonicSTPInterface
	)
	l2 := make(map[string]*sonicL2Interface)

	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case domain.KindVLAN:
			v, err := domain.DecodeNode[domain.Vlan](n)
			if err != nil {
				return nil, err
			}
			vlans = append(vlans, sonicVLAN{VlanID: v.VlanID, MTU: v.MTU})

			for _, e := range edgesFrom[n.ID] {
				ifName, ok := names[e.ToID]
				if !ok {
					continue
				}
				mode, err := domain.TaggingModeOf(e)
				if err != nil {
					return nil, err
				}
				entry := l2[ifName]
				if entry == nil {
					entry = &sonicL2Interface{Name: ifName}
					l2[ifName] = entry
				}
				if mode == domain.TaggingModeUntagged {
					entry.Access = &sonicAccess{VLAN: v.VlanID}
					continue
				}
				if entry.Trunk == nil {
					entry.Trunk = &sonicTrunk{}
				}
				entry.Trunk.AllowedVLANs = append(entry.Trunk.AllowedVLANs, sonicAllowedVLAN{VLAN: v.VlanID})
			}

		case domain.KindPortGroup:
			pg, err := domain.DecodeNode[domain.PortGroup](n)
			if err != nil {
				return nil, err
			}
			portGroups = append(portGroups, sonicPortGroup{ID: pg.ID, Speed: pg.Speed})

		case domain.KindSTPPort:
			p, err := domain.DecodeNode[domain.STPPort](n)
			if err != nil {
				return nil, err
			}
			stp = append(stp, sonicSTPInterface{
				IntfName:     p.IfName,
				EdgePort:     p.EdgePort == domain.EdgePortEnable.String(),
				LinkType:     p.LinkType,
				Guard:        p.Guard,
				BPDUGuard:    isSet(p.BPDUGuard),
				BPDUFilter:   isSet(p.BPDUFilter),
				Portfast:     isSet(p.Portfast),
				UplinkFast:   isSet(p.UplinkFast),
				Cost:         p.Cost,
				PortPriority: p.PortPriority,
			})
		}
	}

	vars := make(map[string]any)
	if len(vlans) > 0 {
		sort.Slice(vlans, func(i, j int) bool { return vlans[i].VlanID < vlans[j].VlanID })
		vars["sonic_vlans"] = vlans
	}
	if len(l2) > 0 {
		ifaces := make([]sonicL2Interface, 0, len(l2))
		for _, entry := range l2 {
			if entry.Trunk != nil {
				sort.Slice(entry.Trunk.AllowedVLANs, func(i, j int) bool {
					return entry.Trunk.AllowedVLANs[i].VLAN < entry.Trunk.AllowedVLANs[j].VLAN
				})
			}
			ifaces = append(ifaces, *entry)
		}
		sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })
		vars["sonic_l2_interfaces"] = ifaces
	}
	if len(portGroups) > 0 {
		sort.Slice(portGroups, func(i, j int) bool { return portGroups[i].ID < portGroups[j].ID })
		vars["sonic_port_groups"] = portGroups
	}
	if len(stp) > 0 {
		sort.Slice(stp, func(i, j int) bool { return stp[i].IntfName < stp[j].IntfName })
		vars["sonic_stp_interfaces"] = stp
	}
	return vars, nil
}

func isSet(b *bool) bool {
	return b != nil && *b
}

// Parse reads the hosts of an Ansible inventory as device inventory
// entries. The management IP comes from ansible_host, or from the host name
// when it is an address. Hosts with neither are skipped.
func (c *AnsibleCodec) Parse(r io.Reader) ([]config.DeviceConfig, error) {
	var inv ansibleInventory
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&inv); err != nil {
		return nil, fmt.Errorf("failed to parse Ansible inventory: %w", err)
	}

	seen := make(map[string]bool)
	var devices []config.DeviceConfig
	c.collect(inv.All, nil, seen, &devices)

	sort.Slice(devices, func(i, j int) bool { return devices[i].MgtIP < devices[j].MgtIP })
	return devices, nil
}

// collect walks group and its children. Group vars are inherited by hosts.
func (c *AnsibleCodec) collect(group ansibleGroup, inherited map[string]any, seen map[string]bool, out *[]config.DeviceConfig) {
	vars := make(map[string]any, len(inherited)+len(group.Vars))
	for k, v := range inherited {
		vars[k] = v
	}
	for k, v := range group.Vars {
		vars[k] = v
	}

	hostIDs := make([]string, 0, len(group.Hosts))
	for id := range group.Hosts {
		hostIDs = append(hostIDs, id)
	}
	sort.Strings(hostIDs)

	for _, id := range hostIDs {
		d, ok := c.hostToDevice(id, group.Hosts[id], vars)
		if !ok {
			log.Warn().Str("host", id).Msg("Skipping inventory host without an IP address")
			continue
		}
		if seen[d.MgtIP] {
			continue
		}
		seen[d.MgtIP] = true
		*out = append(*out, d)
	}

	children := make([]string, 0, len(group.Children))
	for name := range group.Children {
		children = append(children, name)
	}
	sort.Strings(children)
	for _, name := range children {
		c.collect(group.Children[name], vars, seen, out)
	}
}

// hostToDevice converts an Ansible host to an inventory entry
func (c *AnsibleCodec) hostToDevice(hostID string, host ansibleHost, groupVars map[string]any) (config.DeviceConfig, bool) {
	lookup := func(key string) any {
		if v, ok := host.Vars[key]; ok {
			return v
		}
		return groupVars[key]
	}

	ip := host.AnsibleHost
	if ip == "" {
		if s, ok := lookup("ansible_host").(string); ok {
			ip = s
		}
	}
	if ip == "" && net.ParseIP(hostID) != nil {
		ip = hostID
	}
	if net.ParseIP(ip) == nil {
		return config.DeviceConfig{}, false
	}

	d := config.DeviceConfig{MgtIP: ip}
	if hostID != ip {
		d.Name = hostID
	}
	if os, ok := lookup("ansible_network_os").(string); ok {
		d.Platform = os
	}
	if user, ok := lookup("ansible_user").(string); ok {
		d.Username = user
	}
	if port, ok := lookup("ansible_httpapi_port").(int); ok {
		d.Port = port
	}
	return d, true
}
