// Package transport defines the capabilities used to read state from and push
// configuration to managed switches.
package transport

import (
	"context"
	"fmt"
	"net/netip"

	"switchgraph/internal/domain"
)

// Raw is nested key/value/list data as returned by a device
type Raw = map[string]any

// Resource names a readable slice of device state
type Resource string

const (
	ResourceVLAN      Resource = "vlan"
	ResourceVLANIP    Resource = "vlan-ip"
	ResourcePortGroup Resource = "port-group"
	ResourceSTPPort   Resource = "stp-port"
	ResourceInterface Resource = "interface"
)

// Fetcher reads raw state from a device. key narrows the read to one
// resource instance and may be empty. A resource the device does not have
// yields an empty Raw, not an error.
type Fetcher interface {
	Fetch(ctx context.Context, deviceIP string, res Resource, key string) (Raw, error)
}

// Mutator applies a configuration change to a device
type Mutator interface {
	Apply(ctx context.Context, deviceIP string, m Mutation) error
}

// Client is a full device transport
type Client interface {
	Fetcher
	Mutator
}

// Mutation is a configuration change intent. Kind names the resource kind
// that must be re-discovered after the change.
type Mutation interface {
	Kind() domain.Kind
	Op() string
	Validate() error
}

// ConfigureVLAN creates a VLAN or updates its attributes. Zero-valued
// optional attributes are left untouched on the device.
type ConfigureVLAN struct {
	VlanID      int
	Name        string
	MTU         int
	AdminStatus string
	Autostate   string
	IPAddress   string
	SAGIP       string
}

func (ConfigureVLAN) Kind() domain.Kind { return domain.KindVLAN }
func (ConfigureVLAN) Op() string        { return "configure_vlan" }

// VLANName returns the explicit name or the name derived from the id
func (m ConfigureVLAN) VLANName() string {
	if m.Name != "" {
		return m.Name
	}
	return domain.VLANName(m.VlanID)
}

func (m ConfigureVLAN) Validate() error {
	if m.VlanID < 1 || m.VlanID > 4094 {
		return fmt.Errorf("vlan id %d out of range 1-4094", m.VlanID)
	}
	if m.Autostate != "" && m.Autostate != domain.AutostateEnable && m.Autostate != domain.AutostateDisable {
		return fmt.Errorf("invalid autostate %q", m.Autostate)
	}
	if m.AdminStatus != "" && m.AdminStatus != "up" && m.AdminStatus != "down" {
		return fmt.Errorf("invalid admin status %q", m.AdminStatus)
	}
	if err := validIPv4Prefix("ip address", m.IPAddress); err != nil {
		return err
	}
	if err := validIPv4Prefix("anycast gateway", m.SAGIP); err != nil {
		return err
	}
	return nil
}

// validIPv4Prefix accepts an empty value or an "ip/prefix" IPv4 address
func validIPv4Prefix(field, s string) error {
	if s == "" {
		return nil
	}
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return fmt.Errorf("invalid %s %q: want ip/prefix", field, s)
	}
	if !p.Addr().Is4() {
		return fmt.Errorf("invalid %s %q: not an IPv4 address", field, s)
	}
	return nil
}

// DeleteVLAN removes a VLAN by name
type DeleteVLAN struct {
	Name string
}

func (DeleteVLAN) Kind() domain.Kind { return domain.KindVLAN }
func (DeleteVLAN) Op() string        { return "delete_vlan" }

func (m DeleteVLAN) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("vlan name is required")
	}
	return nil
}

// VLANMemberSpec is one interface to add to a VLAN
type VLANMemberSpec struct {
	Interface string
	Mode      domain.TaggingMode
}

// AddVLANMembers adds interfaces to a VLAN
type AddVLANMembers struct {
	VlanID  int
	Members []VLANMemberSpec
}

func (AddVLANMembers) Kind() domain.Kind { return domain.KindVLAN }
func (AddVLANMembers) Op() string        { return "add_vlan_members" }

func (m AddVLANMembers) Validate() error {
	if m.VlanID < 1 || m.VlanID > 4094 {
		return fmt.Errorf("vlan id %d out of range 1-4094", m.VlanID)
	}
	if len(m.Members) == 0 {
		return fmt.Errorf("at least one member is required")
	}
	for _, mem := range m.Members {
		if mem.Interface == "" {
			return fmt.Errorf("member interface name is required")
		}
		if _, err := mem.Mode.MarshalText(); err != nil {
			return fmt.Errorf("member %s: %w", mem.Interface, err)
		}
	}
	return nil
}

// RemoveVLANMember removes one interface from a VLAN. An empty Interface
// removes every member.
type RemoveVLANMember struct {
	VlanID    int
	Interface string
}

func (RemoveVLANMember) Kind() domain.Kind { return domain.KindVLAN }
func (RemoveVLANMember) Op() string        { return "remove_vlan_member" }

func (m RemoveVLANMember) Validate() error {
	if m.VlanID < 1 || m.VlanID > 4094 {
		return fmt.Errorf("vlan id %d out of range 1-4094", m.VlanID)
	}
	return nil
}

// SetPortGroupSpeed changes the speed of a port-group
type SetPortGroupSpeed struct {
	ID    string
	Speed domain.Speed
}

func (SetPortGroupSpeed) Kind() domain.Kind { return domain.KindPortGroup }
func (SetPortGroupSpeed) Op() string        { return "set_port_group_speed" }

func (m SetPortGroupSpeed) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("port group id is required")
	}
	if _, err := m.Speed.MarshalText(); err != nil {
		return err
	}
	return nil
}

// ConfigureSTPPort applies an STP attribute bundle to one interface. Nil
// attributes are left untouched.
type ConfigureSTPPort struct {
	IfName                string
	EdgePort              domain.EdgePort
	LinkType              string
	Guard                 string
	BPDUFilter            *bool
	BPDUGuard             *bool
	BPDUGuardPortShutdown *bool
	Portfast              *bool
	UplinkFast            *bool
	Cost                  *int
	PortPriority          *int
	STPEnabled            *bool
}

func (ConfigureSTPPort) Kind() domain.Kind { return domain.KindSTPPort }
func (ConfigureSTPPort) Op() string        { return "configure_stp_port" }

func (m ConfigureSTPPort) Validate() error {
	if m.IfName == "" {
		return fmt.Errorf("interface name is required")
	}
	if m.EdgePort != 0 {
		if _, err := m.EdgePort.MarshalText(); err != nil {
			return err
		}
	}
	switch m.LinkType {
	case "", "P2P", "SHARED":
	default:
		return fmt.Errorf("invalid link type %q", m.LinkType)
	}
	switch m.Guard {
	case "", "ROOT", "LOOP", "NONE":
	default:
		return fmt.Errorf("invalid guard %q", m.Guard)
	}
	if m.PortPriority != nil && (*m.PortPriority < 0 || *m.PortPriority > 240) {
		return fmt.Errorf("port priority %d out of range 0-240", *m.PortPriority)
	}
	return nil
}

// DeleteSTPPort removes the STP configuration of one interface
type DeleteSTPPort struct {
	IfName string
}

func (DeleteSTPPort) Kind() domain.Kind { return domain.KindSTPPort }
func (DeleteSTPPort) Op() string        { return "delete_stp_port" }

func (m DeleteSTPPort) Validate() error {
	if m.IfName == "" {
		return fmt.Errorf("interface name is required")
	}
	return nil
}
