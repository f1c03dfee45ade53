package service

import (
	"context"
	"sort"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

// VLANMemberInfo is one interface of a VLAN with its tagging mode
type VLANMemberInfo struct {
	Interface string             `json:"interface" yaml:"interface"`
	Mode      domain.TaggingMode `json:"tagging_mode" yaml:"tagging_mode"`
}

// VLANWithMembers is a stored VLAN with its member interfaces
type VLANWithMembers struct {
	domain.Vlan `yaml:",inline"`
	Members     []VLANMemberInfo `json:"members" yaml:"members"`
}

// PortGroupWithMembers is a stored port-group with its member interfaces
type PortGroupWithMembers struct {
	domain.PortGroup `yaml:",inline"`
	Members          []string `json:"members" yaml:"members"`
}

// ============================================================================
// Generic node access
// ============================================================================

// GetNode returns the stored node of (device, kind, key)
func (s *Service) GetNode(ctx context.Context, deviceIP string, kind domain.Kind, key string) (*domain.Node, error) {
	if err := s.requireDevice(ctx, deviceIP); err != nil {
		return nil, err
	}
	node, err := s.store.GetNodeByKey(ctx, deviceIP, kind, key)
	if err != nil {
		return nil, serrors.WrapStore("get", deviceIP, err).WithKind(string(kind)).WithKey(key)
	}
	if node == nil {
		return nil, serrors.NotFound(deviceIP, string(kind), key)
	}
	return node, nil
}

// ListNodes returns the stored nodes of kind on deviceIP. An empty deviceIP
// lists every device.
func (s *Service) ListNodes(ctx context.Context, deviceIP string, kind domain.Kind) ([]domain.Node, error) {
	if deviceIP != "" {
		if err := s.requireDevice(ctx, deviceIP); err != nil {
			return nil, err
		}
	}
	nodes, err := s.store.ListNodes(ctx, deviceIP, kind)
	if err != nil {
		return nil, serrors.WrapStore("list", deviceIP, err).WithKind(string(kind))
	}
	return nodes, nil
}

func getEntity[E domain.Entity](ctx context.Context, s *Service, deviceIP string, kind domain.Kind, key string) (*E, error) {
	node, err := s.GetNode(ctx, deviceIP, kind, key)
	if err != nil {
		return nil, err
	}
	e, err := domain.DecodeNode[E](node)
	if err != nil {
		return nil, serrors.WrapStore("decode", deviceIP, err).WithKind(string(kind)).WithKey(key)
	}
	return &e, nil
}

func listEntities[E domain.Entity](ctx context.Context, s *Service, deviceIP string, kind domain.Kind) ([]E, error) {
	nodes, err := s.ListNodes(ctx, deviceIP, kind)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(nodes))
	for i := range nodes {
		e, err := domain.DecodeNode[E](&nodes[i])
		if err != nil {
			return nil, serrors.WrapStore("decode", nodes[i].DeviceIP, err).WithKind(string(kind)).WithKey(nodes[i].Key)
		}
		out = append(out, e)
	}
	return out, nil
}

// memberNames returns the interface names an entity is linked to, sorted
func (s *Service) memberNames(ctx context.Context, node *domain.Node, edgeType domain.EdgeType) ([]string, map[string]domain.Edge, error) {
	edges, err := s.store.ListEdgesFrom(ctx, node.ID, edgeType)
	if err != nil {
		return nil, nil, serrors.WrapStore("list_members", node.DeviceIP, err).WithKind(string(node.Kind)).WithKey(node.Key)
	}

	names := make([]string, 0, len(edges))
	byName := make(map[string]domain.Edge, len(edges))
	for _, e := range edges {
		target, err := s.store.GetNode(ctx, e.ToID)
		if err != nil {
			return nil, nil, serrors.WrapStore("list_members", node.DeviceIP, err).WithKind(string(node.Kind)).WithKey(node.Key)
		}
		if target == nil {
			continue
		}
		names = append(names, target.Key)
		byName[target.Key] = e
	}
	sort.Strings(names)
	return names, byName, nil
}

// ============================================================================
// VLANs
// ============================================================================

// GetVLAN returns one stored VLAN by name
func (s *Service) GetVLAN(ctx context.Context, deviceIP, name string) (*domain.Vlan, error) {
	return getEntity[domain.Vlan](ctx, s, deviceIP, domain.KindVLAN, name)
}

// ListVLANs returns the stored VLANs of a device
func (s *Service) ListVLANs(ctx context.Context, deviceIP string) ([]domain.Vlan, error) {
	return listEntities[domain.Vlan](ctx, s, deviceIP, domain.KindVLAN)
}

// VLANMembers returns the member interfaces of a stored VLAN
func (s *Service) VLANMembers(ctx context.Context, deviceIP, name string) ([]VLANMemberInfo, error) {
	node, err := s.GetNode(ctx, deviceIP, domain.KindVLAN, name)
	if err != nil {
		return nil, err
	}
	return s.vlanMembers(ctx, node)
}

// GetVLANWithMembers returns one stored VLAN together with its members
func (s *Service) GetVLANWithMembers(ctx context.Context, deviceIP, name string) (*VLANWithMembers, error) {
	node, err := s.GetNode(ctx, deviceIP, domain.KindVLAN, name)
	if err != nil {
		return nil, err
	}
	out, err := s.vlanWithMembers(ctx, node)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVLANsWithMembers returns the stored VLANs of a device, each with its
// members
func (s *Service) ListVLANsWithMembers(ctx context.Context, deviceIP string) ([]VLANWithMembers, error) {
	nodes, err := s.ListNodes(ctx, deviceIP, domain.KindVLAN)
	if err != nil {
		return nil, err
	}
	out := make([]VLANWithMembers, 0, len(nodes))
	for i := range nodes {
		v, err := s.vlanWithMembers(ctx, &nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) vlanWithMembers(ctx context.Context, node *domain.Node) (VLANWithMembers, error) {
	vlan, err := domain.DecodeNode[domain.Vlan](node)
	if err != nil {
		return VLANWithMembers{}, serrors.WrapStore("decode", node.DeviceIP, err).WithKind(string(node.Kind)).WithKey(node.Key)
	}
	members, err := s.vlanMembers(ctx, node)
	if err != nil {
		return VLANWithMembers{}, err
	}
	return VLANWithMembers{Vlan: vlan, Members: members}, nil
}

func (s *Service) vlanMembers(ctx context.Context, node *domain.Node) ([]VLANMemberInfo, error) {
	names, edges, err := s.memberNames(ctx, node, domain.EdgeTypeVLANMember)
	if err != nil {
		return nil, err
	}

	members := make([]VLANMemberInfo, 0, len(names))
	for _, n := range names {
		mode, err := domain.TaggingModeOf(edges[n])
		if err != nil {
			return nil, serrors.WrapStore("list_members", node.DeviceIP, err).WithKind(string(domain.KindVLAN)).WithKey(node.Key)
		}
		members = append(members, VLANMemberInfo{Interface: n, Mode: mode})
	}
	return members, nil
}

// ============================================================================
// Port groups
// ============================================================================

// GetPortGroup returns one stored port-group by id
func (s *Service) GetPortGroup(ctx context.Context, deviceIP, id string) (*domain.PortGroup, error) {
	return getEntity[domain.PortGroup](ctx, s, deviceIP, domain.KindPortGroup, id)
}

// ListPortGroups returns the stored port-groups of a device
func (s *Service) ListPortGroups(ctx context.Context, deviceIP string) ([]domain.PortGroup, error) {
	return listEntities[domain.PortGroup](ctx, s, deviceIP, domain.KindPortGroup)
}

// PortGroupMembers returns the interface names of a stored port-group
func (s *Service) PortGroupMembers(ctx context.Context, deviceIP, id string) ([]string, error) {
	node, err := s.GetNode(ctx, deviceIP, domain.KindPortGroup, id)
	if err != nil {
		return nil, err
	}
	names, _, err := s.memberNames(ctx, node, domain.EdgeTypePortGroupMember)
	return names, err
}

// GetPortGroupWithMembers returns one stored port-group together with its
// members
func (s *Service) GetPortGroupWithMembers(ctx context.Context, deviceIP, id string) (*PortGroupWithMembers, error) {
	node, err := s.GetNode(ctx, deviceIP, domain.KindPortGroup, id)
	if err != nil {
		return nil, err
	}
	out, err := s.portGroupWithMembers(ctx, node)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPortGroupsWithMembers returns the stored port-groups of a device, each
// with its members
func (s *Service) ListPortGroupsWithMembers(ctx context.Context, deviceIP string) ([]PortGroupWithMembers, error) {
	nodes, err := s.ListNodes(ctx, deviceIP, domain.KindPortGroup)
	if err != nil {
		return nil, err
	}
	out := make([]PortGroupWithMembers, 0, len(nodes))
	for i := range nodes {
		pg, err := s.portGroupWithMembers(ctx, &nodes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, pg)
	}
	return out, nil
}

func (s *Service) portGroupWithMembers(ctx context.Context, node *domain.Node) (PortGroupWithMembers, error) {
	pg, err := domain.DecodeNode[domain.PortGroup](node)
	if err != nil {
		return PortGroupWithMembers{}, serrors.WrapStore("decode", node.DeviceIP, err).WithKind(string(node.Kind)).WithKey(node.Key)
	}
	names, _, err := s.memberNames(ctx, node, domain.EdgeTypePortGroupMember)
	if err != nil {
		return PortGroupWithMembers{}, err
	}
	return PortGroupWithMembers{PortGroup: pg, Members: names}, nil
}

// ============================================================================
// STP ports and interfaces
// ============================================================================

// GetSTPPort returns the stored STP configuration of one interface
func (s *Service) GetSTPPort(ctx context.Context, deviceIP, ifName string) (*domain.STPPort, error) {
	return getEntity[domain.STPPort](ctx, s, deviceIP, domain.KindSTPPort, ifName)
}

// ListSTPPorts returns the stored STP ports of a device
func (s *Service) ListSTPPorts(ctx context.Context, deviceIP string) ([]domain.STPPort, error) {
	return listEntities[domain.STPPort](ctx, s, deviceIP, domain.KindSTPPort)
}

// GetInterface returns one stored interface
func (s *Service) GetInterface(ctx context.Context, deviceIP, name string) (*domain.Interface, error) {
	return getEntity[domain.Interface](ctx, s, deviceIP, domain.KindInterface, name)
}

// ListInterfaces returns the stored interfaces of a device
func (s *Service) ListInterfaces(ctx context.Context, deviceIP string) ([]domain.Interface, error) {
	return listEntities[domain.Interface](ctx, s, deviceIP, domain.KindInterface)
}
