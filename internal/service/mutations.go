package service

import (
	"context"

	"switchgraph/internal/transport"
)

// Apply pushes a configuration change to deviceIP and re-discovers the
// affected kind. The store reflects the device afterwards even when the
// change fails.
func (s *Service) Apply(ctx context.Context, deviceIP string, m transport.Mutation) error {
	if err := s.requireDevice(ctx, deviceIP); err != nil {
		return err
	}

	err := s.dispatcher.Apply(ctx, deviceIP, m)

	payload := MutationPayload{DeviceIP: deviceIP, Kind: string(m.Kind()), Op: m.Op()}
	eventType := EventMutationApplied
	if err != nil {
		eventType = EventMutationFailed
		payload.Error = err.Error()
	}
	s.eventBus.Publish(Event{Type: eventType, Payload: payload})
	return err
}

// ConfigureVLAN creates a VLAN or updates its attributes
func (s *Service) ConfigureVLAN(ctx context.Context, deviceIP string, m transport.ConfigureVLAN) error {
	return s.Apply(ctx, deviceIP, m)
}

// DeleteVLAN removes a VLAN
func (s *Service) DeleteVLAN(ctx context.Context, deviceIP, name string) error {
	return s.Apply(ctx, deviceIP, transport.DeleteVLAN{Name: name})
}

// AddVLANMembers adds interfaces to a VLAN
func (s *Service) AddVLANMembers(ctx context.Context, deviceIP string, m transport.AddVLANMembers) error {
	return s.Apply(ctx, deviceIP, m)
}

// RemoveVLANMember removes one interface from a VLAN, or all of them when
// ifName is empty
func (s *Service) RemoveVLANMember(ctx context.Context, deviceIP string, vlanID int, ifName string) error {
	return s.Apply(ctx, deviceIP, transport.RemoveVLANMember{VlanID: vlanID, Interface: ifName})
}

// SetPortGroupSpeed changes the speed of a port-group
func (s *Service) SetPortGroupSpeed(ctx context.Context, deviceIP string, m transport.SetPortGroupSpeed) error {
	return s.Apply(ctx, deviceIP, m)
}

// ConfigureSTPPort applies STP settings to an interface
func (s *Service) ConfigureSTPPort(ctx context.Context, deviceIP string, m transport.ConfigureSTPPort) error {
	return s.Apply(ctx, deviceIP, m)
}

// DeleteSTPPort removes the STP configuration of an interface
func (s *Service) DeleteSTPPort(ctx context.Context, deviceIP, ifName string) error {
	return s.Apply(ctx, deviceIP, transport.DeleteSTPPort{IfName: ifName})
}
