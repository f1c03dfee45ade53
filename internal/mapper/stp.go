package mapper

import (
	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

type stpPortConfig struct {
	Name                  string `mapstructure:"name"`
	EdgePort              string `mapstructure:"edge-port"`
	LinkType              string `mapstructure:"link-type"`
	Guard                 string `mapstructure:"guard"`
	BPDUFilter            *bool  `mapstructure:"bpdu-filter"`
	BPDUGuard             *bool  `mapstructure:"bpdu-guard"`
	BPDUGuardPortShutdown *bool  `mapstructure:"bpdu-guard-port-shutdown"`
	Portfast              *bool  `mapstructure:"portfast"`
	UplinkFast            *bool  `mapstructure:"uplink-fast"`
	Cost                  *int   `mapstructure:"cost"`
	PortPriority          *int   `mapstructure:"port-priority"`
	STPEnabled            *bool  `mapstructure:"spanning-tree-enable"`
}

type stpPortRow struct {
	Name   string        `mapstructure:"name"`
	Config stpPortConfig `mapstructure:"config"`
}

type stpPortList struct {
	Interfaces []stpPortRow `mapstructure:"interface"`
}

// MapSTPPorts maps per-interface spanning-tree configuration. STP ports
// declare no memberships.
func MapSTPPorts(raw transport.Raw) ([]domain.Entry[domain.STPPort], error) {
	var list stpPortList
	if err := decode(domain.KindSTPPort, raw, &list); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry[domain.STPPort], 0, len(list.Interfaces))
	seen := make(map[string]bool, len(list.Interfaces))

	for _, row := range list.Interfaces {
		name := row.Name
		if name == "" {
			name = row.Config.Name
		}
		if name == "" {
			return nil, serrors.Mappingf(string(domain.KindSTPPort), "stp interface without name")
		}
		if seen[name] {
			return nil, serrors.Mappingf(string(domain.KindSTPPort), "duplicate stp interface %s", name)
		}
		seen[name] = true

		cfg := row.Config
		port := domain.STPPort{
			IfName:                name,
			EdgePort:              domain.IdentityName(cfg.EdgePort),
			LinkType:              domain.IdentityName(cfg.LinkType),
			Guard:                 domain.IdentityName(cfg.Guard),
			BPDUFilter:            cfg.BPDUFilter,
			BPDUGuard:             cfg.BPDUGuard,
			BPDUGuardPortShutdown: cfg.BPDUGuardPortShutdown,
			Portfast:              cfg.Portfast,
			UplinkFast:            cfg.UplinkFast,
			Cost:                  cfg.Cost,
			PortPriority:          cfg.PortPriority,
			STPEnabled:            cfg.STPEnabled,
		}

		entries = append(entries, domain.Entry[domain.STPPort]{Key: name, Entity: port})
	}

	return entries, nil
}
