package mapper

import (
	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

type ifaceRow struct {
	Name   string `mapstructure:"name"`
	Config struct {
		Enabled     *bool  `mapstructure:"enabled"`
		MTU         *int   `mapstructure:"mtu"`
		Description string `mapstructure:"description"`
	} `mapstructure:"config"`
	State struct {
		Enabled     *bool  `mapstructure:"enabled"`
		MTU         *int   `mapstructure:"mtu"`
		Description string `mapstructure:"description"`
		AdminStatus string `mapstructure:"admin-status"`
		OperStatus  string `mapstructure:"oper-status"`
	} `mapstructure:"state"`
	Ethernet struct {
		Config struct {
			PortSpeed string `mapstructure:"port-speed"`
		} `mapstructure:"config"`
		State struct {
			PortSpeed string `mapstructure:"port-speed"`
		} `mapstructure:"state"`
	} `mapstructure:"ethernet"`
}

type ifaceList struct {
	Interfaces []ifaceRow `mapstructure:"interface"`
}

// MapInterfaces maps the openconfig interface list. Operational state wins
// over configuration where both are reported.
func MapInterfaces(raw transport.Raw) ([]domain.Entry[domain.Interface], error) {
	var list ifaceList
	if err := decode(domain.KindInterface, raw, &list); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry[domain.Interface], 0, len(list.Interfaces))
	seen := make(map[string]bool, len(list.Interfaces))

	for _, row := range list.Interfaces {
		if row.Name == "" {
			return nil, serrors.Mappingf(string(domain.KindInterface), "interface without name")
		}
		if seen[row.Name] {
			return nil, serrors.Mappingf(string(domain.KindInterface), "duplicate interface %s", row.Name)
		}
		seen[row.Name] = true

		iface := domain.Interface{
			Name:        row.Name,
			Enabled:     firstPtr(row.State.Enabled, row.Config.Enabled),
			Description: firstString(row.State.Description, row.Config.Description),
			AdminStatus: row.State.AdminStatus,
			OperStatus:  row.State.OperStatus,
			Speed:       domain.IdentityName(firstString(row.Ethernet.State.PortSpeed, row.Ethernet.Config.PortSpeed)),
		}
		if mtu := firstPtr(row.State.MTU, row.Config.MTU); mtu != nil {
			iface.MTU = *mtu
		}

		entries = append(entries, domain.Entry[domain.Interface]{Key: row.Name, Entity: iface})
	}

	return entries, nil
}

func firstPtr[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
