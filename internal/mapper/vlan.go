package mapper

import (
	"fmt"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

// VLANRaw is the raw VLAN state of one device: the merged sonic-vlan tables
// plus the routed-vlan IPv4 detail of each VLAN, keyed by VLAN name.
type VLANRaw struct {
	Details transport.Raw
	IPv4    map[string]transport.Raw
}

type vlanRow struct {
	Name      string `mapstructure:"name"`
	VlanID    *int   `mapstructure:"vlanid"`
	Autostate string `mapstructure:"autostate"`
}

type vlanTableRow struct {
	Name        string `mapstructure:"name"`
	MTU         *int   `mapstructure:"mtu"`
	AdminStatus string `mapstructure:"admin_status"`
	OperStatus  string `mapstructure:"oper_status"`
	Autostate   string `mapstructure:"autostate"`
}

type vlanMemberRow struct {
	Name        string `mapstructure:"name"`
	IfName      string `mapstructure:"ifname"`
	TaggingMode string `mapstructure:"tagging_mode"`
}

type vlanTables struct {
	VLANs   []vlanRow       `mapstructure:"VLAN_LIST"`
	Table   []vlanTableRow  `mapstructure:"VLAN_TABLE_LIST"`
	Members []vlanMemberRow `mapstructure:"VLAN_MEMBER_LIST"`
}

type ipv4Address struct {
	IP     string `mapstructure:"ip"`
	Config struct {
		IP           string `mapstructure:"ip"`
		PrefixLength *int   `mapstructure:"prefix-length"`
	} `mapstructure:"config"`
}

type vlanIPv4 struct {
	IPv4 struct {
		Addresses struct {
			Address []ipv4Address `mapstructure:"address"`
		} `mapstructure:"addresses"`
		SAG struct {
			Config struct {
				Gateways []string `mapstructure:"static-anycast-gateway"`
			} `mapstructure:"config"`
		} `mapstructure:"sag-ipv4"`
	} `mapstructure:"ipv4"`
}

// VLANNames lists the VLAN names of the primary VLAN table, in device order.
// The fetch stage uses it to request per-VLAN IP detail.
func VLANNames(details transport.Raw) ([]string, error) {
	var tables vlanTables
	if err := decode(domain.KindVLAN, details, &tables); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables.VLANs))
	for _, v := range tables.VLANs {
		if v.Name != "" {
			names = append(names, v.Name)
		}
	}
	return names, nil
}

// MapVLANs joins the VLAN tables into VLAN entries. VLAN_LIST is
// authoritative: VLAN_TABLE_LIST rows for unknown names are dropped, and
// VLAN_LIST entries without a table row keep the operational fields absent.
func MapVLANs(raw VLANRaw) ([]domain.Entry[domain.Vlan], error) {
	var tables vlanTables
	if err := decode(domain.KindVLAN, raw.Details, &tables); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry[domain.Vlan], 0, len(tables.VLANs))
	index := make(map[string]int, len(tables.VLANs))

	for _, row := range tables.VLANs {
		if row.Name == "" {
			return nil, serrors.Mappingf(string(domain.KindVLAN), "VLAN_LIST entry without name")
		}
		if _, dup := index[row.Name]; dup {
			return nil, serrors.Mappingf(string(domain.KindVLAN), "duplicate VLAN %s", row.Name)
		}

		vlan := domain.Vlan{
			Name:      row.Name,
			Autostate: row.Autostate,
		}
		if row.VlanID != nil {
			vlan.VlanID = *row.VlanID
		}
		if vlan.Autostate == "" {
			vlan.Autostate = domain.AutostateDisable
		}

		ip, sag, err := vlanAddresses(raw.IPv4[row.Name])
		if err != nil {
			return nil, fmt.Errorf("vlan %s: %w", row.Name, err)
		}
		vlan.IPAddress, vlan.SAGIPAddress = ip, sag

		index[row.Name] = len(entries)
		entries = append(entries, domain.Entry[domain.Vlan]{Key: row.Name, Entity: vlan})
	}

	for _, row := range tables.Table {
		i, ok := index[row.Name]
		if !ok {
			continue
		}
		vlan := &entries[i].Entity
		if row.MTU != nil {
			vlan.MTU = *row.MTU
		}
		vlan.AdminStatus = row.AdminStatus
		vlan.OperStatus = row.OperStatus
		if row.Autostate != "" {
			vlan.Autostate = row.Autostate
		}
	}

	seen := make(map[[2]string]bool, len(tables.Members))
	for _, row := range tables.Members {
		i, ok := index[row.Name]
		if !ok || row.IfName == "" {
			continue
		}
		if seen[[2]string{row.Name, row.IfName}] {
			continue
		}
		seen[[2]string{row.Name, row.IfName}] = true

		mode := domain.DefaultTaggingMode
		if row.TaggingMode != "" {
			parsed, err := domain.ParseTaggingMode(row.TaggingMode)
			if err != nil {
				return nil, serrors.WrapMapping("map", string(domain.KindVLAN), err).WithKey(row.Name)
			}
			mode = parsed
		}
		entries[i].Members = append(entries[i].Members, domain.VLANMember(row.IfName, mode))
	}

	return entries, nil
}

// vlanAddresses selects the first complete IPv4 address, rendered
// "ip/prefix", and the first static anycast gateway.
func vlanAddresses(raw transport.Raw) (string, string, error) {
	if len(raw) == 0 {
		return "", "", nil
	}

	var detail vlanIPv4
	if err := decode(domain.KindVLAN, raw, &detail); err != nil {
		return "", "", err
	}

	var ip string
	for _, addr := range detail.IPv4.Addresses.Address {
		if addr.Config.IP != "" && addr.Config.PrefixLength != nil {
			ip = fmt.Sprintf("%s/%d", addr.Config.IP, *addr.Config.PrefixLength)
			break
		}
	}

	var sag string
	if gws := detail.IPv4.SAG.Config.Gateways; len(gws) > 0 {
		sag = gws[0]
	}
	return ip, sag, nil
}
