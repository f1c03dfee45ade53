package domain

import (
	"fmt"
	"strings"
)

// Kind identifies a resource kind discovered from a device
type Kind string

const (
	KindInterface Kind = "interface"
	KindVLAN      Kind = "vlan"
	KindPortGroup Kind = "port_group"
	KindSTPPort   Kind = "stp_port"
)

// AllKinds returns every kind in discovery order. Interfaces come first so
// membership targets exist before the kinds that reference them.
func AllKinds() []Kind {
	return []Kind{KindInterface, KindVLAN, KindPortGroup, KindSTPPort}
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindInterface, KindVLAN, KindPortGroup, KindSTPPort:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts the canonical kind names plus the plural and dashed
// spellings used on the command line and in URLs.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	norm = strings.TrimSuffix(norm, "s")

	switch norm {
	case "interface":
		return KindInterface, nil
	case "vlan":
		return KindVLAN, nil
	case "port_group", "portgroup":
		return KindPortGroup, nil
	case "stp_port", "stp", "stpport":
		return KindSTPPort, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// MemberEdge returns the edge type used for memberships declared by kind k.
// Kinds without memberships return an empty EdgeType.
func (k Kind) MemberEdge() EdgeType {
	switch k {
	case KindVLAN:
		return EdgeTypeVLANMember
	case KindPortGroup:
		return EdgeTypePortGroupMember
	}
	return ""
}
