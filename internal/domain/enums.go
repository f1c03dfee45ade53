package domain

import (
	"fmt"
	"strings"
)

// IdentityName reduces a YANG identity value such as
// "openconfig-if-ethernet:SPEED_25GB" to its bare name.
func IdentityName(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// TaggingMode is the VLAN membership tagging mode
type TaggingMode int

const (
	TaggingModeTagged TaggingMode = iota + 1
	TaggingModeUntagged
)

var taggingModeNames = map[TaggingMode]string{
	TaggingModeTagged:   "tagged",
	TaggingModeUntagged: "untagged",
}

func (m TaggingMode) String() string {
	if s, ok := taggingModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("TaggingMode(%d)", int(m))
}

// ParseTaggingMode parses "tagged" or "untagged", case-insensitive
func ParseTaggingMode(s string) (TaggingMode, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for m, name := range taggingModeNames {
		if name == norm {
			return m, nil
		}
	}
	return 0, fmt.Errorf("invalid tagging mode %q", s)
}

func (m TaggingMode) MarshalText() ([]byte, error) {
	if _, ok := taggingModeNames[m]; !ok {
		return nil, fmt.Errorf("invalid tagging mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *TaggingMode) UnmarshalText(text []byte) error {
	parsed, err := ParseTaggingMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Speed is a port-group speed setting
type Speed int

const (
	Speed1GB Speed = iota + 1
	Speed5GB
	Speed10GB
	Speed25GB
	Speed40GB
	Speed50GB
	Speed100GB
)

const speedIdentityModule = "openconfig-if-ethernet"

var speedNames = map[Speed]string{
	Speed1GB:   "SPEED_1GB",
	Speed5GB:   "SPEED_5GB",
	Speed10GB:  "SPEED_10GB",
	Speed25GB:  "SPEED_25GB",
	Speed40GB:  "SPEED_40GB",
	Speed50GB:  "SPEED_50GB",
	Speed100GB: "SPEED_100GB",
}

func (s Speed) String() string {
	if name, ok := speedNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Speed(%d)", int(s))
}

// OCValue returns the identity value the device expects, e.g.
// "openconfig-if-ethernet:SPEED_25GB".
func (s Speed) OCValue() string {
	return speedIdentityModule + ":" + s.String()
}

// ParseSpeed accepts the bare name or the prefixed identity value
func ParseSpeed(s string) (Speed, error) {
	norm := strings.ToUpper(IdentityName(strings.TrimSpace(s)))
	for speed, name := range speedNames {
		if name == norm {
			return speed, nil
		}
	}
	return 0, fmt.Errorf("invalid speed %q", s)
}

func (s Speed) MarshalText() ([]byte, error) {
	if _, ok := speedNames[s]; !ok {
		return nil, fmt.Errorf("invalid speed %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Speed) UnmarshalText(text []byte) error {
	parsed, err := ParseSpeed(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// EdgePort is the STP edge-port setting of an interface
type EdgePort int

const (
	EdgePortAuto EdgePort = iota + 1
	EdgePortEnable
	EdgePortDisable
)

const edgePortIdentityModule = "openconfig-spanning-tree-types"

var edgePortNames = map[EdgePort]string{
	EdgePortAuto:    "EDGE_AUTO",
	EdgePortEnable:  "EDGE_ENABLE",
	EdgePortDisable: "EDGE_DISABLE",
}

func (e EdgePort) String() string {
	if name, ok := edgePortNames[e]; ok {
		return name
	}
	return fmt.Sprintf("EdgePort(%d)", int(e))
}

// OCValue returns the prefixed identity value
func (e EdgePort) OCValue() string {
	return edgePortIdentityModule + ":" + e.String()
}

// ParseEdgePort accepts the bare name or the prefixed identity value
func ParseEdgePort(s string) (EdgePort, error) {
	norm := strings.ToUpper(IdentityName(strings.TrimSpace(s)))
	for e, name := range edgePortNames {
		if name == norm {
			return e, nil
		}
	}
	return 0, fmt.Errorf("invalid edge port %q", s)
}

func (e EdgePort) MarshalText() ([]byte, error) {
	if _, ok := edgePortNames[e]; !ok {
		return nil, fmt.Errorf("invalid edge port %d", int(e))
	}
	return []byte(e.String()), nil
}

func (e *EdgePort) UnmarshalText(text []byte) error {
	parsed, err := ParseEdgePort(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
