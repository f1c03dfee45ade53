// Package mapper turns raw device state into domain entries. Every function
// here is pure: the same raw input always yields the same entries, and no
// mapper touches the network or the store.
package mapper

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

// StripModulePrefixes returns a copy of v with YANG module prefixes removed
// from every map key, so "sonic-vlan:VLAN_LIST" becomes "VLAN_LIST".
// Values are left alone.
func StripModulePrefixes(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, name, ok := strings.Cut(k, ":"); ok {
				k = name
			}
			out[k] = StripModulePrefixes(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = StripModulePrefixes(val)
		}
		return out
	}
	return v
}

// decode strips module prefixes from raw and decodes it into out. Type
// mismatches are reported; keys without a matching field are ignored.
func decode(kind domain.Kind, raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return serrors.WrapMapping("decode", string(kind), err)
	}
	if err := dec.Decode(StripModulePrefixes(raw)); err != nil {
		return serrors.WrapMapping("decode", string(kind), fmt.Errorf("unexpected shape: %w", err))
	}
	return nil
}

func identities(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = domain.IdentityName(v)
	}
	return out
}
