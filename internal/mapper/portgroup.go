package mapper

import (
	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/transport"
)

type portGroupState struct {
	ID            string   `mapstructure:"id"`
	Speed         string   `mapstructure:"speed"`
	ValidSpeeds   []string `mapstructure:"valid-speeds"`
	DefaultSpeed  string   `mapstructure:"default-speed"`
	MemberIfStart string   `mapstructure:"member-if-start"`
	MemberIfEnd   string   `mapstructure:"member-if-end"`
}

type portGroupRow struct {
	ID    string         `mapstructure:"id"`
	State portGroupState `mapstructure:"state"`
}

type portGroupList struct {
	Groups []portGroupRow `mapstructure:"port-group"`
}

// MapPortGroups maps the port-group list. Members are the interfaces in the
// group's member-if-start..member-if-end range; a group reporting only one
// bound has no members.
func MapPortGroups(raw transport.Raw) ([]domain.Entry[domain.PortGroup], error) {
	var list portGroupList
	if err := decode(domain.KindPortGroup, raw, &list); err != nil {
		return nil, err
	}

	entries := make([]domain.Entry[domain.PortGroup], 0, len(list.Groups))
	seen := make(map[string]bool, len(list.Groups))

	for _, row := range list.Groups {
		id := row.State.ID
		if id == "" {
			id = row.ID
		}
		if id == "" {
			return nil, serrors.Mappingf(string(domain.KindPortGroup), "port-group without id")
		}
		if seen[id] {
			return nil, serrors.Mappingf(string(domain.KindPortGroup), "duplicate port-group %s", id)
		}
		seen[id] = true

		group := domain.PortGroup{
			ID:           id,
			Speed:        domain.IdentityName(row.State.Speed),
			ValidSpeeds:  identities(row.State.ValidSpeeds),
			DefaultSpeed: domain.IdentityName(row.State.DefaultSpeed),
		}

		var members []domain.Member
		if row.State.MemberIfStart != "" && row.State.MemberIfEnd != "" {
			names, err := ExpandRange(row.State.MemberIfStart, row.State.MemberIfEnd)
			if err != nil {
				return nil, serrors.WrapMapping("map", string(domain.KindPortGroup), err).WithKey(id)
			}
			members = make([]domain.Member, len(names))
			for i, name := range names {
				members[i] = domain.PortGroupMember(name)
			}
		}

		entries = append(entries, domain.Entry[domain.PortGroup]{Key: id, Entity: group, Members: members})
	}

	return entries, nil
}
