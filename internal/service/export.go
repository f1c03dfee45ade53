package service

import (
	"context"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

// Export collects the stored entities and memberships of every registered
// device matching patterns
func (s *Service) Export(ctx context.Context, patterns ...string) (*domain.GraphFragment, error) {
	devices, err := s.SelectDevices(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	fragment := domain.NewGraphFragment()
	for _, d := range devices {
		fragment.AddDevice(d)

		nodes, err := s.store.ListNodes(ctx, d.MgtIP, "")
		if err != nil {
			return nil, serrors.WrapStore("export", d.MgtIP, err)
		}
		for _, n := range nodes {
			fragment.AddNode(n)

			edgeType := n.Kind.MemberEdge()
			if edgeType == "" {
				continue
			}
			edges, err := s.store.ListEdgesFrom(ctx, n.ID, edgeType)
			if err != nil {
				return nil, serrors.WrapStore("export", d.MgtIP, err).WithKind(string(n.Kind)).WithKey(n.Key)
			}
			for _, e := range edges {
				fragment.AddEdge(e)
			}
		}
	}
	return fragment, nil
}
