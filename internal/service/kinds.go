package service

import (
	"context"

	"switchgraph/internal/domain"
	"switchgraph/internal/mapper"
	"switchgraph/internal/reconcile"
	"switchgraph/internal/transport"
)

// Engine descriptors, one per resource kind
var (
	InterfaceKind = reconcile.Kind[domain.Interface, transport.Raw]{
		Name:  domain.KindInterface,
		Fetch: fetchResource(transport.ResourceInterface),
		Map:   mapper.MapInterfaces,
	}

	VLANKind = reconcile.Kind[domain.Vlan, mapper.VLANRaw]{
		Name:  domain.KindVLAN,
		Fetch: fetchVLANs,
		Map:   mapper.MapVLANs,
	}

	PortGroupKind = reconcile.Kind[domain.PortGroup, transport.Raw]{
		Name:  domain.KindPortGroup,
		Fetch: fetchResource(transport.ResourcePortGroup),
		Map:   mapper.MapPortGroups,
	}

	STPPortKind = reconcile.Kind[domain.STPPort, transport.Raw]{
		Name:  domain.KindSTPPort,
		Fetch: fetchResource(transport.ResourceSTPPort),
		Map:   mapper.MapSTPPorts,
	}
)

func fetchResource(res transport.Resource) func(context.Context, transport.Fetcher, string) (transport.Raw, error) {
	return func(ctx context.Context, f transport.Fetcher, deviceIP string) (transport.Raw, error) {
		return f.Fetch(ctx, deviceIP, res, "")
	}
}

// fetchVLANs reads the VLAN tables and then the IPv4 detail of every VLAN
// they list
func fetchVLANs(ctx context.Context, f transport.Fetcher, deviceIP string) (mapper.VLANRaw, error) {
	details, err := f.Fetch(ctx, deviceIP, transport.ResourceVLAN, "")
	if err != nil {
		return mapper.VLANRaw{}, err
	}

	names, err := mapper.VLANNames(details)
	if err != nil {
		return mapper.VLANRaw{}, err
	}

	ipv4 := make(map[string]transport.Raw, len(names))
	for _, name := range names {
		raw, err := f.Fetch(ctx, deviceIP, transport.ResourceVLANIP, name)
		if err != nil {
			return mapper.VLANRaw{}, err
		}
		ipv4[name] = raw
	}

	return mapper.VLANRaw{Details: details, IPv4: ipv4}, nil
}

// NewSyncers builds one engine per kind, in discovery order
func NewSyncers(f transport.Fetcher, r *reconcile.Reconciler, cfg reconcile.EngineConfig) []reconcile.Syncer {
	return []reconcile.Syncer{
		reconcile.NewEngine(InterfaceKind, f, r, cfg),
		reconcile.NewEngine(VLANKind, f, r, cfg),
		reconcile.NewEngine(PortGroupKind, f, r, cfg),
		reconcile.NewEngine(STPPortKind, f, r, cfg),
	}
}
