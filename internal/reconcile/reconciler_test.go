package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/repository"
	"switchgraph/internal/repository/sqlite"
)

const testDevice = "10.0.0.1"

func newTestStore(t *testing.T, devices ...string) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	if len(devices) == 0 {
		devices = []string{testDevice}
	}
	for _, ip := range devices {
		require.NoError(t, repo.UpsertDevice(context.Background(), &domain.Device{MgtIP: ip}))
	}
	return repo
}

func ifaceItems(names ...string) []Item {
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = Item{Key: n, Properties: map[string]any{"name": n}}
	}
	return items
}

func vlanItem(id float64, name string, members ...domain.Member) Item {
	return Item{
		Key:        name,
		Properties: map[string]any{"vlanid": id, "name": name},
		Members:    members,
	}
}

type graphSnapshot struct {
	Nodes []domain.Node
	Edges map[string][]domain.Edge
}

func snapshot(t *testing.T, repo *sqlite.Repository, deviceIP string) graphSnapshot {
	t.Helper()
	ctx := context.Background()
	nodes, err := repo.ListNodes(ctx, deviceIP, "")
	require.NoError(t, err)
	edges := make(map[string][]domain.Edge)
	for _, n := range nodes {
		out, err := repo.ListEdgesFrom(ctx, n.ID, "")
		require.NoError(t, err)
		edges[n.ID] = out
	}
	return graphSnapshot{Nodes: nodes, Edges: edges}
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(ctx, testDevice, domain.KindInterface, ifaceItems("Ethernet0", "Ethernet4"))
	require.NoError(t, err)

	items := []Item{vlanItem(10, "Vlan10",
		domain.VLANMember("Ethernet0", domain.TaggingModeTagged),
		domain.VLANMember("Ethernet4", domain.TaggingModeUntagged),
	)}

	first, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, items)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 2, first.MembersLinked)
	assert.True(t, first.Changed())

	before := snapshot(t, repo, testDevice)

	second, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, items)
	require.NoError(t, err)
	assert.False(t, second.Changed(), "second identical pass must not write: %+v", second)
	assert.Equal(t, 1, second.Unchanged)

	assert.Equal(t, before, snapshot(t, repo, testDevice))
}

func TestReconcilePrunesStaleEntities(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(ctx, testDevice, domain.KindInterface, ifaceItems("Ethernet0", "Ethernet4"))
	require.NoError(t, err)

	_, err = r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{
		vlanItem(10, "Vlan10", domain.VLANMember("Ethernet0", domain.TaggingModeTagged)),
		vlanItem(20, "Vlan20", domain.VLANMember("Ethernet4", domain.TaggingModeUntagged)),
	})
	require.NoError(t, err)
	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.Edges)

	res, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{
		vlanItem(10, "Vlan10", domain.VLANMember("Ethernet0", domain.TaggingModeTagged)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	nodes, err := repo.ListNodes(ctx, testDevice, domain.KindVLAN)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Vlan10", nodes[0].Key)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Edges, "membership edges of the pruned VLAN are removed with it")

	res, err = r.Reconcile(ctx, testDevice, domain.KindVLAN, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	nodes, err = repo.ListNodes(ctx, testDevice, domain.KindVLAN)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Edges)
	assert.Equal(t, 2, stats.Nodes[domain.KindInterface], "member interfaces survive")
}

func TestReconcileSkipsUnknownInterfaces(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(ctx, testDevice, domain.KindInterface, ifaceItems("Ethernet0"))
	require.NoError(t, err)

	res, err := r.Reconcile(ctx, testDevice, domain.KindPortGroup, []Item{{
		Key:        "1",
		Properties: map[string]any{"port_group_id": "1"},
		Members:    []domain.Member{domain.PortGroupMember("Ethernet0"), domain.PortGroupMember("Ethernet1")},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.MembersLinked)
	assert.Equal(t, 1, res.MembersSkipped)

	pg, err := repo.GetNodeByKey(ctx, testDevice, domain.KindPortGroup, "1")
	require.NoError(t, err)
	edges, err := repo.ListEdgesFrom(ctx, pg.ID, domain.EdgeTypePortGroupMember)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestReconcileUpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(ctx, testDevice, domain.KindInterface, ifaceItems("Ethernet0", "Ethernet4"))
	require.NoError(t, err)
	_, err = r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{vlanItem(10, "Vlan10",
		domain.VLANMember("Ethernet0", domain.TaggingModeTagged),
		domain.VLANMember("Ethernet4", domain.TaggingModeTagged),
	)})
	require.NoError(t, err)

	original, err := repo.GetNodeByKey(ctx, testDevice, domain.KindVLAN, "Vlan10")
	require.NoError(t, err)

	changed := vlanItem(10, "Vlan10", domain.VLANMember("Ethernet0", domain.TaggingModeUntagged))
	changed.Properties["mtu"] = float64(9100)

	res, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{changed})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.MembersLinked, "tagging mode change rewrites the edge")
	assert.Equal(t, 1, res.MembersRemoved, "undeclared member is unlinked")

	updated, err := repo.GetNodeByKey(ctx, testDevice, domain.KindVLAN, "Vlan10")
	require.NoError(t, err)
	assert.Equal(t, original.ID, updated.ID, "node identity survives updates")
	assert.Equal(t, float64(9100), updated.Properties["mtu"])
	assert.True(t, updated.UpdatedAt.After(original.UpdatedAt) || updated.UpdatedAt.Equal(original.UpdatedAt))

	edges, err := repo.ListEdgesFrom(ctx, updated.ID, domain.EdgeTypeVLANMember)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	mode, err := domain.TaggingModeOf(edges[0])
	require.NoError(t, err)
	assert.Equal(t, domain.TaggingModeUntagged, mode)
}

func TestReconcileIsolatesDevicesAndKinds(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, "10.0.0.1", "10.0.0.2")
	r := NewReconciler(repo, nil)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		_, err := r.Reconcile(ctx, ip, domain.KindVLAN, []Item{vlanItem(10, "Vlan10")})
		require.NoError(t, err)
	}
	_, err := r.Reconcile(ctx, "10.0.0.1", domain.KindInterface, ifaceItems("Vlan10"))
	require.NoError(t, err)

	_, err = r.Reconcile(ctx, "10.0.0.1", domain.KindVLAN, nil)
	require.NoError(t, err)

	other, err := repo.GetNodeByKey(ctx, "10.0.0.2", domain.KindVLAN, "Vlan10")
	require.NoError(t, err)
	assert.NotNil(t, other, "other device untouched")

	iface, err := repo.GetNodeByKey(ctx, "10.0.0.1", domain.KindInterface, "Vlan10")
	require.NoError(t, err)
	assert.NotNil(t, iface, "other kind untouched")
}

func TestReconcileRejectsBadSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{vlanItem(10, "Vlan10"), vlanItem(10, "Vlan10")})
	assert.ErrorIs(t, err, serrors.ErrValidation)

	_, err = r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{{Key: ""}})
	assert.ErrorIs(t, err, serrors.ErrValidation)

	_, err = r.Reconcile(ctx, testDevice, domain.Kind("bogus"), nil)
	assert.ErrorIs(t, err, serrors.ErrValidation)

	nodes, err := repo.ListNodes(ctx, testDevice, "")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestReconcileUnknownDevice(t *testing.T) {
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	_, err := r.Reconcile(context.Background(), "192.0.2.1", domain.KindVLAN, []Item{vlanItem(10, "Vlan10")})
	require.Error(t, err)
	assert.True(t, serrors.IsNotFound(err))
}

func TestReconcileCancelledWritesNothing(t *testing.T) {
	repo := newTestStore(t)
	r := NewReconciler(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{vlanItem(10, "Vlan10")})
	assert.ErrorIs(t, err, context.Canceled)

	nodes, err := repo.ListNodes(context.Background(), testDevice, "")
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

// failingStore fails every node deletion inside a transaction
type failingStore struct {
	*sqlite.Repository
}

func (s *failingStore) InTx(ctx context.Context, fn func(tx repository.GraphTx) error) error {
	return s.Repository.InTx(ctx, func(tx repository.GraphTx) error {
		return fn(&failingTx{GraphTx: tx})
	})
}

type failingTx struct {
	repository.GraphTx
}

var errDiskFull = errors.New("disk full")

func (t *failingTx) DeleteNode(ctx context.Context, id string) error {
	return errDiskFull
}

func TestReconcileRollsBackOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	_, err := NewReconciler(repo, nil).Reconcile(ctx, testDevice, domain.KindVLAN, []Item{vlanItem(10, "Vlan10"), vlanItem(20, "Vlan20")})
	require.NoError(t, err)
	before := snapshot(t, repo, testDevice)

	changed := vlanItem(10, "Vlan10")
	changed.Properties["mtu"] = float64(9100)

	r := NewReconciler(&failingStore{Repository: repo}, nil)
	res, err := r.Reconcile(ctx, testDevice, domain.KindVLAN, []Item{changed, vlanItem(30, "Vlan30")})
	require.Error(t, err)
	assert.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, err, serrors.ErrStore)
	assert.False(t, res.Changed())

	assert.Equal(t, before, snapshot(t, repo, testDevice), "failed pass leaves the store as it was")
}
