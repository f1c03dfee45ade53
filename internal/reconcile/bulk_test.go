package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
)

// orderSyncer appends "<device>/<kind>" to a shared log
type orderSyncer struct {
	kind   domain.Kind
	mu     *sync.Mutex
	log    *[]string
	failOn string
}

func (s *orderSyncer) Kind() domain.Kind { return s.kind }

func (s *orderSyncer) Discover(ctx context.Context, deviceIP string) (Result, error) {
	s.mu.Lock()
	*s.log = append(*s.log, deviceIP+"/"+string(s.kind))
	s.mu.Unlock()
	if deviceIP == s.failOn {
		return Result{}, errors.New("unreachable")
	}
	return Result{DeviceIP: deviceIP, Kind: s.kind}, nil
}

func newOrderSyncers(failOn string, kinds ...domain.Kind) ([]Syncer, *[]string) {
	var (
		mu  sync.Mutex
		log []string
	)
	syncers := make([]Syncer, len(kinds))
	for i, k := range kinds {
		syncers[i] = &orderSyncer{kind: k, mu: &mu, log: &log, failOn: failOn}
	}
	return syncers, &log
}

func TestRunnerRunsKindsInDependencyOrder(t *testing.T) {
	repo := newTestStore(t)
	// Registered out of order on purpose
	syncers, log := newOrderSyncers("", domain.KindSTPPort, domain.KindVLAN, domain.KindInterface)
	r := NewRunner(repo, 1, syncers...)

	assert.Equal(t, []domain.Kind{domain.KindInterface, domain.KindVLAN, domain.KindSTPPort}, r.Kinds())

	results, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, []string{"10.0.0.1/interface", "10.0.0.1/vlan", "10.0.0.1/stp_port"}, *log)
}

func TestRunnerContinuesPastFailures(t *testing.T) {
	repo := newTestStore(t, "10.0.0.1", "10.0.0.2", "10.0.0.3")
	syncers, log := newOrderSyncers("10.0.0.2", domain.KindInterface, domain.KindVLAN)
	r := NewRunner(repo, 2, syncers...)

	results, err := r.Run(context.Background(), []domain.Kind{domain.KindVLAN, domain.KindInterface})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Len(t, results, 4, "two healthy devices, two kinds each")
	assert.Len(t, *log, 6, "the failing device still runs every kind")
}

func TestRunnerSelectsDevices(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t, "10.0.0.1", "10.0.1.1")
	require.NoError(t, repo.UpsertDevice(ctx, &domain.Device{MgtIP: "10.0.1.1", Name: "leaf-1"}))

	syncers, log := newOrderSyncers("", domain.KindVLAN)
	r := NewRunner(repo, 4, syncers...)

	_, err := r.Run(ctx, nil, "10.0.0.*")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1/vlan"}, *log)

	selected, err := r.SelectDevices(ctx, "leaf-*")
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "10.0.1.1", selected[0].MgtIP)

	results, err := r.Run(ctx, nil, "192.168.*")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunnerRejectsUnknownKinds(t *testing.T) {
	repo := newTestStore(t)
	syncers, _ := newOrderSyncers("", domain.KindVLAN)
	r := NewRunner(repo, 1, syncers...)

	_, err := r.Run(context.Background(), []domain.Kind{domain.KindPortGroup})
	assert.ErrorIs(t, err, serrors.ErrValidation)
}
