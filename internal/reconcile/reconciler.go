package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"switchgraph/internal/domain"
	serrors "switchgraph/internal/errors"
	"switchgraph/internal/repository"
)

// Item is one entity ready to be stored: its natural key, its flattened
// properties and its declared memberships.
type Item struct {
	Key        string
	Properties map[string]any
	Members    []domain.Member
}

// Result counts what one reconciliation changed
type Result struct {
	DeviceIP       string      `json:"device_ip"`
	Kind           domain.Kind `json:"kind"`
	Created        int         `json:"created"`
	Updated        int         `json:"updated"`
	Unchanged      int         `json:"unchanged"`
	Deleted        int         `json:"deleted"`
	MembersLinked  int         `json:"members_linked"`
	MembersSkipped int         `json:"members_skipped"`
	MembersRemoved int         `json:"members_removed"`
}

// Changed reports whether the pass wrote anything
func (r Result) Changed() bool {
	return r.Created+r.Updated+r.Deleted+r.MembersLinked+r.MembersRemoved > 0
}

// InterfaceResolver finds the interface node a membership points at. A nil
// node with a nil error means the interface is not known, which is not a
// failure.
type InterfaceResolver interface {
	ResolveInterface(ctx context.Context, g repository.GraphReader, deviceIP, name string) (*domain.Node, error)
}

// StoreResolver resolves interfaces from the interface nodes already stored
// for the device
type StoreResolver struct{}

func (StoreResolver) ResolveInterface(ctx context.Context, g repository.GraphReader, deviceIP, name string) (*domain.Node, error) {
	return g.GetNodeByKey(ctx, deviceIP, domain.KindInterface, name)
}

// Reconciler writes a snapshot of one kind on one device into the graph
// store. Each pass runs in a single transaction under a lock on
// (device, kind).
type Reconciler struct {
	store    repository.GraphStore
	resolver InterfaceResolver
	locks    *KeyedLock
	now      func() time.Time
}

// NewReconciler creates a reconciler. A nil resolver means StoreResolver.
func NewReconciler(store repository.GraphStore, resolver InterfaceResolver) *Reconciler {
	if resolver == nil {
		resolver = StoreResolver{}
	}
	return &Reconciler{
		store:    store,
		resolver: resolver,
		locks:    NewKeyedLock(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// EnsureDevice returns a not-found error unless deviceIP is registered
func (r *Reconciler) EnsureDevice(ctx context.Context, deviceIP string) error {
	device, err := r.store.GetDevice(ctx, deviceIP)
	if err != nil {
		return serrors.WrapStore("get_device", deviceIP, err)
	}
	if device == nil {
		return serrors.NotFound(deviceIP, "", "")
	}
	return nil
}

// Reconcile makes the stored entities of kind on deviceIP equal to items.
// Entities are created or updated in place, memberships are linked to the
// interfaces that exist, and entities missing from items are deleted along
// with their edges. Nothing is written when ctx is already done.
func (r *Reconciler) Reconcile(ctx context.Context, deviceIP string, kind domain.Kind, items []Item) (Result, error) {
	res := Result{DeviceIP: deviceIP, Kind: kind}

	if !kind.Valid() {
		return res, serrors.Invalid("reconcile", "unknown kind %q", kind).WithDevice(deviceIP)
	}
	wanted := make(map[string]bool, len(items))
	for _, item := range items {
		if item.Key == "" {
			return res, serrors.Invalid("reconcile", "entity with empty key").WithDevice(deviceIP).WithKind(string(kind))
		}
		if wanted[item.Key] {
			return res, serrors.Invalid("reconcile", "duplicate key in snapshot").WithDevice(deviceIP).WithKind(string(kind)).WithKey(item.Key)
		}
		wanted[item.Key] = true
	}

	unlock, err := r.locks.Lock(ctx, deviceIP+"|"+string(kind))
	if err != nil {
		return res, err
	}
	defer unlock()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	err = r.store.InTx(ctx, func(tx repository.GraphTx) error {
		return r.apply(ctx, tx, deviceIP, kind, items, wanted, &res)
	})
	if err != nil {
		if _, ok := serrors.As(err); ok {
			return Result{DeviceIP: deviceIP, Kind: kind}, err
		}
		return Result{DeviceIP: deviceIP, Kind: kind}, serrors.WrapStore("reconcile", deviceIP, err).WithKind(string(kind))
	}
	return res, nil
}

func (r *Reconciler) apply(ctx context.Context, tx repository.GraphTx, deviceIP string, kind domain.Kind, items []Item, wanted map[string]bool, res *Result) error {
	device, err := tx.GetDevice(ctx, deviceIP)
	if err != nil {
		return err
	}
	if device == nil {
		return serrors.NotFound(deviceIP, "", "")
	}

	now := r.now()
	edgeType := kind.MemberEdge()

	for _, item := range items {
		node, err := r.upsertNode(ctx, tx, deviceIP, kind, item, now, res)
		if err != nil {
			return err
		}
		if edgeType == "" {
			continue
		}
		if err := r.linkMembers(ctx, tx, deviceIP, node, edgeType, item.Members, res); err != nil {
			return err
		}
	}

	existing, err := tx.ListNodes(ctx, deviceIP, kind)
	if err != nil {
		return err
	}
	for _, node := range existing {
		if wanted[node.Key] {
			continue
		}
		if err := tx.DeleteNode(ctx, node.ID); err != nil {
			return err
		}
		res.Deleted++
		log.Debug().
			Str("device", deviceIP).
			Str("kind", string(kind)).
			Str("key", node.Key).
			Msg("Pruned stale entity")
	}
	return nil
}

func (r *Reconciler) upsertNode(ctx context.Context, tx repository.GraphTx, deviceIP string, kind domain.Kind, item Item, now time.Time, res *Result) (*domain.Node, error) {
	node, err := tx.GetNodeByKey(ctx, deviceIP, kind, item.Key)
	if err != nil {
		return nil, err
	}

	if node == nil {
		node = domain.NewNode(deviceIP, kind, item.Key)
		node.Properties = item.Properties
		node.CreatedAt, node.UpdatedAt = now, now
		if err := tx.CreateNode(ctx, node); err != nil {
			return nil, err
		}
		res.Created++
		return node, nil
	}

	if domain.PropertiesEqual(node.Properties, item.Properties) {
		res.Unchanged++
		return node, nil
	}
	if err := tx.UpdateNodeProperties(ctx, node.ID, item.Properties, now); err != nil {
		return nil, err
	}
	node.Properties = item.Properties
	node.UpdatedAt = now
	res.Updated++
	return node, nil
}

// linkMembers upserts one edge per resolvable member and removes the entity's
// edges that are no longer declared
func (r *Reconciler) linkMembers(ctx context.Context, tx repository.GraphTx, deviceIP string, node *domain.Node, edgeType domain.EdgeType, members []domain.Member, res *Result) error {
	keep := make(map[string]bool, len(members))

	for _, m := range members {
		target, err := r.resolver.ResolveInterface(ctx, tx, deviceIP, m.Interface)
		if err != nil {
			return fmt.Errorf("resolve interface %s: %w", m.Interface, err)
		}
		if target == nil {
			res.MembersSkipped++
			log.Debug().
				Str("device", deviceIP).
				Str("kind", string(node.Kind)).
				Str("key", node.Key).
				Str("interface", m.Interface).
				Msg("Skipping membership of unknown interface")
			continue
		}

		edge := domain.NewEdge(node.ID, target.ID, edgeType)
		for k, v := range m.Properties {
			edge.SetProperty(k, v)
		}
		keep[edge.ID] = true

		written, err := tx.UpsertEdge(ctx, edge)
		if err != nil {
			return err
		}
		if written {
			res.MembersLinked++
		}
	}

	current, err := tx.ListEdgesFrom(ctx, node.ID, edgeType)
	if err != nil {
		return err
	}
	for _, edge := range current {
		if keep[edge.ID] {
			continue
		}
		if err := tx.DeleteEdge(ctx, edge.ID); err != nil {
			return err
		}
		res.MembersRemoved++
	}
	return nil
}
