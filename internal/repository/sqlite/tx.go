package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"switchgraph/internal/domain"
	"switchgraph/internal/repository"
)

// Tx is the graph store seen from inside a transaction
type Tx struct {
	tx *sql.Tx
}

var _ repository.GraphTx = (*Tx)(nil)

func (t *Tx) GetDevice(ctx context.Context, mgtIP string) (*domain.Device, error) {
	return getDevice(ctx, t.tx, mgtIP)
}

func (t *Tx) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return listDevices(ctx, t.tx)
}

func (t *Tx) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	return getNode(ctx, t.tx, id)
}

func (t *Tx) GetNodeByKey(ctx context.Context, deviceIP string, kind domain.Kind, key string) (*domain.Node, error) {
	return getNodeByKey(ctx, t.tx, deviceIP, kind, key)
}

func (t *Tx) ListNodes(ctx context.Context, deviceIP string, kind domain.Kind) ([]domain.Node, error) {
	return listNodes(ctx, t.tx, deviceIP, kind)
}

func (t *Tx) ListEdgesFrom(ctx context.Context, fromID string, edgeType domain.EdgeType) ([]domain.Edge, error) {
	return listEdgesFrom(ctx, t.tx, fromID, edgeType)
}

// CreateNode inserts a new node. A node with the same (device, kind, key)
// violates the identity index.
func (t *Tx) CreateNode(ctx context.Context, node *domain.Node) error {
	args, err := nodeInsertArgs(node)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO nodes (`+nodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return fmt.Errorf("failed to create node %s/%s/%s: %w", node.DeviceIP, node.Kind, node.Key, err)
	}
	return nil
}

// UpdateNodeProperties replaces a node's properties in place. The node ID,
// and with it every edge, is preserved.
func (t *Tx) UpdateNodeProperties(ctx context.Context, id string, props map[string]any, updatedAt time.Time) error {
	propsJSON, err := marshalToNull(props)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}

	res, err := t.tx.ExecContext(ctx,
		`UPDATE nodes SET properties = ?, updated_at = ? WHERE id = ?`,
		propsJSON, updatedAt.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update node %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update node %s: no such node", id)
	}
	return nil
}

// DeleteNode deletes a node and, by cascade, its edges
func (t *Tx) DeleteNode(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete node %s: %w", id, err)
	}
	return nil
}

// UpsertEdge inserts an edge or replaces its properties. It reports whether
// anything was written; an edge whose properties already match is left
// untouched.
func (t *Tx) UpsertEdge(ctx context.Context, edge *domain.Edge) (bool, error) {
	args, err := edgeInsertArgs(edge)
	if err != nil {
		return false, err
	}

	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET properties = excluded.properties
		WHERE edges.properties IS NOT excluded.properties
	`, args...)
	if err != nil {
		return false, fmt.Errorf("failed to upsert edge %s: %w", edge.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to upsert edge %s: %w", edge.ID, err)
	}
	return n > 0, nil
}

// DeleteEdge deletes an edge
func (t *Tx) DeleteEdge(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete edge %s: %w", id, err)
	}
	return nil
}
