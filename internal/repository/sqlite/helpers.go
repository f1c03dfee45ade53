package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"switchgraph/internal/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query helper works
// inside and outside a transaction
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToString safely converts sql.NullString to string
func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// stringToNull safely converts string to sql.NullString
func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// ============================================================================
// JSON Marshaling Helpers
// ============================================================================

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target any) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a property map to a nullable JSON string.
// Returns empty NullString for nil or empty maps
func marshalToNull(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// ============================================================================
// Schema Evolution Guide
// ============================================================================
//
// To add a new column to nodes table:
// 1. Add field to nodeRow struct (below)
// 2. Update scanArgs() - APPEND to end to match column order
// 3. Update nodeColumns constant - APPEND to end
// 4. Update toDomain() to map new field to domain.Node
// 5. Update nodeInsertArgs() if column should be writable
// 6. Add the column to the schema in sqlite.go migrate()
// 7. Update relevant tests
//
// CRITICAL: Column order must match between:
// - nodeColumns constant
// - scanArgs() return slice
// - All SELECT queries using nodeColumns
//
// Same pattern applies to devices and edges.

// ============================================================================
// Device Row Scanner
// ============================================================================

type deviceRow struct {
	MgtIP     string
	Name      sql.NullString
	Platform  sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

// scanArgs MUST match deviceColumns order: mgt_ip, name, platform, created_at, updated_at
func (r *deviceRow) scanArgs() []any {
	return []any{&r.MgtIP, &r.Name, &r.Platform, &r.CreatedAt, &r.UpdatedAt}
}

func (r *deviceRow) toDomain() *domain.Device {
	return &domain.Device{
		MgtIP:     r.MgtIP,
		Name:      nullToString(r.Name),
		Platform:  nullToString(r.Platform),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

const deviceColumns = `mgt_ip, name, platform, created_at, updated_at`

// ============================================================================
// Node Row Scanner
// ============================================================================

// nodeRow holds all columns from a node query for scanning
type nodeRow struct {
	ID             string
	DeviceIP       string
	Kind           string
	Key            string
	PropertiesJSON sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match nodeColumns order exactly:
// id, device_ip, kind, entity_key, properties, created_at, updated_at
func (r *nodeRow) scanArgs() []any {
	return []any{
		&r.ID,             // 1
		&r.DeviceIP,       // 2
		&r.Kind,           // 3
		&r.Key,            // 4
		&r.PropertiesJSON, // 5
		&r.CreatedAt,      // 6
		&r.UpdatedAt,      // 7
	}
}

// toDomain converts the scanned row to a domain.Node
func (r *nodeRow) toDomain() (*domain.Node, error) {
	node := &domain.Node{
		ID:        r.ID,
		DeviceIP:  r.DeviceIP,
		Kind:      domain.Kind(r.Kind),
		Key:       r.Key,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}

	if err := unmarshalJSONField(r.PropertiesJSON, &node.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}

	return node, nil
}

// nodeColumns returns the SELECT column list for node queries
const nodeColumns = `id, device_ip, kind, entity_key, properties, created_at, updated_at`

// ============================================================================
// Edge Row Scanner
// ============================================================================

// edgeRow holds all columns from an edge query for scanning
type edgeRow struct {
	ID             string
	FromID         string
	ToID           string
	Type           string
	PropertiesJSON sql.NullString
}

// scanArgs returns pointers to all fields for sql.Scan()
// MUST match edgeColumns order exactly:
// id, from_id, to_id, type, properties
func (r *edgeRow) scanArgs() []any {
	return []any{
		&r.ID,             // 1
		&r.FromID,         // 2
		&r.ToID,           // 3
		&r.Type,           // 4
		&r.PropertiesJSON, // 5
	}
}

// toDomain converts the scanned row to a domain.Edge
func (r *edgeRow) toDomain() (*domain.Edge, error) {
	edge := &domain.Edge{
		ID:     r.ID,
		FromID: r.FromID,
		ToID:   r.ToID,
		Type:   domain.EdgeType(r.Type),
	}

	if err := unmarshalJSONField(r.PropertiesJSON, &edge.Properties); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}

	return edge, nil
}

// edgeColumns returns the SELECT column list for edge queries
const edgeColumns = `id, from_id, to_id, type, properties`

// ============================================================================
// Write Helpers
// ============================================================================

// nodeInsertArgs prepares arguments for node INSERT
// Returns: id, device_ip, kind, entity_key, properties, created_at, updated_at
func nodeInsertArgs(node *domain.Node) ([]any, error) {
	propsJSON, err := marshalToNull(node.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}

	return []any{
		node.ID,
		node.DeviceIP,
		string(node.Kind),
		node.Key,
		propsJSON,
		node.CreatedAt.UTC(),
		node.UpdatedAt.UTC(),
	}, nil
}

// edgeInsertArgs prepares arguments for edge UPSERT
// Returns: id, from_id, to_id, type, properties
func edgeInsertArgs(edge *domain.Edge) ([]any, error) {
	propsJSON, err := marshalToNull(edge.Properties)
	if err != nil {
		return nil, fmt.Errorf("marshal properties: %w", err)
	}

	return []any{
		edge.ID,
		edge.FromID,
		edge.ToID,
		string(edge.Type),
		propsJSON,
	}, nil
}

// ============================================================================
// Shared Queries
// ============================================================================

func getNode(ctx context.Context, q dbtx, id string) (*domain.Node, error) {
	var row nodeRow
	err := q.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return row.toDomain()
}

func getNodeByKey(ctx context.Context, q dbtx, deviceIP string, kind domain.Kind, key string) (*domain.Node, error) {
	var row nodeRow
	err := q.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE device_ip = ? AND kind = ? AND entity_key = ?`,
		deviceIP, string(kind), key,
	).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	return row.toDomain()
}

func listNodes(ctx context.Context, q dbtx, deviceIP string, kind domain.Kind) ([]domain.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE 1 = 1`
	var args []any
	if deviceIP != "" {
		query += ` AND device_ip = ?`
		args = append(args, deviceIP)
	}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY device_ip, kind, entity_key`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	var nodes []domain.Node
	for rows.Next() {
		var row nodeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		node, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	return nodes, rows.Err()
}

func listEdgesFrom(ctx context.Context, q dbtx, fromID string, edgeType domain.EdgeType) ([]domain.Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM edges WHERE from_id = ?`
	args := []any{fromID}
	if edgeType != "" {
		query += ` AND type = ?`
		args = append(args, string(edgeType))
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.Edge
	for rows.Next() {
		var row edgeRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		edges = append(edges, *edge)
	}
	return edges, rows.Err()
}
