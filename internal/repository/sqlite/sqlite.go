package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"switchgraph/internal/domain"
	"switchgraph/internal/repository"
)

// Repository implements repository.Store using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

var _ repository.Store = (*Repository)(nil)

// New creates a new SQLite repository. dbPath may be ":memory:".
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?" + url.Values{
		"_pragma": []string{
			"foreign_keys(1)",
			"busy_timeout(5000)",
			"journal_mode(WAL)",
		},
		"_txlock": []string{"immediate"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists once per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	repo := &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS devices (
		mgt_ip TEXT PRIMARY KEY,
		name TEXT,
		platform TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS nodes (
		id TEXT PRIMARY KEY,
		device_ip TEXT NOT NULL,
		kind TEXT NOT NULL,
		entity_key TEXT NOT NULL,
		properties JSON,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (device_ip) REFERENCES devices(mgt_ip) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS edges (
		id TEXT PRIMARY KEY,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		type TEXT NOT NULL,
		properties JSON,
		FOREIGN KEY (from_id) REFERENCES nodes(id) ON DELETE CASCADE,
		FOREIGN KEY (to_id) REFERENCES nodes(id) ON DELETE CASCADE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_identity ON nodes(device_ip, kind, entity_key);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_id, type);
	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Close releases the database
func (r *Repository) Close() error {
	return r.db.Close()
}

// ============================================================================
// Devices
// ============================================================================

// GetDevice returns a device by management IP, or nil if it is unknown
func (r *Repository) GetDevice(ctx context.Context, mgtIP string) (*domain.Device, error) {
	return getDevice(ctx, r.db, mgtIP)
}

func getDevice(ctx context.Context, q dbtx, mgtIP string) (*domain.Device, error) {
	var row deviceRow
	err := q.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM devices WHERE mgt_ip = ?`, mgtIP).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return row.toDomain(), nil
}

// ListDevices returns all devices ordered by management IP
func (r *Repository) ListDevices(ctx context.Context) ([]domain.Device, error) {
	return listDevices(ctx, r.db)
}

func listDevices(ctx context.Context, q dbtx) ([]domain.Device, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+deviceColumns+` FROM devices ORDER BY mgt_ip`)
	if err != nil {
		return nil, fmt.Errorf("failed to query devices: %w", err)
	}
	defer rows.Close()

	var devices []domain.Device
	for rows.Next() {
		var row deviceRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, *row.toDomain())
	}
	return devices, rows.Err()
}

// UpsertDevice inserts or updates a device
func (r *Repository) UpsertDevice(ctx context.Context, device *domain.Device) error {
	_, err := upsertDevice(ctx, r.db, device, r.now())
	return err
}

// upsertDevice reports whether a row was written
func upsertDevice(ctx context.Context, q dbtx, device *domain.Device, now time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO devices (mgt_ip, name, platform, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(mgt_ip) DO UPDATE SET
			name = excluded.name,
			platform = excluded.platform,
			updated_at = excluded.updated_at
		WHERE devices.name IS NOT excluded.name OR devices.platform IS NOT excluded.platform
	`, device.MgtIP, stringToNull(device.Name), stringToNull(device.Platform), now, now)
	if err != nil {
		return false, fmt.Errorf("failed to upsert device %s: %w", device.MgtIP, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to upsert device %s: %w", device.MgtIP, err)
	}
	return n > 0, nil
}

// DeleteDevice deletes a device and, by cascade, all of its nodes and edges
func (r *Repository) DeleteDevice(ctx context.Context, mgtIP string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE mgt_ip = ?`, mgtIP)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}

// SyncDevices makes the devices table equal to devices in one transaction
func (r *Repository) SyncDevices(ctx context.Context, devices []domain.Device) (repository.SyncSummary, error) {
	var summary repository.SyncSummary

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := listDevices(ctx, tx)
	if err != nil {
		return summary, err
	}
	known := make(map[string]bool, len(existing))
	for _, d := range existing {
		known[d.MgtIP] = true
	}

	now := r.now()
	wanted := make(map[string]bool, len(devices))
	for i := range devices {
		d := &devices[i]
		wanted[d.MgtIP] = true
		written, err := upsertDevice(ctx, tx, d, now)
		if err != nil {
			return summary, err
		}
		switch {
		case !known[d.MgtIP]:
			summary.Added = append(summary.Added, d.MgtIP)
		case written:
			summary.Updated = append(summary.Updated, d.MgtIP)
		}
	}

	for _, d := range existing {
		if wanted[d.MgtIP] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE mgt_ip = ?`, d.MgtIP); err != nil {
			return summary, fmt.Errorf("failed to delete device %s: %w", d.MgtIP, err)
		}
		summary.Removed = append(summary.Removed, d.MgtIP)
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("failed to commit device sync: %w", err)
	}
	return summary, nil
}

// ============================================================================
// Graph reads
// ============================================================================

// GetNode returns a node by ID, or nil if it does not exist
func (r *Repository) GetNode(ctx context.Context, id string) (*domain.Node, error) {
	return getNode(ctx, r.db, id)
}

// GetNodeByKey returns the node of (device, kind, key), or nil
func (r *Repository) GetNodeByKey(ctx context.Context, deviceIP string, kind domain.Kind, key string) (*domain.Node, error) {
	return getNodeByKey(ctx, r.db, deviceIP, kind, key)
}

// ListNodes lists nodes. Empty deviceIP or kind means all.
func (r *Repository) ListNodes(ctx context.Context, deviceIP string, kind domain.Kind) ([]domain.Node, error) {
	return listNodes(ctx, r.db, deviceIP, kind)
}

// ListEdgesFrom lists edges leaving a node. Empty edgeType means all types.
func (r *Repository) ListEdgesFrom(ctx context.Context, fromID string, edgeType domain.EdgeType) ([]domain.Edge, error) {
	return listEdgesFrom(ctx, r.db, fromID, edgeType)
}

// Stats counts devices, nodes per kind and edges
func (r *Repository) Stats(ctx context.Context) (repository.Stats, error) {
	stats := repository.Stats{Nodes: make(map[domain.Kind]int)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&stats.Devices); err != nil {
		return stats, fmt.Errorf("failed to count devices: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&stats.Edges); err != nil {
		return stats, fmt.Errorf("failed to count edges: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM nodes GROUP BY kind`)
	if err != nil {
		return stats, fmt.Errorf("failed to count nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, fmt.Errorf("failed to scan node count: %w", err)
		}
		stats.Nodes[domain.Kind(kind)] = n
	}
	return stats, rows.Err()
}

// ============================================================================
// Transactions
// ============================================================================

// InTx runs fn inside one transaction
func (r *Repository) InTx(ctx context.Context, fn func(tx repository.GraphTx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
