package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rtshell/internal/domain"
	"rtshell/internal/repository"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// New creates a new SQLite repository. ":memory:" opens a private in-memory database.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = "file:" + dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contexts (
		ref TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS components (
		ref TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		alive INTEGER NOT NULL DEFAULT 1,
		fail_on_activate INTEGER NOT NULL DEFAULT 0,
		endpoint TEXT,
		data JSON
	);

	CREATE TABLE IF NOT EXISTS managers (
		ref TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		alive INTEGER NOT NULL DEFAULT 1,
		data JSON
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		ref TEXT,
		payload JSON,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_components_endpoint ON components(endpoint);
	CREATE INDEX IF NOT EXISTS idx_events_ref ON events(ref);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveSnapshot replaces the stored snapshot with snap
func (r *Repository) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"contexts", "components", "managers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, ref := range snap.Contexts {
		if _, err := tx.ExecContext(ctx, `INSERT INTO contexts (ref, position) VALUES (?, ?)`, ref, i); err != nil {
			return fmt.Errorf("failed to insert context %s: %w", ref, err)
		}
	}

	for i, rec := range snap.Components {
		args, err := componentInsertArgs(rec, i)
		if err != nil {
			return fmt.Errorf("component %s: %w", rec.Ref, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO components (`+componentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`, args...); err != nil {
			return fmt.Errorf("failed to insert component %s: %w", rec.Ref, err)
		}
	}

	for i, rec := range snap.Managers {
		args, err := managerInsertArgs(rec, i)
		if err != nil {
			return fmt.Errorf("manager %s: %w", rec.Ref, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO managers (`+managerColumns+`) VALUES (?, ?, ?, ?)`, args...); err != nil {
			return fmt.Errorf("failed to insert manager %s: %w", rec.Ref, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ('snapshot_saved_at', ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot, or repository.ErrNoSnapshot
func (r *Repository) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	var saved string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'snapshot_saved_at'`).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot metadata: %w", err)
	}

	snap := &domain.Snapshot{
		Contexts:   []string{},
		Components: []domain.ComponentRecord{},
		Managers:   []domain.ManagerRecord{},
	}

	rows, err := r.db.QueryContext(ctx, `SELECT ref FROM contexts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contexts: %w", err)
	}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan context: %w", err)
		}
		snap.Contexts = append(snap.Contexts, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contexts: %w", err)
	}

	compRows, err := r.db.QueryContext(ctx, `SELECT `+componentColumns+` FROM components ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query components: %w", err)
	}
	for compRows.Next() {
		var row componentRow
		if err := compRows.Scan(row.scanArgs()...); err != nil {
			compRows.Close()
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			compRows.Close()
			return nil, fmt.Errorf("component %s: %w", row.Ref, err)
		}
		snap.Components = append(snap.Components, rec)
	}
	compRows.Close()
	if err := compRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating components: %w", err)
	}

	mgrRows, err := r.db.QueryContext(ctx, `SELECT `+managerColumns+` FROM managers ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query managers: %w", err)
	}
	defer mgrRows.Close()
	for mgrRows.Next() {
		var row managerRow
		if err := mgrRows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan manager: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("manager %s: %w", row.Ref, err)
		}
		snap.Managers = append(snap.Managers, rec)
	}
	if err := mgrRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating managers: %w", err)
	}

	return snap, nil
}

// RecordEvent appends an entry to the event journal
func (r *Repository) RecordEvent(ctx context.Context, rec repository.EventRecord) error {
	payload, err := marshalToNull(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (type, ref, payload, created_at) VALUES (?, ?, ?, ?)
	`, rec.Type, stringToNull(rec.Ref), payload, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ListEvents returns the most recent journal entries, newest first.
// A non-positive limit returns every entry.
func (r *Repository) ListEvents(ctx context.Context, limit int) ([]repository.EventRecord, error) {
	query := `SELECT id, type, ref, payload, created_at FROM events ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []repository.EventRecord
	for rows.Next() {
		var (
			rec     repository.EventRecord
			ref     sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &ref, &payload, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.Ref = nullToString(ref)
		if err := unmarshalJSONField(payload, &rec.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
