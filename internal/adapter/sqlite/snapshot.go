// Package sqlite keeps a local copy of the last beach list loaded from the
// primary database so the service can start while the database is down.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/beach-safety-search/internal/domain"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no beach snapshot saved")

const schema = `
	CREATE TABLE IF NOT EXISTS beach_snapshot (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		payload TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS snapshot_meta (
		singleton INTEGER PRIMARY KEY CHECK (singleton = 1),
		saved_at DATETIME NOT NULL,
		beach_count INTEGER NOT NULL
	);
`

// SnapshotStore persists beach lists in a SQLite file.
type SnapshotStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path. Use
// ":memory:" for a throwaway store.
func Open(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}
	return &SnapshotStore{db: db}, nil
}

// Close releases the database handle.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with beaches, preserving their order.
func (s *SnapshotStore) Save(ctx context.Context, beaches []domain.BeachRecord, savedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM beach_snapshot`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO beach_snapshot (id, position, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range beaches {
		payload, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encoding beach %s: %w", b.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, b.ID, i, string(payload)); err != nil {
			return fmt.Errorf("inserting beach %s: %w", b.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (singleton, saved_at, beach_count) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET saved_at = excluded.saved_at, beach_count = excluded.beach_count
	`, savedAt.UTC().Format(time.RFC3339Nano), len(beaches)); err != nil {
		return fmt.Errorf("updating snapshot metadata: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored beaches in saved order and when they were saved.
func (s *SnapshotStore) Load(ctx context.Context) ([]domain.BeachRecord, time.Time, error) {
	var savedAtRaw string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshot_meta WHERE singleton = 1`).Scan(&savedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNoSnapshot
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot metadata: %w", err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, savedAtRaw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing snapshot time %q: %w", savedAtRaw, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM beach_snapshot ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	var beaches []domain.BeachRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var b domain.BeachRecord
		if err := json.Unmarshal([]byte(payload), &b); err != nil {
			return nil, time.Time{}, fmt.Errorf("decoding snapshot row: %w", err)
		}
		beaches = append(beaches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("reading snapshot: %w", err)
	}
	return beaches, savedAt, nil
}
