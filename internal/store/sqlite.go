package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	background      TEXT NOT NULL DEFAULT '',
	passphrase_hash TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	layout_id  TEXT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	document   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (layout_id, version)
);`

// SQLite is a Store on a single-file database. Writes are serialised by
// limiting the pool to one connection.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() { s.db.Close() }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteLayout(row rowScanner) (*Layout, error) {
	var l Layout
	var created, updated string
	if err := row.Scan(&l.ID, &l.Name, &l.Background, &l.PassphraseHash, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.CreatedAt, l.UpdatedAt = parseTime(created), parseTime(updated)
	return &l, nil
}

func (s *SQLite) CreateLayout(ctx context.Context, l Layout) (*Layout, error) {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO layouts (id, name, background, passphrase_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Background, l.PassphraseHash, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}
	return s.GetLayout(ctx, l.ID)
}

func (s *SQLite) GetLayout(ctx context.Context, id string) (*Layout, error) {
	l, err := scanSQLiteLayout(s.db.QueryRowContext(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return l, nil
}

func (s *SQLite) ListLayouts(ctx context.Context) ([]Layout, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+layoutColumns+` FROM layouts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	layouts := []Layout{}
	for rows.Next() {
		l, err := scanSQLiteLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		layouts = append(layouts, *l)
	}
	return layouts, rows.Err()
}

func (s *SQLite) DeleteLayout(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE layout_id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM layouts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLite) SetBackground(ctx context.Context, id, background string) error {
	return s.updateLayout(ctx, `UPDATE layouts SET background = ?, updated_at = ? WHERE id = ?`, background, id)
}

func (s *SQLite) SetPassphraseHash(ctx context.Context, id, hash string) error {
	return s.updateLayout(ctx, `UPDATE layouts SET passphrase_hash = ?, updated_at = ? WHERE id = ?`, hash, id)
}

func (s *SQLite) updateLayout(ctx context.Context, query, value, id string) error {
	res, err := s.db.ExecContext(ctx, query, value, now(), id)
	if err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) SaveSnapshot(ctx context.Context, id, layoutID string, doc json.RawMessage) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	res, err := tx.ExecContext(ctx, `UPDATE layouts SET updated_at = ? WHERE id = ?`, ts, layoutID)
	if err != nil {
		return nil, fmt.Errorf("touch layout: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	snap := Snapshot{ID: id, LayoutID: layoutID, Document: doc, CreatedAt: parseTime(ts)}
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE layout_id = ?`, layoutID).Scan(&snap.Version)
	if err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, layout_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, layoutID, snap.Version, string(doc), ts)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &snap, nil
}

func (s *SQLite) LatestSnapshot(ctx context.Context, layoutID string) (*Snapshot, error) {
	var snap Snapshot
	var doc, created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, layout_id, version, document, created_at FROM snapshots
		 WHERE layout_id = ? ORDER BY version DESC LIMIT 1`, layoutID).
		Scan(&snap.ID, &snap.LayoutID, &snap.Version, &doc, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document = json.RawMessage(doc)
	snap.CreatedAt = parseTime(created)
	return &snap, nil
}
