package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	background      TEXT NOT NULL DEFAULT '',
	passphrase_hash TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	layout_id  TEXT NOT NULL REFERENCES layouts(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (layout_id, version)
);`

// Postgres is a Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() { p.pool.Close() }

const layoutColumns = `id, name, background, passphrase_hash, created_at, updated_at`

func scanPgLayout(row pgx.Row) (*Layout, error) {
	var l Layout
	if err := row.Scan(&l.ID, &l.Name, &l.Background, &l.PassphraseHash, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (p *Postgres) CreateLayout(ctx context.Context, l Layout) (*Layout, error) {
	row := p.pool.QueryRow(ctx,
		`INSERT INTO layouts (id, name, background, passphrase_hash)
		 VALUES ($1, $2, $3, $4) RETURNING `+layoutColumns,
		l.ID, l.Name, l.Background, l.PassphraseHash)
	created, err := scanPgLayout(row)
	if err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}
	return created, nil
}

func (p *Postgres) GetLayout(ctx context.Context, id string) (*Layout, error) {
	l, err := scanPgLayout(p.pool.QueryRow(ctx, `SELECT `+layoutColumns+` FROM layouts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get layout: %w", err)
	}
	return l, nil
}

func (p *Postgres) ListLayouts(ctx context.Context) ([]Layout, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+layoutColumns+` FROM layouts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	layouts := []Layout{}
	for rows.Next() {
		l, err := scanPgLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan layout: %w", err)
		}
		layouts = append(layouts, *l)
	}
	return layouts, rows.Err()
}

func (p *Postgres) DeleteLayout(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM layouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SetBackground(ctx context.Context, id, background string) error {
	return p.updateLayout(ctx, `UPDATE layouts SET background = $2, updated_at = now() WHERE id = $1`, id, background)
}

func (p *Postgres) SetPassphraseHash(ctx context.Context, id, hash string) error {
	return p.updateLayout(ctx, `UPDATE layouts SET passphrase_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
}

func (p *Postgres) updateLayout(ctx context.Context, query, id, value string) error {
	tag, err := p.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("update layout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SaveSnapshot(ctx context.Context, id, layoutID string, doc json.RawMessage) (*Snapshot, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the layout row so concurrent saves get distinct versions.
	var exists string
	if err := tx.QueryRow(ctx, `SELECT id FROM layouts WHERE id = $1 FOR UPDATE`, layoutID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock layout: %w", err)
	}

	snap := Snapshot{ID: id, LayoutID: layoutID, Document: doc}
	err = tx.QueryRow(ctx,
		`INSERT INTO snapshots (id, layout_id, version, document)
		 VALUES ($1, $2, (SELECT COALESCE(MAX(version), 0) + 1 FROM snapshots WHERE layout_id = $2), $3)
		 RETURNING version, created_at`,
		id, layoutID, []byte(doc)).Scan(&snap.Version, &snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE layouts SET updated_at = now() WHERE id = $1`, layoutID); err != nil {
		return nil, fmt.Errorf("touch layout: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &snap, nil
}

func (p *Postgres) LatestSnapshot(ctx context.Context, layoutID string) (*Snapshot, error) {
	var snap Snapshot
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id, layout_id, version, document, created_at FROM snapshots
		 WHERE layout_id = $1 ORDER BY version DESC LIMIT 1`, layoutID).
		Scan(&snap.ID, &snap.LayoutID, &snap.Version, &doc, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	snap.Document = doc
	return &snap, nil
}
