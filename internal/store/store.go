// Package store persists layouts and their versioned document snapshots in
// Postgres or SQLite.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("not found")

// Layout is one booth map: its name, background image and optional edit
// passphrase.
type Layout struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Background     string    `json:"background"`
	PassphraseHash string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Snapshot is a saved document. Versions count up from 1 per layout.
type Snapshot struct {
	ID        string          `json:"id"`
	LayoutID  string          `json:"layoutId"`
	Version   int             `json:"version"`
	Document  json.RawMessage `json:"document"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store is the persistence surface the services use.
type Store interface {
	CreateLayout(ctx context.Context, l Layout) (*Layout, error)
	GetLayout(ctx context.Context, id string) (*Layout, error)
	ListLayouts(ctx context.Context) ([]Layout, error)
	DeleteLayout(ctx context.Context, id string) error
	SetBackground(ctx context.Context, id, background string) error
	SetPassphraseHash(ctx context.Context, id, hash string) error

	// SaveSnapshot stores doc as the layout's next version.
	SaveSnapshot(ctx context.Context, id, layoutID string, doc json.RawMessage) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, layoutID string) (*Snapshot, error)

	Close()
}

// Open connects to the database named by dsn: postgres:// and
// postgresql:// URLs use Postgres, anything else is a SQLite file path
// (optionally prefixed with sqlite://). The schema is created if missing.
func Open(ctx context.Context, dsn string) (Store, error) {
	if Kind(dsn) == "postgres" {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, strings.TrimPrefix(dsn, "sqlite://"))
}

// Kind names the backend Open picks for dsn.
func Kind(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
