package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "booths.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestLayoutLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreateLayout(ctx, Layout{ID: "layout_a", Name: "Spring fair"})
	require.NoError(t, err)
	assert.Equal(t, "Spring fair", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	require.NoError(t, s.SetBackground(ctx, "layout_a", "asset_1.png"))
	require.NoError(t, s.SetPassphraseHash(ctx, "layout_a", "hash"))

	got, err := s.GetLayout(ctx, "layout_a")
	require.NoError(t, err)
	assert.Equal(t, "asset_1.png", got.Background)
	assert.Equal(t, "hash", got.PassphraseHash)

	list, err := s.ListLayouts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteLayout(ctx, "layout_a"))
	_, err = s.GetLayout(ctx, "layout_a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteLayout(ctx, "layout_a"), ErrNotFound)
}

func TestSnapshotVersions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.LatestSnapshot(ctx, "layout_a")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SaveSnapshot(ctx, "snap_0", "layout_a", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CreateLayout(ctx, Layout{ID: "layout_a", Name: "Fair"})
	require.NoError(t, err)

	first, err := s.SaveSnapshot(ctx, "snap_1", "layout_a", json.RawMessage(`{"rects":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)

	second, err := s.SaveSnapshot(ctx, "snap_2", "layout_a", json.RawMessage(`{"rects":[],"texts":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	latest, err := s.LatestSnapshot(ctx, "layout_a")
	require.NoError(t, err)
	assert.Equal(t, "snap_2", latest.ID)
	assert.JSONEq(t, `{"rects":[],"texts":[]}`, string(latest.Document))

	require.NoError(t, s.DeleteLayout(ctx, "layout_a"))
	_, err = s.LatestSnapshot(ctx, "layout_a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "postgres", Kind("postgres://u:p@localhost/db"))
	assert.Equal(t, "postgres", Kind("postgresql://localhost/db"))
	assert.Equal(t, "sqlite", Kind("sqlite://./data/booths.db"))
	assert.Equal(t, "sqlite", Kind("booths.db"))
}
