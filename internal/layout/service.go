// Package layout manages booth-map layouts and their saved documents.
package layout

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/boothmap/boothmap/internal/aggregate"
	"github.com/boothmap/boothmap/internal/document"
	"github.com/boothmap/boothmap/internal/store"
	"github.com/boothmap/boothmap/internal/typeid"
)

var (
	ErrNotFound    = errors.New("layout not found")
	ErrInvalidName = errors.New("name is required")
)

type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

type CreateParams struct {
	Name           string
	Sample         bool
	PassphraseHash string
}

// Create stores a new layout with version 1 of its document: the sample
// fair when p.Sample is set, otherwise an empty map.
func (s *Service) Create(ctx context.Context, p CreateParams) (*store.Layout, error) {
	if p.Name == "" {
		return nil, ErrInvalidName
	}

	l, err := s.store.CreateLayout(ctx, store.Layout{
		ID:             typeid.NewLayoutID(),
		Name:           p.Name,
		PassphraseHash: p.PassphraseHash,
	})
	if err != nil {
		return nil, fmt.Errorf("create layout: %w", err)
	}

	doc := document.NewEmptyDocument()
	if p.Sample {
		doc = document.NewSampleDocument()
	}
	if _, err := s.SaveDocument(ctx, l.ID, doc); err != nil {
		return nil, fmt.Errorf("create initial snapshot: %w", err)
	}

	return l, nil
}

func (s *Service) Get(ctx context.Context, layoutID string) (*store.Layout, error) {
	l, err := s.store.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return l, nil
}

func (s *Service) List(ctx context.Context) ([]store.Layout, error) {
	layouts, err := s.store.ListLayouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	return layouts, nil
}

func (s *Service) Delete(ctx context.Context, layoutID string) error {
	return mapStoreError(s.store.DeleteLayout(ctx, layoutID))
}

func (s *Service) SetBackground(ctx context.Context, layoutID, background string) error {
	return mapStoreError(s.store.SetBackground(ctx, layoutID, background))
}

// LatestDocument decodes the newest snapshot. A layout with no snapshot
// yet has an empty document.
func (s *Service) LatestDocument(ctx context.Context, layoutID string) (*document.Document, error) {
	if _, err := s.Get(ctx, layoutID); err != nil {
		return nil, err
	}
	snap, err := s.store.LatestSnapshot(ctx, layoutID)
	if errors.Is(err, store.ErrNotFound) {
		return document.NewEmptyDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return document.Unmarshal(snap.Document)
}

// SaveDocument stores doc as the layout's next version.
func (s *Service) SaveDocument(ctx context.Context, layoutID string, doc *document.Document) (*store.Snapshot, error) {
	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	snap, err := s.store.SaveSnapshot(ctx, typeid.NewSnapshotID(), layoutID, buf.Bytes())
	if err != nil {
		return nil, mapStoreError(err)
	}
	return snap, nil
}

// Report aggregates the latest document.
func (s *Service) Report(ctx context.Context, layoutID string) (aggregate.Report, error) {
	doc, err := s.LatestDocument(ctx, layoutID)
	if err != nil {
		return aggregate.Report{}, err
	}
	return aggregate.Compute(doc.Rects, doc.Categories), nil
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
