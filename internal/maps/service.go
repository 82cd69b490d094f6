// Package maps is the REST surface over stored mind maps.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
	"github.com/mindweave/mindweave/backend-go/internal/graph"
	"github.com/mindweave/mindweave/backend-go/internal/store"
	"github.com/mindweave/mindweave/backend-go/internal/typeid"
)

var (
	ErrNotFound        = store.ErrNotFound
	ErrInvalidDocument = errors.New("invalid document")
)

type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

type Map struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Create stores a new map: a lone root named after the map, or the
// onboarding sample.
func (s *Service) Create(ctx context.Context, name string, sample bool) (*Map, error) {
	mapID := typeid.NewMapID()

	var doc *document.Document
	if sample {
		doc = document.NewSampleDocument(mapID)
		doc.ProjectName = name
	} else {
		doc = document.NewEmptyDocument(mapID, name, typeid.NewNodeID())
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}
	return toMap(doc), nil
}

func (s *Service) Get(ctx context.Context, mapID string) (*document.Document, error) {
	doc, err := s.store.Load(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("get map: %w", err)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context) ([]Map, error) {
	summaries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	maps := make([]Map, len(summaries))
	for i, sum := range summaries {
		maps[i] = Map(sum)
	}
	return maps, nil
}

// Replace overwrites a map with an uploaded document. The stored id wins
// over whatever id the body carries.
func (s *Service) Replace(ctx context.Context, mapID string, data []byte) (*Map, error) {
	if _, err := s.store.Load(ctx, mapID); err != nil {
		return nil, fmt.Errorf("replace map: %w", err)
	}
	doc, _, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	doc.ID = mapID
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("replace map: %w", err)
	}
	return toMap(doc), nil
}

// Rename changes the map name and, when it still carried the old name,
// the root label.
func (s *Service) Rename(ctx context.Context, mapID, name string) (*Map, error) {
	doc, err := s.store.Load(ctx, mapID)
	if err != nil {
		return nil, fmt.Errorf("rename map: %w", err)
	}
	old := doc.ProjectName
	doc.ProjectName = strings.TrimSpace(name)
	for _, id := range doc.Graph.Roots() {
		_ = doc.Graph.Update(id, func(n *graph.Node) {
			if n.Type == graph.TypeRoot && n.Label == old {
				n.Label = doc.ProjectName
			}
		})
	}
	if err := s.store.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("rename map: %w", err)
	}
	return toMap(doc), nil
}

func (s *Service) Delete(ctx context.Context, mapID string) error {
	if err := s.store.Delete(ctx, mapID); err != nil {
		return fmt.Errorf("delete map: %w", err)
	}
	return nil
}

func toMap(doc *document.Document) *Map {
	return &Map{
		ID:        doc.ID,
		Name:      doc.ProjectName,
		Nodes:     doc.Graph.Len(),
		UpdatedAt: doc.UpdatedAt,
	}
}
