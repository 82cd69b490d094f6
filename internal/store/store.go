// Package store persists map documents.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
)

var ErrNotFound = errors.New("map not found")

// Summary is the listing view of a stored map.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store is the persistence port. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (*document.Document, error)
	Save(ctx context.Context, doc *document.Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
}

func summarize(doc *document.Document) Summary {
	s := Summary{ID: doc.ID, Name: doc.ProjectName, UpdatedAt: doc.UpdatedAt}
	if doc.Graph != nil {
		s.Nodes = doc.Graph.Len()
	}
	return s
}
