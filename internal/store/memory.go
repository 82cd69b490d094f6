package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mindweave/mindweave/backend-go/internal/document"
)

// Memory keeps encoded documents in a map. Documents are stored encoded so
// callers never share graph pointers with the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
	meta map[string]Summary
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string][]byte),
		meta: make(map[string]Summary),
		now:  time.Now,
	}
}

func (m *Memory) Load(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	data, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	doc, _, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return doc, nil
}

func (m *Memory) Save(_ context.Context, doc *document.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("save: %w: missing id", document.ErrInvalid)
	}
	doc.UpdatedAt = m.now().UTC()
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("save %s: %w", doc.ID, err)
	}
	m.mu.Lock()
	m.docs[doc.ID] = data
	m.meta[doc.ID] = summarize(doc)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.docs, id)
	delete(m.meta, id)
	return nil
}

// List returns summaries, most recently updated first.
func (m *Memory) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.meta))
	for _, s := range m.meta {
		out = append(out, s)
	}
	m.mu.RUnlock()
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
