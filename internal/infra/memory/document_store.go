package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"pychallenge-service/internal/domain"
)

// DocumentStore is an in-process document store used for tests and local runs.
// Nested maps and slices are copied on the way in and on the way out, so
// callers never share them with the store.
type DocumentStore struct {
	clock func() time.Time

	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string]map[string]any
}

func NewDocumentStore() *DocumentStore {
	return NewDocumentStoreWithClock(time.Now)
}

// NewDocumentStoreWithClock allows deterministic server timestamps in tests.
func NewDocumentStoreWithClock(now func() time.Time) *DocumentStore {
	return &DocumentStore{
		clock:       now,
		collections: make(map[string]*collection),
	}
}

func (s *DocumentStore) Create(ctx context.Context, name string, fields map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	stored, err := copyFields(fields)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	stored["createdAt"] = s.clock().UTC()
	c := s.collectionLocked(name)
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (s *DocumentStore) Get(ctx context.Context, name, id string) (domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return domain.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return domain.Document{ID: id, Fields: cloneMap(fields)}, nil
}

// QueryBounded returns the limit most recently created documents, newest
// first. The order only picks the window; callers rank it themselves.
func (s *DocumentStore) QueryBounded(ctx context.Context, name string, limit int) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []domain.Document{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return []domain.Document{}, nil
	}
	out := make([]domain.Document, 0, min(limit, len(c.order)))
	for i := len(c.order) - 1; i >= 0 && len(out) < limit; i-- {
		id := c.order[i]
		out = append(out, domain.Document{ID: id, Fields: cloneMap(c.docs[id])})
	}
	return out, nil
}

func (s *DocumentStore) Delete(ctx context.Context, name, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Put stores a raw document under a fixed id, bypassing server timestamps.
// It exists to seed malformed or legacy records.
func (s *DocumentStore) Put(name, id string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectionLocked(name)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = cloneMap(fields)
}

func (s *DocumentStore) collectionLocked(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

func copyFields(fields map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields)+1)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneMap(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container shapes a decoded document can hold.
// Scalars and time.Time are values already.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(x))
		for i, item := range x {
			out[i] = cloneMap(item)
		}
		return out
	default:
		return v
	}
}
