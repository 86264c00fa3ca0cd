package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps collections in process. It is the reference
// implementation of the Store semantics and the default driver for tests
// and bare dev checkouts.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.collections[collection][id]
	if !ok {
		return Document{}, ErrNoDocument
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (s *MemoryStore) Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		s.collections[collection] = col
	}
	existing, ok := col[id]
	if !ok || !merge {
		col[id] = cloneFields(fields)
		return nil
	}
	for k, v := range fields {
		existing[k] = cloneValue(v)
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for id, fields := range s.collections[collection] {
		if sv, ok := fields[field].(string); ok && sv == value {
			out = append(out, Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	sortDocs(out)
	return out, nil
}

func (s *MemoryStore) All(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Document
	for id, fields := range s.collections[collection] {
		out = append(out, Document{ID: id, Fields: cloneFields(fields)})
	}
	sortDocs(out)
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func sortDocs(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}

// cloneFields deep-copies a document so callers never alias store-owned maps.
func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return t
	}
}
