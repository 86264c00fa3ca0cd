package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoDocument is returned by Get when the id is absent from the collection.
var ErrNoDocument = errors.New("docstore: no document")

// Document is one stored record: an id plus a flat JSON object.
type Document struct {
	ID     string
	Fields map[string]any
}

// Decode unmarshals the document fields into out through a JSON round trip,
// so every backend representation (bson maps, jsonb payloads, plain maps)
// lands in the same typed structs.
func (d Document) Decode(out any) error {
	b, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("docstore: encode fields: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("docstore: decode fields: %w", err)
	}
	return nil
}

// Fields flattens a typed struct into the map form Upsert takes.
func Fields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("docstore: encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("docstore: decode: %w", err)
	}
	return m, nil
}

// Store is the document database this service runs against.
//
// Semantics every backend must honor: Get returns ErrNoDocument for an
// absent id; Upsert with merge=true folds the given fields into the
// existing document field-by-field (creating it when absent) while
// merge=false replaces the whole document; Query matches string equality
// on a single top-level field; Delete is idempotent.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	Query(ctx context.Context, collection, field, value string) ([]Document, error)
	All(ctx context.Context, collection string) ([]Document, error)
	Delete(ctx context.Context, collection, id string) error
	Close(ctx context.Context) error
}
