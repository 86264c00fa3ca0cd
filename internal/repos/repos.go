package repos

import (
	"errors"
	"fmt"

	"github.com/courseloom/courseloom-backend/internal/docstore"
	"github.com/courseloom/courseloom-backend/internal/platform/errs"
)

// storeErr wraps a backend failure so callers can branch on
// errs.ErrStoreUnavailable while keeping the original cause in the chain.
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(errs.ErrStoreUnavailable, err))
}

func decodeDocs[T any](docs []docstore.Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}
