package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("product not found")
	ErrEmptyID        = errors.New("empty product id")
	ErrDuplicateID    = errors.New("duplicate product id")
	ErrInvalidProduct = errors.New("invalid product")
)

type Store interface {
	Ping(ctx context.Context) error
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
}

// FindByID resolves id by exact, case-sensitive match.
func FindByID(ctx context.Context, s Store, id string) (Product, error) {
	p, ok, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("get product %q: %w", id, err)
	}
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

// Validate checks the catalog invariants: every product has a non-empty
// unique id and a display name.
func Validate(products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if p.ID == "" {
			return fmt.Errorf("%w: product #%d", ErrEmptyID, i)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Name == "" {
			return fmt.Errorf("%w: %q has no name", ErrInvalidProduct, p.ID)
		}
	}
	return nil
}
