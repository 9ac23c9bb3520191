package catalog

import "context"

// MemStore is an immutable table. It is safe for concurrent use without
// locking because nothing writes to it after NewMemStore returns.
type MemStore struct {
	byID  map[string]Product
	order []string
}

func NewMemStore(products []Product) (*MemStore, error) {
	if err := Validate(products); err != nil {
		return nil, err
	}

	s := &MemStore{
		byID:  make(map[string]Product, len(products)),
		order: make([]string, 0, len(products)),
	}
	for _, p := range products {
		p.Tags = nonNilTags(p.Tags)
		s.byID[p.ID] = p.clone()
		s.order = append(s.order, p.ID)
	}
	return s, nil
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Len() int { return len(s.order) }

// List returns products in configured display order.
func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].clone())
	}
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, bool, error) {
	p, ok := s.byID[id]
	if !ok {
		return Product{}, false, nil
	}
	return p.clone(), true, nil
}
