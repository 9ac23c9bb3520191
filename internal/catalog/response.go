package catalog

import (
	"context"
	"errors"
	"net/http"
)

const (
	NotFoundMessage      = "Product not found"
	InternalErrorMessage = "Internal server error"

	// CacheControl is sent with successful lookups. The table cannot change
	// within a deployment, so shared caches may hold it for an hour and serve
	// it stale for a day while revalidating.
	CacheControl = "public, s-maxage=3600, stale-while-revalidate=86400"
)

// Envelope is the body of every /api/products response: exactly one of
// Data or Error is set.
type Envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type Response struct {
	Status int
	Body   Envelope
}

// BuildProductResponse answers a lookup. An empty id lists the whole
// catalog; an unknown id yields 404. A non-nil error means the store
// itself failed.
func BuildProductResponse(ctx context.Context, s Store, id string) (Response, error) {
	if id == "" {
		products, err := s.List(ctx)
		if err != nil {
			return Response{}, err
		}
		if products == nil {
			products = []Product{}
		}
		return Response{Status: http.StatusOK, Body: Envelope{Data: products}}, nil
	}

	p, err := FindByID(ctx, s, id)
	if errors.Is(err, ErrNotFound) {
		return Response{Status: http.StatusNotFound, Body: Envelope{Error: NotFoundMessage}}, nil
	}
	if err != nil {
		return Response{}, err
	}
	return Response{Status: http.StatusOK, Body: Envelope{Data: p}}, nil
}
