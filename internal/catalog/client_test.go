package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"KLife/internal/catalog"
)

func TestClient_AgainstHandler(t *testing.T) {
	ts := newCatalogTS(t, defaultStore(t), nil)
	c := catalog.NewClient(ts.URL + "/")
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "bubble")
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.ID != "bubble" || p.Name != "K-BUBBLE" {
		t.Fatalf("product=%+v", p)
	}

	all, err := c.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len=%d", len(all))
	}

	if _, err := c.GetProduct(ctx, "nonexistent"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
	if _, err := c.GetProduct(ctx, ""); !errors.Is(err, catalog.ErrEmptyID) {
		t.Fatalf("err=%v want ErrEmptyID", err)
	}

	status, hdr, raw, err := c.Response(ctx, "fresh")
	if err != nil {
		t.Fatalf("Response: %v", err)
	}
	if status != http.StatusOK || hdr.Get("Cache-Control") != catalog.CacheControl || len(raw) == 0 {
		t.Fatalf("status=%d cache=%q body=%s", status, hdr.Get("Cache-Control"), raw)
	}
}

func TestClient_QueryIsEscaped(t *testing.T) {
	var gotID string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("id")
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(ts.Close)

	_, err := catalog.NewClient(ts.URL).GetProduct(context.Background(), "a&id=b c")
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if gotID != "a&id=b c" {
		t.Fatalf("server saw id=%q", gotID)
	}
}

func TestClient_Errors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	if _, err := catalog.NewClient(ts.URL).ListProducts(context.Background()); !errors.Is(err, catalog.ErrBadStatus) {
		t.Fatalf("err=%v want ErrBadStatus", err)
	}

	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	if _, err := catalog.NewClient(url).ListProducts(context.Background()); !errors.Is(err, catalog.ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}
