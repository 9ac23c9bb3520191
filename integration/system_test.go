//go:build integration
// +build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"KLife/internal/catalog"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8082")

func TestSystem_E2E_Catalog(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	c := catalog.NewClient(baseURL)

	products, err := c.ListProducts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) == 0 {
		t.Fatalf("expected non-empty catalog")
	}

	for _, want := range products {
		got, err := c.GetProduct(ctx, want.ID)
		if err != nil {
			t.Fatalf("get %q: %v", want.ID, err)
		}
		if got.ID != want.ID {
			t.Fatalf("id=%q want=%q", got.ID, want.ID)
		}
	}

	if _, err := c.GetProduct(ctx, "unknown-sku"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("unknown-sku: err=%v", err)
	}

	status, hdr, raw, err := c.Response(ctx, "")
	if err != nil {
		t.Fatalf("raw list: %v", err)
	}
	if status != http.StatusOK || hdr.Get("Cache-Control") != catalog.CacheControl {
		t.Fatalf("status=%d cache-control=%q", status, hdr.Get("Cache-Control"))
	}

	if os.Getenv("E2E_RESTART_CATALOG") == "1" {
		restartCatalogContainer(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")

		_, _, again, err := c.Response(ctx, "")
		if err != nil {
			t.Fatalf("raw list after restart: %v", err)
		}
		if !jsonEqual(t, raw, again) {
			t.Fatalf("catalog changed across restart:\nbefore=%s\nafter=%s", raw, again)
		}
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()

	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ja, _ := json.Marshal(va)
	jb, _ := json.Marshal(vb)
	return string(ja) == string(jb)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
