package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrBadStatus   = errors.New("catalog bad status")
	ErrUnavailable = errors.New("catalog unavailable")
)

const clientTimeout = 3 * time.Second

// Client reads a remote catalog service over /api/products.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	if id == "" {
		return Product{}, ErrEmptyID
	}

	var p Product
	if err := c.fetch(ctx, id, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := c.fetch(ctx, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Response performs the raw lookup and returns the status, headers and
// decoded envelope without interpreting them.
func (c *Client) Response(ctx context.Context, id string) (int, http.Header, json.RawMessage, error) {
	resp, err := c.do(ctx, id)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.StatusCode, resp.Header, raw, nil
}

func (c *Client) fetch(ctx context.Context, id string, data any) error {
	resp, err := c.do(ctx, id)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	env := struct {
		Data any `json:"data"`
	}{Data: data}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode catalog response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, id string) (*http.Response, error) {
	u := c.BaseURL + "/api/products"
	if id != "" {
		u += "?id=" + url.QueryEscape(id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}
