// Package postgrest serves the catalog from a hosted PostgREST endpoint, such
// as the REST interface of a Supabase project. Rows of the remote table are
// normalized into model.Product at this boundary.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/erazemk/vitrina/internal/catalog"
	"github.com/erazemk/vitrina/internal/model"
)

// DefaultTable is the table holding the catalog.
const DefaultTable = "produtos"

// ErrNoImageColumn is returned when the remote table has no image column.
var ErrNoImageColumn = errors.New("catalog table has no image column")

// HTTPClient is satisfied by *http.Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is an unexpected HTTP response from the endpoint.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("postgrest: status %d: %s", e.Code, e.Body)
}

// Config configures a Client.
type Config struct {
	BaseURL       string  // project URL, without /rest/v1
	APIKey        string  // sent as apikey and bearer token
	Table         string  // defaults to DefaultTable
	RateLimit     float64 // requests per second, defaults to 10
	Burst         int     // defaults to 5
	RetryAttempts int     // attempts per request, defaults to 3
	Timeout       time.Duration
	HTTPClient    HTTPClient // overrides Timeout
}

// Client is a catalog.Store backed by a PostgREST table.
type Client struct {
	base     string
	apiKey   string
	attempts int
	http     HTTPClient
	limiter  *rate.Limiter
}

var _ catalog.Store = (*Client)(nil)

// New creates a client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("postgrest: base url is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("postgrest: api key is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/") + "/rest/v1/" + url.PathEscape(cfg.Table),
		apiKey:   cfg.APIKey,
		attempts: cfg.RetryAttempts,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
	}, nil
}

// do sends one request, waiting on the rate limiter. 429 responses are
// retried for every method; network errors only for GET, since a write may
// have been applied before the connection failed. Network errors and 5xx
// responses are reported as catalog.ErrUpstreamUnavailable. It returns the
// response headers and body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, query url.Values, prefer string, payload any) (http.Header, []byte, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, nil, fmt.Errorf("encoding request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.base+"?"+query.Encode(), bytes.NewReader(body))
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if prefer != "" {
			req.Header.Set("Prefer", prefer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if method != http.MethodGet {
				return nil, nil, fmt.Errorf("%w: postgrest %s: %w", catalog.ErrUpstreamUnavailable, method, err)
			}
			lastErr = err
			continue
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			if method != http.MethodGet {
				return nil, nil, fmt.Errorf("%w: postgrest %s: reading response: %w", catalog.ErrUpstreamUnavailable, method, err)
			}
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &StatusError{Code: resp.StatusCode, Body: string(data)}
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(retryAfter(resp.Header)):
				continue
			}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			se := &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if resp.StatusCode >= 500 {
				return nil, nil, fmt.Errorf("%w: %w", catalog.ErrUpstreamUnavailable, se)
			}
			return nil, nil, se
		}
		return resp.Header, data, nil
	}
	return nil, nil, fmt.Errorf("%w: postgrest: giving up after %d attempts: %w", catalog.ErrUpstreamUnavailable, c.attempts, lastErr)
}

func retryAfter(h http.Header) time.Duration {
	if sec, err := strconv.Atoi(h.Get("Retry-After")); err == nil && sec >= 0 {
		return time.Duration(sec) * time.Second
	}
	return time.Second
}

func decodeRows(data []byte) ([]map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return rows, nil
}

func normalizeRows(rows []map[string]any) ([]model.Product, error) {
	products := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		p, err := catalog.NormalizeRecord(row)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func idFilter(id int64) url.Values {
	return url.Values{"id": {"eq." + strconv.FormatInt(id, 10)}}
}

// Page returns a window of a sector's products ordered by id.
func (c *Client) Page(ctx context.Context, sector model.Sector, offset, limit int) ([]model.Product, error) {
	q := url.Values{
		"select": {"*"},
		"setor":  {"eq." + sector.LegacyName()},
		"order":  {"id.asc"},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(limit)},
	}
	_, data, err := c.do(ctx, http.MethodGet, q, "", nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	return normalizeRows(rows)
}

func (c *Client) getRow(ctx context.Context, id int64) (map[string]any, error) {
	q := idFilter(id)
	q.Set("select", "*")
	_, data, err := c.do(ctx, http.MethodGet, q, "", nil)
	if err != nil {
		return nil, err
	}
	rows, err := decodeRows(data)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// GetProduct returns a product by id, or nil if it does not exist.
func (c *Client) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row, err := c.getRow(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}
	p, err := catalog.NormalizeRecord(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func relatedValue(ids []int64) any {
	if len(ids) == 0 {
		return nil
	}
	return model.FormatRelatedIDs(ids)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateProduct inserts a product and returns the stored row.
func (c *Client) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	payload := map[string]any{
		"nome":                    p.Name,
		"descricao":               nullable(p.Description),
		"setor":                   p.Sector.LegacyName(),
		"produto_relacionado_ids": relatedValue(p.RelatedIDs),
	}
	_, data, err := c.do(ctx, http.MethodPost, url.Values{"select": {"*"}}, "return=representation", payload)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("creating product: empty response")
	}
	created, err := catalog.NormalizeRecord(rows[0])
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// patch updates the row of product id and reports ErrNotFound when no row
// matched.
func (c *Client) patch(ctx context.Context, q url.Values, payload map[string]any) error {
	q.Set("select", "id")
	_, data, err := c.do(ctx, http.MethodPatch, q, "return=representation", payload)
	if err != nil {
		return err
	}
	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// UpdateProduct writes the editable fields of a product.
func (c *Client) UpdateProduct(ctx context.Context, p *model.Product) error {
	return c.patch(ctx, idFilter(p.ID), map[string]any{
		"nome":                    p.Name,
		"descricao":               nullable(p.Description),
		"produto_relacionado_ids": relatedValue(p.RelatedIDs),
	})
}

// DeleteProduct deletes a product of the given sector.
func (c *Client) DeleteProduct(ctx context.Context, id int64, sector model.Sector) error {
	q := idFilter(id)
	q.Set("setor", "eq."+sector.LegacyName())
	q.Set("select", "id")
	_, data, err := c.do(ctx, http.MethodDelete, q, "return=representation", nil)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	rows, err := decodeRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// SetProductImage stores the photo URL in whichever image column the row
// uses.
func (c *Client) SetProductImage(ctx context.Context, id int64, imageURL string) error {
	row, err := c.getRow(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return catalog.ErrNotFound
	}
	column := catalog.ImageColumn(row)
	if column == "" {
		return ErrNoImageColumn
	}
	return c.patch(ctx, idFilter(id), map[string]any{column: imageURL})
}

// SetClearance sets the clearance flag.
func (c *Client) SetClearance(ctx context.Context, id int64, on bool) error {
	return c.patch(ctx, idFilter(id), map[string]any{"em_queima_estoque": on})
}

// SetClearancePrices stores both clearance prices as JSON numbers.
func (c *Client) SetClearancePrices(ctx context.Context, id int64, original, clearance decimal.Decimal) error {
	return c.patch(ctx, idFilter(id), map[string]any{
		"preco_original": json.Number(original.String()),
		"preco_queima":   json.Number(clearance.String()),
	})
}

// CountProducts asks the endpoint for an exact row count of a sector.
func (c *Client) CountProducts(ctx context.Context, sector model.Sector) (int, error) {
	q := url.Values{
		"select": {"id"},
		"setor":  {"eq." + sector.LegacyName()},
		"limit":  {"1"},
	}
	header, _, err := c.do(ctx, http.MethodGet, q, "count=exact", nil)
	if err != nil {
		return 0, err
	}
	return parseContentRange(header.Get("Content-Range"))
}

// parseContentRange extracts the total from "0-0/123" or "*/0".
func parseContentRange(s string) (int, error) {
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return 0, fmt.Errorf("postgrest: malformed Content-Range %q", s)
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return 0, fmt.Errorf("postgrest: malformed Content-Range %q", s)
	}
	return n, nil
}
