// Package remote implements the typed wrapper over the external
// commerce-platform product API.
//
// Every operation wraps one HTTP call with a bearer credential and a
// bounded timeout, and is fail-soft: transport errors, non-2xx
// responses and malformed bodies yield "no data". Callers cannot
// distinguish an empty catalog from a transient error at this layer;
// retry policy belongs to the sync engine.
package remote

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/niksmo/catalog-cache/internal/core/domain"
	"github.com/niksmo/catalog-cache/internal/core/port"
	"github.com/niksmo/catalog-cache/internal/metrics"
	"golang.org/x/time/rate"
)

var _ port.RemoteCatalog = (*Client)(nil)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimit caps outbound requests per second. Zero disables
	// throttling.
	RateLimit float64
}

func (c *Config) normalize() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

type Client struct {
	httpCl  *http.Client
	baseURL string
	apiKey  string
	limiter *rate.Limiter
}

func New(cfg Config) *Client {
	cfg.normalize()

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	return &Client{
		httpCl:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		limiter: limiter,
	}
}

func (c *Client) FetchDetail(
	ctx context.Context, id string,
) (domain.Product, bool) {
	const op = "remote.FetchDetail"

	data, ok := c.getData(ctx, op, c.baseURL+"/products/"+url.PathEscape(id))
	if !ok {
		return domain.Product{}, false
	}
	return c.oneProduct(op, data)
}

func (c *Client) FetchPage(
	ctx context.Context, page, pageSize int,
) []domain.Product {
	const op = "remote.FetchPage"
	return c.fetchList(ctx, op, pageQuery(page, pageSize))
}

func (c *Client) FetchByCategory(
	ctx context.Context, categoryID string, page, pageSize int,
) []domain.Product {
	const op = "remote.FetchByCategory"

	q := pageQuery(page, pageSize)
	q.Set("category_id", categoryID)
	return c.fetchList(ctx, op, q)
}

// FetchBySku asks the remote for a targeted sku lookup. A remote
// that does not support the filter responds with nothing; callers
// fall back to a full scan.
func (c *Client) FetchBySku(
	ctx context.Context, sku string,
) (domain.Product, bool) {
	const op = "remote.FetchBySku"

	q := pageQuery(1, 1)
	q.Set("sku", sku)
	ps := c.fetchList(ctx, op, q)
	if len(ps) == 0 {
		return domain.Product{}, false
	}
	return ps[0], true
}

func (c *Client) fetchList(
	ctx context.Context, op string, q url.Values,
) []domain.Product {
	data, ok := c.getData(ctx, op, c.baseURL+"/products?"+q.Encode())
	if !ok {
		return nil
	}
	return c.productList(op, data)
}

// getData performs one authorized GET and unwraps the {"data": ...}
// response envelope.
func (c *Client) getData(
	ctx context.Context, op, rawURL string,
) (json.RawMessage, bool) {
	log := slog.With("op", op)

	if c.apiKey == "" {
		log.Warn("remote api key is not configured")
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}

	if err := c.limiter.Wait(ctx); err != nil {
		log.Warn("rate limiter wait aborted", "err", err)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		log.Warn("failed to build request", "err", err)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpCl.Do(req)
	if err != nil {
		log.Warn("remote request failed", "url", rawURL, "err", err)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("remote returned non-2xx",
			"url", rawURL, "status", resp.StatusCode)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read response body", "err", err)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Warn("failed to parse response envelope", "err", err)
		metrics.RecordRemoteRequest(op, "error")
		return nil, false
	}

	metrics.RecordRemoteRequest(op, "ok")
	return envelope.Data, true
}

func (c *Client) oneProduct(
	op string, data json.RawMessage,
) (domain.Product, bool) {
	log := slog.With("op", op)

	if len(data) == 0 || string(data) == "null" {
		return domain.Product{}, false
	}

	p, err := domain.NormalizeProduct(data)
	if err != nil {
		log.Warn("failed to normalize product", "err", err)
		return domain.Product{}, false
	}
	return p, true
}

func (c *Client) productList(
	op string, data json.RawMessage,
) []domain.Product {
	log := slog.With("op", op)

	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn("failed to parse product list", "err", err)
		return nil
	}

	ps := make([]domain.Product, 0, len(items))
	for _, item := range items {
		p, err := domain.NormalizeProduct(item)
		if err != nil {
			log.Warn("skipping malformed product record", "err", err)
			continue
		}
		ps = append(ps, p)
	}
	return ps
}

func pageQuery(page, pageSize int) url.Values {
	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(pageSize))
	return q
}
