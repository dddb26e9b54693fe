// Package rpc reads chain state over JSON-RPC 2.0.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"pulse-token-board/internal/cache"
	"pulse-token-board/internal/fetch"
	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// ProviderName labels cache keys, metrics and logs.
const ProviderName = "rpc"

// ErrMissingResult is returned when a response carries neither a result nor an
// error, or a batch response lacks an entry for a request.
var ErrMissingResult = errors.New("missing result in batch response")

// Client performs cached JSON-RPC calls through the shared fetcher.
type Client struct {
	endpoint  string
	fetcher   *fetch.Fetcher
	cache     *cache.Cache
	group     singleflight.Group
	requestID atomic.Uint64
	logger    logrus.FieldLogger
}

// Option configures Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a JSON-RPC client for endpoint.
func New(endpoint string, f *fetch.Fetcher, ch *cache.Cache, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		fetcher:  f,
		cache:    ch,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.New()
	}
	if c.cache == nil {
		c.cache = cache.New()
	}
	c.logger = logging.OrDiscard(c.logger).WithField("provider", ProviderName)
	return c
}

// Request is one call of a batch.
type Request struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

// Result is one batch entry: a raw result or the call's error.
type Result struct {
	Raw json.RawMessage
	Err error
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object. It is never retried.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

func (c *Client) newRequest(method string, params []any) rpcRequest {
	if params == nil {
		params = []any{}
	}
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}
}

// Call performs a single JSON-RPC call. Successful results are cached.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	key := cache.Key(ProviderName, method, params)
	if raw, ok := cache.Lookup[[]byte](ctx, c.cache, key); ok {
		observability.RecordProviderCall(ProviderName, method, "cached")
		return raw, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		body, err := json.Marshal(c.newRequest(method, params))
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		var resp rpcResponse
		if err := c.fetcher.JSON(ctx, c.post(method, body), &resp); err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		if !hasResult(resp.Result) {
			return nil, fmt.Errorf("%w: %w", fetch.ErrMalformed, ErrMissingResult)
		}

		cache.Put(ctx, c.cache, key, []byte(resp.Result))
		return resp.Result, nil
	})
	if err != nil {
		observability.RecordProviderCall(ProviderName, method, "error")
		return nil, err
	}

	observability.RecordProviderCall(ProviderName, method, "ok")
	return v.(json.RawMessage), nil
}

// Batch sends all requests in one POST and returns results in request order.
// The batch is cached as a unit under a key covering every request in order,
// and only when no entry failed.
func (c *Client) Batch(ctx context.Context, reqs []Request) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	key := cache.Key(ProviderName, "batch", reqs)
	if raws, ok := cache.Lookup[[][]byte](ctx, c.cache, key); ok && len(raws) == len(reqs) {
		observability.RecordProviderCall(ProviderName, "batch", "cached")
		results := make([]Result, len(raws))
		for i, raw := range raws {
			results[i] = Result{Raw: raw}
		}
		return results, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		wire := make([]rpcRequest, len(reqs))
		index := make(map[uint64]int, len(reqs))
		for i, r := range reqs {
			wire[i] = c.newRequest(r.Method, r.Params)
			index[wire[i].ID] = i
		}

		body, err := json.Marshal(wire)
		if err != nil {
			return nil, fmt.Errorf("marshal batch: %w", err)
		}

		var resps []rpcResponse
		if err := c.fetcher.JSON(ctx, c.post("batch", body), &resps); err != nil {
			return nil, err
		}

		results := make([]Result, len(reqs))
		filled := make([]bool, len(reqs))
		for _, r := range resps {
			i, ok := index[r.ID]
			if !ok {
				continue
			}
			filled[i] = true
			if r.Error != nil {
				results[i].Err = r.Error
				continue
			}
			if !hasResult(r.Result) {
				results[i].Err = ErrMissingResult
				continue
			}
			results[i].Raw = r.Result
		}

		complete := true
		for i := range results {
			if !filled[i] {
				results[i].Err = ErrMissingResult
			}
			if results[i].Err != nil {
				complete = false
			}
		}

		if complete {
			raws := make([][]byte, len(results))
			for i, r := range results {
				raws[i] = r.Raw
			}
			cache.Put(ctx, c.cache, key, raws)
		}
		return results, nil
	})
	if err != nil {
		observability.RecordProviderCall(ProviderName, "batch", "error")
		return nil, err
	}

	observability.RecordProviderCall(ProviderName, "batch", "ok")
	return v.([]Result), nil
}

// hasResult reports whether a response carried a non-null result.
func hasResult(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func (c *Client) post(method string, body []byte) fetch.Request {
	return fetch.Request{
		Name:   ProviderName + "." + method,
		Method: http.MethodPost,
		URL:    c.endpoint,
		Body:   body,
	}
}

// fail records and logs an error absorbed at the adapter boundary.
func (c *Client) fail(method string, err error, fields logrus.Fields) {
	kind := fetch.Kind(err)
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		kind = "rpc_error"
	}
	observability.RecordProviderError(ProviderName, kind)
	c.logger.WithFields(fields).WithFields(logrus.Fields{
		"method": method,
		"kind":   kind,
	}).WithError(err).Warn("rpc call failed")
}
