// Package fetch performs outbound HTTP requests with bounded retries.
//
// Only transport failures are retried. A response that completes with an
// error status is returned to the caller as-is.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/logging"
	"pulse-token-board/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
)

// ErrExhausted is returned when every attempt failed at the transport level.
var ErrExhausted = errors.New("all attempts failed")

// Doer sends an HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Request describes one logical call. It is rebuilt for every attempt so the body can be replayed.
type Request struct {
	Name   string // metrics label, e.g. "dexscreener.tokens"
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

func (r Request) build(ctx context.Context) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (r Request) label() string {
	if r.Name != "" {
		return r.Name
	}
	return "unnamed"
}

// Fetcher executes requests with exponential backoff between attempts.
type Fetcher struct {
	client      Doer
	maxAttempts int
	baseDelay   time.Duration
	sleep       SleepFunc
	logger      logrus.FieldLogger
}

// Option configures Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the underlying client.
func WithHTTPClient(client Doer) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client = &http.Client{Timeout: d}
	}
}

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		f.maxAttempts = n
	}
}

// WithBaseDelay sets the delay before the second attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       Sleep,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxAttempts < 1 {
		f.maxAttempts = 1
	}
	f.logger = logging.OrDiscard(f.logger)
	return f
}

// MaxAttempts returns the configured attempt cap.
func (f *Fetcher) MaxAttempts() int {
	return f.maxAttempts
}

// Delay returns the wait before attempt (1-indexed): base * 2^(attempt-2) for attempt >= 2.
func (f *Fetcher) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	return f.baseDelay << (attempt - 2)
}

// Do sends req, retrying transport failures up to the attempt cap.
// The caller owns the response body.
func (f *Fetcher) Do(ctx context.Context, req Request) (*http.Response, error) {
	name := req.label()
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.Delay(attempt)
			observability.RecordRetry(name)
			f.logger.WithFields(logrus.Fields{
				"request": name,
				"attempt": attempt,
				"delay":   delay,
			}).WithError(lastErr).Debug("retrying request")

			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		httpReq, err := req.build(ctx)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		start := time.Now()
		resp, err := f.client.Do(httpReq)
		observability.RecordRequestLatency(name, time.Since(start).Seconds())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		return resp, nil
	}

	observability.RecordExhausted(name)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, f.maxAttempts, lastErr)
}

// Sleep waits for d unless ctx is done first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
