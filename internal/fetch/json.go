package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize caps response bodies read by JSON helpers.
const MaxBodySize = 16 << 20

// ErrMalformed is returned when a response body cannot be decoded.
var ErrMalformed = errors.New("malformed response")

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// JSON sends req and decodes a 2xx response body into v.
func (f *Fetcher) JSON(ctx context.Context, req Request, v any) error {
	resp, err := f.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return &StatusError{Status: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Kind classifies an error for metrics and logs.
func Kind(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &statusErr):
		if statusErr.Status == http.StatusTooManyRequests {
			return "rate_limited"
		}
		return "status"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrExhausted):
		return "transport"
	default:
		return "other"
	}
}
