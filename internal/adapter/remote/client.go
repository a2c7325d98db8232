// Package remote loads published row collections over HTTP.
//
// A published dataset is a set of JSON lines files, one per group, named
// "<prefix>-<key>.jsonl" under a base URL. Each line is one row in the same
// flat layout the pipeline writes.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	"github.com/couchcryptid/icoads-msg1-etl/internal/observability"
)

// DefaultPrefix is the file name prefix of published group collections.
const DefaultPrefix = "msg1-enh-icoads-subset"

const (
	// maxErrorBody bounds how much of a failed response is quoted in errors.
	maxErrorBody = 512

	defaultAttempts   = 3
	defaultBackoff    = 500 * time.Millisecond
	defaultMaxBackoff = 5 * time.Second
)

// statusError is a non-200, non-404 response.
type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote API error: status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= http.StatusInternalServerError
}

// Client implements domain.CollectionLoader against a static file host.
type Client struct {
	baseURL    string
	token      string
	prefix     string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger

	attempts   int
	backoff    time.Duration
	maxBackoff time.Duration
}

// NewClient creates a remote collection client. An empty token sends
// unauthenticated requests.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		prefix:  DefaultPrefix,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics:    metrics,
		logger:     logger,
		attempts:   defaultAttempts,
		backoff:    defaultBackoff,
		maxBackoff: defaultMaxBackoff,
	}
}

// Load fetches the collection of a single group. Only the six group keys
// are published; the merged key and anything else fail with
// domain.ErrUnknownCategory before any request is made. Transport errors,
// 429 and 5xx responses are retried with exponential backoff.
func (c *Client) Load(ctx context.Context, key string) ([]domain.Row, error) {
	if _, err := domain.ParseGroupKey(key); err != nil {
		return nil, err
	}

	backoff := c.backoff
	for attempt := 1; ; attempt++ {
		rows, err := c.fetch(ctx, key)
		if err == nil {
			c.metrics.RemoteRequests.WithLabelValues("success").Inc()
			c.logger.Debug("remote collection loaded", "key", key, "rows", len(rows), "attempt", attempt)
			return rows, nil
		}
		if errors.Is(err, domain.ErrCollectionNotFound) {
			c.metrics.RemoteRequests.WithLabelValues("not_found").Inc()
			return nil, err
		}
		c.metrics.RemoteRequests.WithLabelValues("error").Inc()

		if attempt >= c.attempts || !retryable(ctx, err) {
			return nil, fmt.Errorf("load collection %s: %w", key, err)
		}
		c.logger.Warn("remote request failed, retrying",
			"key", key, "attempt", attempt, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, c.maxBackoff)
	}
}

func (c *Client) fetch(ctx context.Context, key string) ([]domain.Row, error) {
	u := fmt.Sprintf("%s/%s-%s.jsonl", c.baseURL, c.prefix, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RemoteAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrCollectionNotFound, key)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &statusError{code: resp.StatusCode, body: body}
	}

	rows, err := decodeRows(resp.Body)
	if err != nil {
		return nil, &decodeError{err: err}
	}
	return rows, nil
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode body: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// retryable reports whether a failed fetch is worth repeating.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var de *decodeError
	return !errors.As(err, &de)
}

func decodeRows(r io.Reader) ([]domain.Row, error) {
	var rows []domain.Row
	dec := json.NewDecoder(r)
	for {
		var row domain.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
}
