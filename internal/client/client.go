// Package client is a typed client for the transactions REST API.
//
// Error responses are mapped back to the kinds in package core, so callers
// can branch with errors.Is exactly as they would in-process:
//
//	400 -> core.ErrInvalidArgument (the server's message is kept as detail)
//	404 -> core.ErrNotFound
//	5xx -> core.ErrStoreFailure
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"fintrack/internal/core"
)

// IdempotencyKeyHeader carries the optional de-duplication key on create.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxErrorBody = 4 << 10

// Client talks to a fintrack server. Reads are retried on transport errors
// and 5xx responses; mutations never are.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	readRetry time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithReadRetries bounds how long List and Catalog keep retrying. Zero
// disables retries.
func WithReadRetries(maxElapsed time.Duration) Option {
	return func(c *Client) { c.readRetry = maxElapsed }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:8081".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 15 * time.Second},
		readRetry: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns the transactions dated in month ("YYYY-MM").
func (c *Client) List(ctx context.Context, month string) ([]core.Transaction, error) {
	q := url.Values{"month": {month}}
	var out []core.Transaction
	if err := c.read(ctx, core.OpList, "/transactions?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

// Catalog returns the static option lists served by the API.
func (c *Client) Catalog(ctx context.Context) (core.Catalog, error) {
	var out core.Catalog
	err := c.read(ctx, core.OpList, "/catalog", &out)
	return out, err
}

// Create inserts a transaction.
func (c *Client) Create(ctx context.Context, in core.Input) (core.Transaction, error) {
	return c.CreateWithKey(ctx, in, "")
}

// CreateWithKey inserts a transaction under an idempotency key. Repeating a
// call with the same key returns the first result instead of a duplicate.
func (c *Client) CreateWithKey(ctx context.Context, in core.Input, key string) (core.Transaction, error) {
	var out core.Transaction
	header := http.Header{}
	if key != "" {
		header.Set(IdempotencyKeyHeader, key)
	}
	err := c.do(ctx, core.OpCreate, http.MethodPost, "/transactions", header, in, &out)
	return out, err
}

// Update replaces every editable field of transaction id.
func (c *Client) Update(ctx context.Context, id int64, in core.Input) (core.Transaction, error) {
	var out core.Transaction
	err := c.do(ctx, core.OpUpdate, http.MethodPut, itemPath(id), nil, in, &out)
	return out, err
}

// Delete removes transaction id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	var out struct {
		Message string `json:"message"`
	}
	return c.do(ctx, core.OpDelete, http.MethodDelete, itemPath(id), nil, nil, &out)
}

func itemPath(id int64) string {
	return "/transactions/" + strconv.FormatInt(id, 10)
}

func (c *Client) read(ctx context.Context, op, path string, out any) error {
	if c.readRetry <= 0 {
		return c.do(ctx, op, http.MethodGet, path, nil, nil, out)
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = c.readRetry

	return backoff.Retry(func() error {
		err := c.do(ctx, op, http.MethodGet, path, nil, nil, out)
		if err == nil || retryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}

// transportError marks failures where no response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var te *transportError
	return errors.As(err, &te) || errors.Is(err, core.ErrStoreFailure)
}

func (c *Client) do(ctx context.Context, op, method, path string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &transportError{err: fmt.Errorf("%s %s: %w", method, path, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
		return nil
	}

	msg := errorMessage(resp)
	slog.DebugContext(ctx, "API request failed", "method", method, "path", path, "status", resp.StatusCode, "error", msg)
	return statusError(op, resp.StatusCode, msg)
}

func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}

func statusError(op string, status int, msg string) error {
	switch {
	case status == http.StatusBadRequest:
		return core.InvalidArgument("%s", msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, core.ErrNotFound)
	case status >= 500:
		return core.StoreFailure(op, errors.New(msg))
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
}
