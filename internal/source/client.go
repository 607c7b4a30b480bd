package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/alynder/warchest/internal/record"
)

const (
	// DefaultAttempts bounds transient-failure retries per shape probe.
	DefaultAttempts = 4

	// DefaultBackoff is the base delay before the first retry; it doubles
	// on each subsequent attempt.
	DefaultBackoff = 500 * time.Millisecond

	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 10 * time.Second
)

// Client fetches bank records from the upstream HTTP API.
//
// The upstream exposes one of several response shapes depending on its
// version. The client probes the known shape adapters in preference order,
// starting from the last shape that worked for this host, and falls to the
// next shape on a recognizable mismatch. Transient network and server
// failures are retried with exponential backoff before a shape is given up
// on.
type Client struct {
	host  string
	creds CredentialProvider
	http  *http.Client

	attempts int
	backoff  time.Duration

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	lastShape int // index into shapes that last succeeded
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry overrides the transient-failure retry policy.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

// NewClient creates a client for the given upstream host URL.
func NewClient(host string, creds CredentialProvider, opts ...Option) *Client {
	c := &Client{
		host:     host,
		creds:    creds,
		http:     &http.Client{Timeout: DefaultTimeout},
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Fetch implements Source.
//
// Records are returned ascending by ID, all with ID > sinceID, truncated
// to limit. Malformed records are dropped with a warning rather than
// failing the batch.
func (c *Client) Fetch(ctx context.Context, scope record.Scope, sinceID int64, limit int) ([]record.BankRecord, error) {
	apiKey, err := c.creds.APIKey(scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	start := c.preferredShape()
	for i := 0; i < len(shapes); i++ {
		idx := (start + i) % len(shapes)
		shape := shapes[idx]

		raws, err := c.fetchShape(ctx, shape, apiKey, scope, sinceID, limit)
		if err == nil {
			c.rememberShape(idx)
			return normalize(raws, sinceID, limit), nil
		}
		if isMismatch(err) {
			slog.Debug("response shape rejected, trying next",
				"shape", shape.name,
				"scope", scope.Key(),
				"error", err,
			)
			continue
		}
		return nil, fmt.Errorf("fetch %s: %v: %w", scope.Key(), err, ErrUnavailable)
	}

	return nil, fmt.Errorf("fetch %s: all response shapes rejected: %w", scope.Key(), ErrUnavailable)
}

// fetchShape issues the shape's query with bounded retry on transient
// failures. A shape mismatch is returned immediately: re-sending the same
// query would fail the same way.
func (c *Client) fetchShape(ctx context.Context, shape shapeAdapter, apiKey string, scope record.Scope, sinceID int64, limit int) ([]rawRecord, error) {
	query := shape.query(scope, sinceID, limit)

	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
		}

		body, err := c.post(ctx, apiKey, query)
		if err != nil {
			if errors.Is(err, errPermanent) {
				return nil, err
			}
			lastErr = err
			slog.Debug("upstream request failed",
				"shape", shape.name,
				"scope", scope.Key(),
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		raws, err := shape.decode(body)
		if err != nil {
			// Mismatches are shape problems, not transient ones.
			return nil, err
		}
		return raws, nil
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

// post sends one query to the upstream and returns the raw response body.
// Server 5xx and 429 responses are transient; other statuses are not worth
// retrying and fail immediately.
func (c *Client) post(ctx context.Context, apiKey, query string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %w", resp.StatusCode, errPermanent)
	}
	return body, nil
}

// errPermanent marks request failures that retrying cannot fix (bad
// credentials, bad request). Kept unexported: callers only ever see it
// wrapped in ErrUnavailable.
var errPermanent = fmt.Errorf("permanent upstream failure")

func isMismatch(err error) bool {
	return errors.Is(err, ErrShapeMismatch)
}

func (c *Client) preferredShape() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastShape
}

func (c *Client) rememberShape(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastShape != idx {
		slog.Info("remembering working response shape", "shape", shapes[idx].name)
		c.lastShape = idx
	}
}

// normalize converts raw records to domain records, enforces the fetch
// contract (ascending by ID, ID > sinceID, at most limit), and drops
// malformed entries with a warning.
func normalize(raws []rawRecord, sinceID int64, limit int) []record.BankRecord {
	recs := make([]record.BankRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := raw.toRecord()
		if err != nil {
			slog.Warn("dropping malformed record", "error", err)
			continue
		}
		if !rec.Valid() {
			slog.Warn("dropping invalid record", "id", rec.ID)
			continue
		}
		if rec.ID <= sinceID {
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
