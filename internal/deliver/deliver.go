// Package deliver performs single-attempt event delivery to the tracking
// ingestion endpoint. No retry, no backoff: a failed attempt leaves the
// staged record in place and the next sweep tries again.
package deliver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mathlens/snaptrack/internal/event"
)

// DefaultTimeout bounds a single delivery attempt so one hung request
// cannot stall an entire sweep.
const DefaultTimeout = 5 * time.Second

// TokenProvider supplies an optional bearer credential. An empty token or
// an error both mean "send unauthenticated" — absence of a credential is
// a handled state, not a failure.
type TokenProvider interface {
	Token() (string, error)
}

// Client posts events to an ingestion endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	tokens   TokenProvider
}

// NewClient creates a delivery client for the given endpoint URL
// (e.g. https://api.example.com/track). tokens may be nil.
func NewClient(endpoint string, timeout time.Duration, tokens TokenProvider) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		tokens:   tokens,
	}
}

// Deliver sends one event in a single synchronous round-trip. Returns nil
// iff the endpoint acknowledged with a 2xx status; any other status or
// transport error is a failure.
func (c *Client) Deliver(ctx context.Context, ev event.Event) error {
	body, err := ev.Marshal()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint rejected event: HTTP %d", resp.StatusCode)
	}
	return nil
}
