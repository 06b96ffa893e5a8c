// Package directory is a typed client for the external Web3 reputation
// directory. Every response is decoded once into an endpoint-specific wire
// struct and converted to domain types before it leaves the package.
package directory

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
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cookedzera/RetroQuery/internal/metrics"
)

const (
	// DefaultBaseURL is the public directory API.
	DefaultBaseURL = "https://api.ethos.network"
	// DefaultClientName is sent in the client header when none is configured.
	DefaultClientName = "retroquery@1.0.0"

	clientHeader    = "X-Ethos-Client"
	maxResponseBody = 4 << 20
)

// ErrNotFound is returned when the directory answers 404 or an empty result.
var ErrNotFound = errors.New("directory: not found")

// StatusError reports a non-2xx response.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory %s: unexpected status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Options configures a Client. All fields are optional.
type Options struct {
	BaseURL    string
	ClientName string
	Timeout    time.Duration
	// RateLimit is the sustained request rate per second; zero disables pacing.
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the reputation directory over HTTP.
type Client struct {
	baseURL    string
	clientName string
	http       *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New constructs a Client from opts.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid directory base url %q: %w", base, err)
	}

	name := strings.TrimSpace(opts.ClientName)
	if name == "" {
		name = DefaultClientName
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    base,
		clientName: name,
		http:       httpClient,
		limiter:    limiter,
		logger:     logger.With("component", "directory"),
	}, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) postJSON(ctx context.Context, endpoint, path string, body, dst any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}
	return c.do(ctx, endpoint, http.MethodPost, path, nil, bytes.NewReader(payload), dst)
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, dst any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, query, nil, dst)
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, body io.Reader, dst any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrNotFound):
			outcome = "not_found"
		case err != nil:
			outcome = "error"
		}
		metrics.ObserveDirectoryCall(endpoint, outcome, time.Since(start))
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("directory %s: rate limiter: %w", endpoint, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(clientHeader, c.clientName)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	c.logger.Debug("directory call",
		"endpoint", endpoint,
		"method", method,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: truncate(string(raw), 200)}
	}
	if dst == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
