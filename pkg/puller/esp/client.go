// Package esp fetches readings from an ESP board serving its sensor values as JSON.
package esp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gtfisher/esp-collector/pkg/models"
	"github.com/gtfisher/esp-collector/pkg/puller"
)

// DefaultURL is the board's address on the local network
const DefaultURL = "http://192.168.1.195/"

// maxBodySize caps the response read from the board
const maxBodySize = 64 << 10

// Client polls the board over HTTP behind a circuit breaker
type Client struct {
	url         string
	httpClient  *http.Client
	failures    uint32
	openTimeout time.Duration
	breaker     *gobreaker.CircuitBreaker
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBreaker opens the circuit after failures consecutive errors and keeps it open for openTimeout
func WithBreaker(failures uint32, openTimeout time.Duration) ClientOption {
	return func(c *Client) {
		c.failures = failures
		c.openTimeout = openTimeout
	}
}

// NewClient creates a client for the board at url
func NewClient(url string, opts ...ClientOption) *Client {
	if url == "" {
		url = DefaultURL
	}

	c := &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		failures:    5,
		openTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	failures := c.failures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "esp",
		Timeout: c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
	})

	return c
}

// URL returns the board address
func (c *Client) URL() string {
	return c.url
}

// Pull implements puller.Puller. Every failure, including an open circuit, is a *puller.FetchError.
func (c *Client) Pull(ctx context.Context) (*models.Reading, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, &puller.FetchError{Source: c.url, Err: err}
	}
	return result.(*models.Reading), nil
}

func (c *Client) fetch(ctx context.Context) (*models.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var reading models.Reading
	if err := json.Unmarshal(body, &reading); err != nil {
		return nil, fmt.Errorf("failed to decode reading: %w", err)
	}

	return &reading, nil
}
