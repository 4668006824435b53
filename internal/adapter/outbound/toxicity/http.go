// Package toxicity provides an HTTP-backed outbound.ToxicityOracle.
package toxicity

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/textguard/textguard/internal/port/outbound"
)

// maxResponseBodySize bounds the classifier response body read.
const maxResponseBodySize = 1 * 1024 * 1024

// Client calls a remote toxicity classifier over HTTP. It implements
// outbound.ToxicityOracle, retrying the call exactly once on any error or
// timeout before surfacing outbound.ErrOracleUnavailable.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client, primarily for testing.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a Client for the toxicity classifier at endpoint.
func New(endpoint string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type scoreRequest struct {
	Text string `json:"text"`
}

// Score returns the per-category toxicity scores for text. It retries once
// on failure; if both attempts fail the zero map and
// outbound.ErrOracleUnavailable are returned so the caller can degrade to a
// conservative verdict instead of failing the whole check.
func (c *Client) Score(ctx context.Context, text string) (map[string]float64, error) {
	scores, err := c.score(ctx, text)
	if err == nil {
		return scores, nil
	}

	scores, err = c.score(ctx, text)
	if err == nil {
		return scores, nil
	}

	return nil, fmt.Errorf("%w: %v", outbound.ErrOracleUnavailable, err)
}

func (c *Client) score(ctx context.Context, text string) (map[string]float64, error) {
	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal toxicity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create toxicity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("toxicity request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read toxicity response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("toxicity service status %d: %s", resp.StatusCode, string(respBody))
	}

	var scores map[string]float64
	if err := json.Unmarshal(respBody, &scores); err != nil {
		return nil, fmt.Errorf("decode toxicity response: %w", err)
	}
	return scores, nil
}

var _ outbound.ToxicityOracle = (*Client)(nil)

// IsOracleUnavailable reports whether err indicates the toxicity oracle
// could not be reached after retrying, as opposed to a malformed request.
func IsOracleUnavailable(err error) bool {
	return errors.Is(err, outbound.ErrOracleUnavailable)
}
