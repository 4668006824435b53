// Package embedding provides an HTTP-backed outbound.EmbeddingOracle.
package embedding

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/textguard/textguard/internal/port/outbound"
)

// maxResponseBodySize bounds the embedding response body read, guarding
// against an unbounded or misbehaving embedding service.
const maxResponseBodySize = 1 * 1024 * 1024

// Client calls a remote embedding service over HTTP. It implements
// outbound.EmbeddingOracle. There is no retry: a failed or slow call to the
// embedding model degrades the semantic stage for that one check, it does
// not fail the whole request.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client, primarily for testing.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// New creates a Client for the embedding service at endpoint, requesting
// vectors from the given model.
func New(endpoint, model string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		model:    model,
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

type encodeRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type encodeResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Encode returns the embedding vector for text.
func (c *Client) Encode(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(encodeRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding service status %d: %s", resp.StatusCode, string(respBody))
	}

	var out encodeResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	return out.Embedding, nil
}

var _ outbound.EmbeddingOracle = (*Client)(nil)
