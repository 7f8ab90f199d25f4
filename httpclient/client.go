// Package httpclient is the shared HTTP client for the model sidecars.
// It handles multipart uploads, JSON decoding, and retry with
// exponential backoff; 4xx responses and sidecar-reported errors are
// treated as permanent.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds client configuration.
type Config struct {
	// Timeout bounds each individual request.
	Timeout time.Duration
	// MaxRetries bounds retries of retryable failures. Zero disables
	// retries.
	MaxRetries uint
}

// Client is an HTTP client for sidecar calls.
type Client struct {
	httpClient *http.Client
	cfg        Config
}

// New creates a client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

// Healthy reports whether GET url returns 200.
func (c *Client) Healthy(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// PostMultipart posts body to url with retries and decodes the JSON
// response into out. The multipart body is re-encoded on each attempt,
// so FileField.Data must be used rather than one-shot readers when
// retries are enabled.
func (c *Client) PostMultipart(ctx context.Context, url string, body MultipartBody, out any) error {
	operation := func() error {
		return c.postOnce(ctx, url, body, out)
	}
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.cfg.MaxRetries))
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}

func (c *Client) postOnce(ctx context.Context, url string, body MultipartBody, out any) error {
	reader, contentType, err := body.encode()
	if err != nil {
		return backoff.Permanent(fmt.Errorf("encoding multipart body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
		if !statusErr.Retryable() {
			return backoff.Permanent(statusErr)
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
