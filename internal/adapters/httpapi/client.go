// Package httpapi is the JSON HTTP client shared by the REST adapters:
// token-bucket rate limiting, retries with exponential backoff and typed
// errors. GETs retry on 429, 5xx and network errors; other methods retry only
// on 429, since a 5xx or a dropped connection may hide an accepted order.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultRetries   = 3
	defaultRetryWait = 500 * time.Millisecond
)

// Signer sets per-attempt headers on a request. body is the exact payload
// sent, so HMAC signers can cover it.
type Signer func(req *http.Request, path string, body []byte) error

// Client es un cliente JSON con rate limiting y retries.
type Client struct {
	http      *http.Client
	base      string
	limiter   *rate.Limiter
	headers   map[string]string
	retries   int
	retryWait time.Duration
}

// Option configura un Client.
type Option func(*Client)

// WithBearer añade Authorization: Bearer a todas las requests.
func WithBearer(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithHeader añade un header fijo.
func WithHeader(k, v string) Option {
	return func(c *Client) { c.headers[k] = v }
}

// WithTimeout cambia el timeout por request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry cambia el número de reintentos y la espera base. Tests use a
// tiny wait.
func WithRetry(retries int, wait time.Duration) Option {
	return func(c *Client) {
		c.retries = retries
		c.retryWait = wait
	}
}

// New crea un Client para base, limitado a perSec requests/s con burst.
func New(base string, perSec float64, burst int, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		base:      strings.TrimRight(base, "/"),
		limiter:   rate.NewLimiter(rate.Limit(perSec), burst),
		headers:   map[string]string{"Accept": "application/json"},
		retries:   defaultRetries,
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Base devuelve la URL base sin barra final.
func (c *Client) Base() string {
	return c.base
}

// Get hace un GET de path con query opcional y decodifica la respuesta en out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, nil, out)
}

// Post hace un POST JSON.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("httpapi.Post %s: marshal: %w", path, err)
	}
	return c.Do(ctx, http.MethodPost, path, b, nil, out)
}

// Do runs one request with retries. sign, if not nil, runs on every attempt.
// out may be nil to discard the body.
//
// Errors: 4xx responses return *domain.APIError; exhausted retries on 429,
// 5xx or transport failures wrap domain.ErrTransientNetwork. A non-GET that
// hits a 5xx or a transport failure is sent once and fails with
// domain.ErrTransientNetwork straight away.
func (c *Client) Do(ctx context.Context, method, path string, body []byte, sign Signer, out any) error {
	fullURL := c.base + path
	idempotent := method == http.MethodGet
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.sleep(ctx, attempt-1)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("httpapi: %s %s: rate limiter: %w", method, path, err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
		if err != nil {
			return fmt.Errorf("httpapi: %s %s: new request: %w", method, path, err)
		}
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if sign != nil {
			if err := sign(req, path, body); err != nil {
				return fmt.Errorf("httpapi: %s %s: sign: %w", method, path, err)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("httpapi: %s %s: %w", method, path, ctx.Err())
			}
			if !idempotent {
				return fmt.Errorf("httpapi: %s %s: not retried: %w: %v", method, path, domain.ErrTransientNetwork, err)
			}
			lastErr = err
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			slog.Warn("httpapi: rate limited", "path", path, "attempt", attempt+1)
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, truncate(respBody))
			if !idempotent {
				return fmt.Errorf("httpapi: %s %s: not retried: %w: %v", method, path, domain.ErrTransientNetwork, lastErr)
			}
			continue
		case resp.StatusCode >= 400:
			return fmt.Errorf("httpapi: %s %s: %w", method, path,
				&domain.APIError{Status: resp.StatusCode, Body: truncate(respBody)})
		}

		if readErr != nil {
			if !idempotent {
				return fmt.Errorf("httpapi: %s %s: read body: %w: %v", method, path, domain.ErrTransientNetwork, readErr)
			}
			lastErr = readErr
			continue
		}
		if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("httpapi: %s %s: decode response: %w", method, path, err)
		}
		return nil
	}
	return fmt.Errorf("httpapi: %s %s: failed after %d retries: %w: %v",
		method, path, c.retries, domain.ErrTransientNetwork, lastErr)
}

// sleep espera con backoff exponencial, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * c.retryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func truncate(b []byte) string {
	const max = 300
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max]
	}
	return s
}
