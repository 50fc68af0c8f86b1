package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hedeqiang/poapmint/retry"
)

const maxErrorBody = 256

// HTTP implements Transport and GraphQL over HTTP.
type HTTP struct {
	baseURL     string
	graphQLPath string
	client      *http.Client
	headers     []HeaderFunc
	breaker     *retry.CircuitBreaker
}

// Option configures an HTTP transport.
type Option func(*HTTP)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithHeader sets a static header on every request.
func WithHeader(key, value string) Option {
	return WithHeaderFunc(func(_ context.Context, hdr http.Header) error {
		hdr.Set(key, value)
		return nil
	})
}

// WithHeaderFunc adds a per-request header hook.
func WithHeaderFunc(fn HeaderFunc) Option {
	return func(h *HTTP) {
		h.headers = append(h.headers, fn)
	}
}

// WithCircuitBreaker fails calls fast while the upstream keeps failing.
// Only network errors and 5xx responses count as failures.
func WithCircuitBreaker(cb *retry.CircuitBreaker) Option {
	return func(h *HTTP) {
		h.breaker = cb
	}
}

// WithGraphQLPath sets the path used by Query. Defaults to "/v1/graphql".
func WithGraphQLPath(path string) Option {
	return func(h *HTTP) {
		h.graphQLPath = path
	}
}

// NewHTTP creates an HTTP transport rooted at baseURL.
func NewHTTP(baseURL string, opts ...Option) *HTTP {
	h := &HTTP{
		baseURL:     strings.TrimRight(baseURL, "/"),
		graphQLPath: "/v1/graphql",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Call sends a JSON request to baseURL+path and returns the response body.
// Non-2xx responses are returned as *StatusError.
func (h *HTTP) Call(ctx context.Context, method, path string, body any) ([]byte, error) {
	req, err := h.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if h.breaker != nil && !h.breaker.Allow() {
		return nil, fmt.Errorf("transport/http: %s %s: %w", method, path, retry.ErrCircuitOpen)
	}

	respBody, err := h.send(req)
	if h.breaker != nil {
		if countsAsFailure(err) {
			h.breaker.RecordFailure()
		} else {
			h.breaker.RecordSuccess()
		}
	}
	return respBody, err
}

// Query posts a GraphQL operation and returns its data member.
func (h *HTTP) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := h.Call(ctx, http.MethodPost, h.graphQLPath, graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, err
	}
	return decodeGraphQL(body)
}

// Close is a no-op for HTTP transport.
func (h *HTTP) Close() error {
	return nil
}

func (h *HTTP) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("transport/http: marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("transport/http: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	for _, fn := range h.headers {
		if err := fn(ctx, req.Header); err != nil {
			return nil, fmt.Errorf("transport/http: headers: %w", err)
		}
	}
	return req, nil
}

func (h *HTTP) send(req *http.Request) ([]byte, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transport/http: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport/http: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := string(respBody)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: text, Header: resp.Header.Clone()}
	}

	return respBody, nil
}

func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	se, ok := err.(*StatusError)
	if !ok {
		return true
	}
	return se.Code >= 500
}
