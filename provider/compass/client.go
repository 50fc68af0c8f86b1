// Package compass implements provider.Compass, the POAP GraphQL read API.
package compass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/transport"
)

// DefaultURL is the public Compass endpoint.
const DefaultURL = "https://public.compass.poap.tech"

// RequestError carries the GraphQL errors returned by Compass.
type RequestError struct {
	Messages []string
}

func (e *RequestError) Error() string {
	return "compass: error fetching data: " + strings.Join(e.Messages, ", ")
}

// Client runs GraphQL queries against Compass.
type Client struct {
	gql transport.GraphQL
}

var _ provider.Compass = (*Client)(nil)

// New creates a Compass client. URLs starting with ws:// or wss:// use the
// graphql-transport-ws protocol; anything else uses HTTP POST.
func New(url, apiKey string) *Client {
	if url == "" {
		url = DefaultURL
	}
	if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
		return NewWithTransport(transport.NewWebSocket(url,
			transport.WithWSHeader("X-API-Key", apiKey),
			transport.WithInitPayload(map[string]any{"headers": map[string]string{"x-api-key": apiKey}}),
		))
	}
	return NewWithTransport(transport.NewHTTP(url, transport.WithHeader("X-API-Key", apiKey)))
}

// NewWithTransport creates a Compass client with a custom transport.
func NewWithTransport(gql transport.GraphQL) *Client {
	return &Client{gql: gql}
}

// Request runs query and decodes the data member into out.
func (c *Client) Request(ctx context.Context, query string, variables map[string]any, out any) error {
	if variables == nil {
		variables = map[string]any{}
	}
	data, err := c.gql.Query(ctx, query, variables)
	if err != nil {
		var gqlErr *transport.GraphQLError
		if errors.As(err, &gqlErr) {
			return &RequestError{Messages: gqlErr.Messages}
		}
		return fmt.Errorf("compass: request: %w", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("compass: decode: %w", err)
	}
	return nil
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.gql.Close()
}
