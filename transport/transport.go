// Package transport provides the wire layer for the POAP APIs: REST JSON and
// GraphQL over HTTP, and GraphQL over WebSocket.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrNotFound matches a StatusError carrying HTTP 404.
var ErrNotFound = errors.New("transport: not found")

// ErrClosed is returned by a WebSocket transport after Close.
var ErrClosed = errors.New("transport: closed")

// Transport sends REST JSON requests and returns raw response bodies.
type Transport interface {
	// Call sends a request with an optional JSON body and returns the response body.
	Call(ctx context.Context, method, path string, body any) ([]byte, error)

	// Close releases the transport resources.
	Close() error
}

// GraphQL runs GraphQL operations and returns the raw "data" member.
type GraphQL interface {
	Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)

	Close() error
}

// HeaderFunc adds headers to an outgoing request. It runs once per request,
// which lets callers inject short-lived credentials.
type HeaderFunc func(ctx context.Context, h http.Header) error

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code   int
	Body   string
	Header http.Header
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: HTTP %d: %s", e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Temporary reports whether the upstream may recover on its own.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// GraphQLError carries the errors member of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "transport: graphql: " + strings.Join(e.Messages, "; ")
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

func decodeGraphQL(payload []byte) (json.RawMessage, error) {
	var resp graphQLResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("transport: unmarshal graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return nil, &GraphQLError{Messages: msgs}
	}
	return resp.Data, nil
}
