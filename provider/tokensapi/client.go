// Package tokensapi implements provider.TokensAPI over the POAP REST API.
package tokensapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hedeqiang/poapmint/poap"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/transport"
)

const (
	// DefaultBaseURL is the production Tokens API.
	DefaultBaseURL = "https://api.poap.tech"

	// Audience is the OAuth audience of the Tokens API.
	Audience = "https://api.poap.tech"

	claimPath = "/actions/claim-qr"
)

// Client is a Tokens API provider.
type Client struct {
	transport transport.Transport
}

var _ provider.TokensAPI = (*Client)(nil)

// New creates a client for baseURL authenticated with apiKey. Additional
// transport options (bearer auth, circuit breaker) are applied after the
// API key header.
func New(baseURL, apiKey string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]transport.Option{transport.WithHeader("X-API-Key", apiKey)}, opts...)
	return NewWithTransport(transport.NewHTTP(baseURL, opts...))
}

// NewWithTransport creates a client with a custom transport.
func NewWithTransport(t transport.Transport) *Client {
	return &Client{transport: t}
}

// GetMintCode returns the mint code record for code.
func (c *Client) GetMintCode(ctx context.Context, code string) (*provider.MintCodeResponse, error) {
	body, err := c.transport.Call(ctx, http.MethodGet, claimPath+"?qr_hash="+url.QueryEscape(code), nil)
	if err != nil {
		return nil, fmt.Errorf("tokensapi: get mint code: %w", err)
	}

	var resp provider.MintCodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("tokensapi: parse mint code: %w", err)
	}
	return &resp, nil
}

// PostMintCode submits a mint for input.
func (c *Client) PostMintCode(ctx context.Context, input provider.MintCodeInput) (*provider.PostMintCodeResponse, error) {
	body, err := c.transport.Call(ctx, http.MethodPost, claimPath, input)
	if err != nil {
		return nil, fmt.Errorf("tokensapi: post mint code: %w", err)
	}

	var resp provider.PostMintCodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("tokensapi: parse post mint code: %w", err)
	}
	return &resp, nil
}

// GetMintTransaction returns the latest transaction for code, or nil when
// the API has not seen one yet.
func (c *Client) GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error) {
	body, err := c.transport.Call(ctx, http.MethodGet, claimPath+"/"+url.PathEscape(code)+"/transaction", nil)
	if errors.Is(err, transport.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tokensapi: get mint transaction: %w", err)
	}

	var tx *poap.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("tokensapi: parse mint transaction: %w", err)
	}
	return tx, nil
}
