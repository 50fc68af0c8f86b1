// Package provider declares the remote services the mint pipeline talks to.
package provider

import (
	"context"

	"github.com/hedeqiang/poapmint/poap"
)

// StatusProvider is the read side of the Tokens API consumed by the pollers.
// It owns no state; every call is a plain request/response.
type StatusProvider interface {
	// GetMintTransaction returns the latest transaction snapshot for a mint
	// code, or nil when no transaction has been observed yet.
	GetMintTransaction(ctx context.Context, code string) (*poap.Transaction, error)

	// GetMintCode returns the mint code record. Result is nil until the
	// minted token has been indexed.
	GetMintCode(ctx context.Context, code string) (*MintCodeResponse, error)
}

// TokensAPI is the full mint API: status reads plus mint submission.
type TokensAPI interface {
	StatusProvider

	// PostMintCode submits a mint (or an email reservation) for a code.
	PostMintCode(ctx context.Context, input MintCodeInput) (*PostMintCodeResponse, error)
}

// Compass executes GraphQL queries against the read API.
type Compass interface {
	// Request runs query with variables and decodes the "data" member into out.
	Request(ctx context.Context, query string, variables map[string]any, out any) error
}
