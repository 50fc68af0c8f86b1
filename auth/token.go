// Package auth obtains OAuth access tokens with the client-credentials grant
// and caches them per audience.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Token is an OAuth access token (RFC 6749 section 5.1).
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
}

// Expired reports whether the token is past its expiry at now. Tokens
// without an expiry never expire.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(now)
}

// Provider issues access tokens for an API audience.
type Provider interface {
	GetAuthToken(ctx context.Context, audience string) (Token, error)
}

var (
	// ErrInvalidDomain is returned when the OAuth domain carries a scheme.
	ErrInvalidDomain = errors.New("auth: oauth server domain must not start with http")

	// ErrInvalidResponse is returned when the token endpoint answers with an
	// unexpected payload.
	ErrInvalidResponse = errors.New("auth: invalid token response")
)

// UnauthorizedClientError is returned when the OAuth server rejects the client.
type UnauthorizedClientError struct {
	ClientID string
	Audience string
}

func (e *UnauthorizedClientError) Error() string {
	return fmt.Sprintf("auth: could not authenticate to %s: unauthorized client: %s", e.Audience, e.ClientID)
}

// RateLimitReachedError is returned when the OAuth server throttles the client.
type RateLimitReachedError struct {
	UnauthorizedClientError

	// ResetAt is when the limit resets, if the server said so.
	ResetAt time.Time
}

func (e *RateLimitReachedError) Error() string {
	if e.ResetAt.IsZero() {
		return fmt.Sprintf("auth: rate limit reached for %s on %s", e.ClientID, e.Audience)
	}
	return fmt.Sprintf("auth: rate limit reached for %s on %s, resets at %s", e.ClientID, e.Audience, e.ResetAt.Format(time.RFC3339))
}

func parseReset(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
