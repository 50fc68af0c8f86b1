package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hedeqiang/poapmint/retry"
	"github.com/hedeqiang/poapmint/transport"
)

// DefaultDomain is the POAP OAuth server.
const DefaultDomain = "auth.accounts.poap.xyz"

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
	GrantType    string `json:"grant_type"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    *float64 `json:"expires_in,omitempty"`
	RefreshToken *string  `json:"refresh_token,omitempty"`
	Scope        *string  `json:"scope,omitempty"`
}

// HTTP is a Provider using the OAuth client-credentials grant.
type HTTP struct {
	clientID     string
	clientSecret string

	transport transport.Transport
	cache     Cache
	strategy  retry.Strategy
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the HTTP provider.
type Option func(*HTTP)

// WithCache replaces the default in-memory token cache.
func WithCache(c Cache) Option {
	return func(h *HTTP) {
		h.cache = c
	}
}

// WithTransport replaces the HTTPS transport to the OAuth server.
func WithTransport(t transport.Transport) Option {
	return func(h *HTTP) {
		h.transport = t
	}
}

// WithRetry sets the strategy used when the token request fails on the
// network or with a 5xx. Defaults to retry.Exponential(3).
func WithRetry(s retry.Strategy) Option {
	return func(h *HTTP) {
		h.strategy = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *HTTP) {
		h.logger = l
	}
}

// NewHTTP creates an OAuth provider. An empty domain selects DefaultDomain.
// The domain is a bare host name; the provider always uses HTTPS.
func NewHTTP(clientID, clientSecret, domain string, opts ...Option) (*HTTP, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	if strings.HasPrefix(strings.ToLower(domain), "http") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	h := &HTTP{
		clientID:     clientID,
		clientSecret: clientSecret,
		cache:        NewMemoryCache(),
		strategy:     retry.Exponential(3),
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.transport == nil {
		h.transport = transport.NewHTTP("https://" + domain)
	}
	return h, nil
}

// GetAuthToken returns a cached, unexpired token for audience or requests a
// new one.
func (h *HTTP) GetAuthToken(ctx context.Context, audience string) (Token, error) {
	cached, ok, err := h.cache.Load(ctx, audience)
	if err != nil {
		h.logger.Warn("token cache load failed", "audience", audience, "error", err)
	} else if ok {
		if !cached.Expired(h.now()) {
			return cached, nil
		}
		if err := h.cache.Delete(ctx, audience); err != nil {
			h.logger.Warn("token cache delete failed", "audience", audience, "error", err)
		}
	}

	var resp tokenResponse
	err = retry.Do(ctx, h.strategy, isRetryable, func(ctx context.Context) error {
		body, err := h.transport.Call(ctx, http.MethodPost, "/oauth/token", tokenRequest{
			ClientID:     h.clientID,
			ClientSecret: h.clientSecret,
			Audience:     audience,
			GrantType:    "client_credentials",
		})
		if err != nil {
			return h.mapError(err, audience)
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
	if err != nil {
		return Token{}, fmt.Errorf("auth: could not authenticate to %s: %w", audience, err)
	}

	if resp.AccessToken == "" || resp.TokenType == "" {
		return Token{}, fmt.Errorf("auth: could not authenticate to %s: %w: missing access_token or token_type", audience, ErrInvalidResponse)
	}

	token := h.toToken(resp)
	if err := h.cache.Save(ctx, audience, token); err != nil {
		h.logger.Warn("token cache save failed", "audience", audience, "error", err)
	}
	h.logger.Debug("issued access token", "audience", audience, "expires_at", token.ExpiresAt)

	return token, nil
}

func (h *HTTP) toToken(resp tokenResponse) Token {
	t := Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
	}
	if resp.RefreshToken != nil {
		t.RefreshToken = *resp.RefreshToken
	}
	if resp.Scope != nil {
		t.Scope = *resp.Scope
	}

	switch {
	case resp.ExpiresIn != nil && *resp.ExpiresIn > 0:
		t.ExpiresAt = h.now().Add(time.Duration(*resp.ExpiresIn * float64(time.Second)))
	default:
		t.ExpiresAt = expiryFromJWT(resp.AccessToken)
	}
	return t
}

// expiryFromJWT reads the exp claim of an access token without verifying
// it. Opaque tokens yield the zero time.
func expiryFromJWT(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (h *HTTP) mapError(err error, audience string) error {
	var se *transport.StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &UnauthorizedClientError{ClientID: h.clientID, Audience: audience}
	case http.StatusTooManyRequests:
		return &RateLimitReachedError{
			UnauthorizedClientError: UnauthorizedClientError{ClientID: h.clientID, Audience: audience},
			ResetAt:                 parseReset(se.Header.Get("X-RateLimit-Reset")),
		}
	}
	return err
}

func isRetryable(err error) bool {
	var (
		unauthorized *UnauthorizedClientError
		limited      *RateLimitReachedError
		se           *transport.StatusError
	)
	switch {
	case errors.As(err, &limited), errors.As(err, &unauthorized):
		return false
	case errors.Is(err, ErrInvalidResponse):
		return false
	case errors.As(err, &se):
		return se.Temporary()
	}
	return true
}

// Bearer returns a transport header hook that authorizes every request with
// a token for audience.
func Bearer(p Provider, audience string) transport.HeaderFunc {
	return func(ctx context.Context, hdr http.Header) error {
		token, err := p.GetAuthToken(ctx, audience)
		if err != nil {
			return err
		}
		hdr.Set("Authorization", "Bearer "+token.AccessToken)
		return nil
	}
}
