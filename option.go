package poapmint

import (
	"log/slog"

	"github.com/hedeqiang/poapmint/auth"
	"github.com/hedeqiang/poapmint/middleware"
	"github.com/hedeqiang/poapmint/provider"
	"github.com/hedeqiang/poapmint/retry"
)

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithRetry sets the backoff used by every poll chain.
func WithRetry(cfg retry.Config) Option {
	return func(c *Client) {
		c.config.Retry = cfg
	}
}

// WithAPIKey sets the API key sent to the Tokens API and Compass.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.config.APIKey = key
	}
}

// WithCredentials enables OAuth client-credentials authentication.
func WithCredentials(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.config.ClientID = clientID
		c.config.ClientSecret = clientSecret
	}
}

// WithLogger sets the logger. It overrides Config.LogLevel.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMiddleware adds middleware around the status provider used by the pollers.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mw...)
	}
}

// WithTokensAPI replaces the HTTP Tokens API provider.
func WithTokensAPI(p provider.TokensAPI) Option {
	return func(c *Client) {
		c.tokens = p
	}
}

// WithCompass replaces the Compass GraphQL client.
func WithCompass(p provider.Compass) Option {
	return func(c *Client) {
		c.compass = p
	}
}

// WithAuthProvider replaces the OAuth token provider.
func WithAuthProvider(p auth.Provider) Option {
	return func(c *Client) {
		c.auth = p
	}
}

// WithTokenCache sets where access tokens are cached. It overrides
// Config.RedisURL and Config.TokenCacheFile.
func WithTokenCache(cache auth.Cache) Option {
	return func(c *Client) {
		c.tokenCache = cache
	}
}

// WithCircuitBreaker guards the Tokens API transport.
func WithCircuitBreaker(cb *retry.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithSleeper replaces the backoff timer of every poll chain.
func WithSleeper(s retry.Sleeper) Option {
	return func(c *Client) {
		c.sleeper = s
	}
}
