package poapmint

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hedeqiang/poapmint/auth"
	"github.com/hedeqiang/poapmint/provider/compass"
	"github.com/hedeqiang/poapmint/provider/tokensapi"
	"github.com/hedeqiang/poapmint/retry"
)

// Config holds the global configuration for a Client.
type Config struct {
	// TokensAPIURL is the base URL of the mint REST API.
	TokensAPIURL string

	// CompassURL is the GraphQL read API. ws:// and wss:// URLs use a
	// WebSocket connection.
	CompassURL string

	// APIKey is sent as X-API-Key to both APIs.
	APIKey string

	// ClientID and ClientSecret enable OAuth bearer tokens on the Tokens API.
	ClientID     string
	ClientSecret string

	// OAuthDomain is the bare host of the OAuth server.
	OAuthDomain string

	// Audience is the OAuth audience requested for the Tokens API.
	Audience string

	// TokenCacheFile persists access tokens to a JSON file when set.
	TokenCacheFile string

	// RedisURL shares access tokens through Redis when set. Takes precedence
	// over TokenCacheFile.
	RedisURL string

	// Retry configures the backoff of every poll chain.
	Retry retry.Config

	// LogLevel controls log verbosity ("debug", "info", "warn", "error").
	LogLevel string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TokensAPIURL: tokensapi.DefaultBaseURL,
		CompassURL:   compass.DefaultURL,
		OAuthDomain:  auth.DefaultDomain,
		Audience:     tokensapi.Audience,
		Retry:        retry.DefaultConfig(),
		LogLevel:     "info",
	}
}

// ConfigFromEnv reads configuration from POAP_* environment variables,
// falling back to DefaultConfig for anything unset or malformed.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		TokensAPIURL:   getEnv("POAP_TOKENS_API_URL", def.TokensAPIURL),
		CompassURL:     getEnv("POAP_COMPASS_URL", def.CompassURL),
		APIKey:         getEnv("POAP_API_KEY", ""),
		ClientID:       getEnv("POAP_CLIENT_ID", ""),
		ClientSecret:   getEnv("POAP_CLIENT_SECRET", ""),
		OAuthDomain:    getEnv("POAP_OAUTH_DOMAIN", def.OAuthDomain),
		Audience:       getEnv("POAP_AUDIENCE", def.Audience),
		TokenCacheFile: getEnv("POAP_TOKEN_CACHE_FILE", ""),
		RedisURL:       getEnv("POAP_REDIS_URL", ""),
		Retry: retry.Config{
			MaxRetries:    getEnvInt("POAP_MAX_RETRIES", def.Retry.MaxRetries),
			InitialDelay:  getEnvDuration("POAP_INITIAL_DELAY", def.Retry.InitialDelay),
			BackoffFactor: getEnvFloat("POAP_BACKOFF_FACTOR", def.Retry.BackoffFactor),
		},
		LogLevel: getEnv("POAP_LOG_LEVEL", def.LogLevel),
	}
}

func (c Config) level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("1.5s") or plain milliseconds ("1500").
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond))
	}
	return defaultVal
}
