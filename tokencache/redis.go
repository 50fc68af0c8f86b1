package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hedeqiang/poapmint/auth"
)

// DefaultPrefix namespaces token keys in Redis.
const DefaultPrefix = "poapmint:token:"

// Redis is an auth.Cache shared between processes through Redis. Entries
// expire together with the token they hold.
type Redis struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) RedisOption {
	return func(r *Redis) {
		r.prefix = p
	}
}

// NewRedis creates a cache backed by client.
func NewRedis(client redis.Cmdable, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(audience string) string {
	return r.prefix + audience
}

// Load returns the token stored for audience.
func (r *Redis) Load(ctx context.Context, audience string) (auth.Token, bool, error) {
	b, err := r.client.Get(ctx, r.key(audience)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Token{}, false, nil
	}
	if err != nil {
		return auth.Token{}, false, fmt.Errorf("tokencache/redis: get: %w", err)
	}

	var t auth.Token
	if err := json.Unmarshal(b, &t); err != nil {
		return auth.Token{}, false, fmt.Errorf("tokencache/redis: decode: %w", err)
	}
	return t, true, nil
}

// Save stores the token for audience. Tokens without an expiry are kept
// until deleted; already expired tokens are not stored.
func (r *Redis) Save(ctx context.Context, audience string, token auth.Token) error {
	var ttl time.Duration
	if !token.ExpiresAt.IsZero() {
		ttl = token.ExpiresAt.Sub(r.now())
		if ttl <= 0 {
			return r.Delete(ctx, audience)
		}
	}

	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("tokencache/redis: encode: %w", err)
	}
	if err := r.client.Set(ctx, r.key(audience), b, ttl).Err(); err != nil {
		return fmt.Errorf("tokencache/redis: set: %w", err)
	}
	return nil
}

// Delete removes the token for audience.
func (r *Redis) Delete(ctx context.Context, audience string) error {
	if err := r.client.Del(ctx, r.key(audience)).Err(); err != nil {
		return fmt.Errorf("tokencache/redis: del: %w", err)
	}
	return nil
}
