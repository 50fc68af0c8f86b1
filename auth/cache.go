package auth

import (
	"context"
	"sync"
)

// Cache stores tokens per audience. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Load returns the cached token for audience, if any.
	Load(ctx context.Context, audience string) (Token, bool, error)

	// Save stores the token for audience.
	Save(ctx context.Context, audience string, token Token) error

	// Delete drops the token for audience.
	Delete(ctx context.Context, audience string) error
}

// MemoryCache is an in-process Cache. Tokens are lost on restart.
type MemoryCache struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		tokens: make(map[string]Token),
	}
}

// Load returns the cached token for audience.
func (m *MemoryCache) Load(_ context.Context, audience string) (Token, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[audience]
	return t, ok, nil
}

// Save stores the token for audience.
func (m *MemoryCache) Save(_ context.Context, audience string, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[audience] = token
	return nil
}

// Delete drops the token for audience.
func (m *MemoryCache) Delete(_ context.Context, audience string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, audience)
	return nil
}
