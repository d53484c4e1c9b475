package credential

import (
	"sync"

	"golang.org/x/oauth2"
)

// Store holds the most recently obtained session token.
type Store interface {
	// Get returns the cached token. The boolean is false if no token is cached.
	Get() (*oauth2.Token, bool)

	// Set replaces the cached token unconditionally.
	Set(token *oauth2.Token)

	// Invalidate drops the cached token so the next Get reports a miss.
	Invalidate()
}

// Cache is an in-memory Store safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

// Compile-time check to ensure Cache implements Store
var _ Store = (*Cache)(nil)

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached token, if any.
func (c *Cache) Get() (*oauth2.Token, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.token == nil || c.token.AccessToken == "" {
		return nil, false
	}
	return c.token, true
}

// Set replaces the cached token. Tokens without an access token are treated as Invalidate.
func (c *Cache) Set(token *oauth2.Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token == nil || token.AccessToken == "" {
		c.token = nil
		return
	}
	c.token = token
}

// Invalidate drops the cached token.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}
