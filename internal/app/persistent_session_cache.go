package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/florianilch/platformsh-client/internal/credential"
	"github.com/florianilch/platformsh-client/internal/tokenstore"
)

// PersistentSessionCache wraps a credential.Store with session token persistence.
// The stored token is loaded lazily on first access; every new token is written back.
type PersistentSessionCache struct {
	cache      credential.Store
	tokenStore tokenstore.TokenStore

	load func()

	lastWritten atomic.Pointer[string]
	writeMu     sync.Mutex
}

// Compile-time check to ensure PersistentSessionCache implements credential.Store
var _ credential.Store = (*PersistentSessionCache)(nil)

// NewPersistentSessionCache creates a PersistentSessionCache.
// No I/O is performed until the first Get, Set or Invalidate.
func NewPersistentSessionCache(cache credential.Store, tokenStore tokenstore.TokenStore) (*PersistentSessionCache, error) {
	if cache == nil {
		return nil, fmt.Errorf("missing credential cache")
	}
	if tokenStore == nil {
		return nil, fmt.Errorf("missing token store")
	}

	p := &PersistentSessionCache{
		cache:      cache,
		tokenStore: tokenStore,
	}
	p.load = sync.OnceFunc(p.loadStored)

	return p, nil
}

// loadStored seeds the cache from storage. A missing or unreadable token only
// means the first request mints a fresh one.
func (p *PersistentSessionCache) loadStored() {
	// credential.Store has no context parameter; the read is local and bounded
	ctx := context.Background()

	stored, err := p.tokenStore.Read(ctx)
	if err != nil {
		if !errors.Is(err, tokenstore.ErrTokenNotFound) {
			slog.WarnContext(ctx, "failed to read stored session token", "error", err)
		}
		return
	}

	// Remember the stored token to avoid writing it straight back
	p.lastWritten.Store(&stored)
	p.cache.Set(&oauth2.Token{AccessToken: stored, TokenType: "Bearer"})
}

// Get returns the cached token, loading it from storage on first use.
func (p *PersistentSessionCache) Get() (*oauth2.Token, bool) {
	p.load()
	return p.cache.Get()
}

// Set caches the token and persists it if it changed.
func (p *PersistentSessionCache) Set(token *oauth2.Token) {
	// Load first so a late seed cannot overwrite a fresh token
	p.load()
	p.cache.Set(token)

	if token == nil || token.AccessToken == "" {
		return
	}

	// Hot path: lock-free atomic read
	if last := p.lastWritten.Load(); last != nil && *last == token.AccessToken {
		return
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	ctx := context.Background()
	if err := p.tokenStore.Write(ctx, token.AccessToken); err != nil {
		// The token is still cached in memory; only the next invocation loses it
		slog.WarnContext(ctx, "failed to persist session token", "error", err)
		return
	}
	written := token.AccessToken
	p.lastWritten.Store(&written)
}

// Invalidate drops the in-memory token. Storage is overwritten by the next Set.
func (p *PersistentSessionCache) Invalidate() {
	p.load()
	p.cache.Invalidate()
}
