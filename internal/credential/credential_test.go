package credential

import (
	"sync"
	"testing"

	"golang.org/x/oauth2"
)

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get(); ok {
		t.Fatal("new cache should be empty")
	}

	c.Set(&oauth2.Token{AccessToken: "first"})
	tok, ok := c.Get()
	if !ok || tok.AccessToken != "first" {
		t.Fatalf("Get() = %v, %v; want first, true", tok, ok)
	}

	c.Set(&oauth2.Token{AccessToken: "second"})
	tok, _ = c.Get()
	if tok.AccessToken != "second" {
		t.Errorf("Set should overwrite, got %q", tok.AccessToken)
	}

	c.Invalidate()
	if _, ok := c.Get(); ok {
		t.Error("Get after Invalidate should miss")
	}
}

func TestCacheIgnoresEmptyTokens(t *testing.T) {
	tests := []struct {
		name  string
		token *oauth2.Token
	}{
		{name: "nil token", token: nil},
		{name: "empty access token", token: &oauth2.Token{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCache()
			c.Set(&oauth2.Token{AccessToken: "cached"})
			c.Set(tt.token)
			if _, ok := c.Get(); ok {
				t.Error("empty token should leave the cache empty")
			}
		})
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch i % 3 {
			case 0:
				c.Set(&oauth2.Token{AccessToken: "tok"})
			case 1:
				c.Get()
			default:
				c.Invalidate()
			}
		}()
	}
	wg.Wait()
}
