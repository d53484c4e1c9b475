package app

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/oauth2"

	"github.com/florianilch/platformsh-client/internal/credential"
	"github.com/florianilch/platformsh-client/internal/tokenstore"
)

// memoryStore is a TokenStore that records reads and writes.
type memoryStore struct {
	token    string
	readErr  error
	writeErr error
	reads    int
	writes   []string
}

func (m *memoryStore) Read(context.Context) (string, error) {
	m.reads++
	if m.readErr != nil {
		return "", m.readErr
	}
	if m.token == "" {
		return "", tokenstore.ErrTokenNotFound
	}
	return m.token, nil
}

func (m *memoryStore) Write(_ context.Context, token string) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writes = append(m.writes, token)
	m.token = token
	return nil
}

func TestNewPersistentSessionCacheRequiresDependencies(t *testing.T) {
	if _, err := NewPersistentSessionCache(nil, &memoryStore{}); err == nil {
		t.Error("expected error for nil cache")
	}
	if _, err := NewPersistentSessionCache(credential.NewCache(), nil); err == nil {
		t.Error("expected error for nil token store")
	}
}

func TestPersistentSessionCacheSeedsFromStorage(t *testing.T) {
	store := &memoryStore{token: "stored"}
	p, err := NewPersistentSessionCache(credential.NewCache(), store)
	if err != nil {
		t.Fatal(err)
	}

	if store.reads != 0 {
		t.Fatal("constructor must not read storage")
	}

	tok, ok := p.Get()
	if !ok || tok.AccessToken != "stored" {
		t.Fatalf("Get() = %v, %v; want stored", tok, ok)
	}

	p.Get()
	if store.reads != 1 {
		t.Errorf("storage reads = %d, want 1", store.reads)
	}

	// Seeded token is not written back
	p.Set(&oauth2.Token{AccessToken: "stored"})
	if len(store.writes) != 0 {
		t.Errorf("writes = %v, want none", store.writes)
	}
}

func TestPersistentSessionCacheWritesBack(t *testing.T) {
	store := &memoryStore{}
	p, _ := NewPersistentSessionCache(credential.NewCache(), store)

	if _, ok := p.Get(); ok {
		t.Fatal("empty storage should leave the cache empty")
	}

	p.Set(&oauth2.Token{AccessToken: "fresh"})
	p.Set(&oauth2.Token{AccessToken: "fresh"})
	p.Set(&oauth2.Token{AccessToken: "fresher"})

	want := []string{"fresh", "fresher"}
	if len(store.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", store.writes, want)
	}
	for i := range want {
		if store.writes[i] != want[i] {
			t.Errorf("writes[%d] = %q, want %q", i, store.writes[i], want[i])
		}
	}

	p.Invalidate()
	if _, ok := p.Get(); ok {
		t.Error("Get after Invalidate should miss")
	}
}

func TestPersistentSessionCacheToleratesStorageFailures(t *testing.T) {
	store := &memoryStore{readErr: errors.New("disk on fire"), writeErr: errors.New("read-only")}
	p, _ := NewPersistentSessionCache(credential.NewCache(), store)

	if _, ok := p.Get(); ok {
		t.Fatal("unreadable storage should leave the cache empty")
	}

	p.Set(&oauth2.Token{AccessToken: "fresh"})
	tok, ok := p.Get()
	if !ok || tok.AccessToken != "fresh" {
		t.Errorf("write failure must keep the in-memory token, got %v, %v", tok, ok)
	}
}
