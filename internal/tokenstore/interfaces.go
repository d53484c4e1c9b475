package tokenstore

import (
	"context"
	"errors"
)

// ErrTokenNotFound is returned by Read when the backend holds no token.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore reads and writes tokens to persistent storage.
type TokenStore interface {
	// Read returns the stored token. Returns an error wrapping ErrTokenNotFound
	// if the token is missing or empty.
	Read(ctx context.Context) (string, error)

	// Write persists the token to storage.
	Write(ctx context.Context, token string) error
}
