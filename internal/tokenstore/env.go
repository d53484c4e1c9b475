package tokenstore

import (
	"context"
	"fmt"
	"os"
)

// EnvStore keeps tokens in a process environment variable.
// Writes do not outlive the process.
type EnvStore struct {
	envKey string
}

// Compile-time check to ensure EnvStore implements TokenStore
var _ TokenStore = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore for the given environment variable.
// The variable does not have to be set yet.
func NewEnvStore(envKey string) (*EnvStore, error) {
	if envKey == "" {
		return nil, fmt.Errorf("environment key cannot be empty")
	}

	return &EnvStore{
		envKey: envKey,
	}, nil
}

// Read returns the token from the environment variable.
func (e *EnvStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	token, ok := os.LookupEnv(e.envKey)
	if !ok {
		return "", fmt.Errorf("environment variable %s not set: %w", e.envKey, ErrTokenNotFound)
	}
	if token == "" {
		return "", fmt.Errorf("environment variable %s is empty: %w", e.envKey, ErrTokenNotFound)
	}
	return token, nil
}

// Write sets the environment variable for the current process.
func (e *EnvStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Setenv(e.envKey, token); err != nil {
		return fmt.Errorf("setting %s: %w", e.envKey, err)
	}
	return nil
}
