package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore provides atomic file-based token storage with secure permissions.
// Writes use temp file + rename for crash safety.
type FileStore struct {
	filePath string
}

// Compile-time check to ensure FileStore implements TokenStore
var _ TokenStore = (*FileStore)(nil)

// NewFileStore creates a FileStore for the given path, creating parent directories
// with 0700 permissions if they don't exist.
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	return &FileStore{
		filePath: filePath,
	}, nil
}

// Read returns the stored token after trimming whitespace. Returns error if the file
// is empty or has insecure permissions; a missing file wraps ErrTokenNotFound.
func (f *FileStore) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Check file permissions before reading
	info, err := os.Stat(f.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", f.filePath, ErrTokenNotFound)
	}
	if err != nil {
		return "", err
	}
	if info.Mode().Perm() != 0600 {
		return "", fmt.Errorf("insecure permissions on %s: %04o (expected 0600)", f.filePath, info.Mode().Perm())
	}

	data, err := os.ReadFile(f.filePath)
	if err != nil {
		return "", err
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("empty token file %s: %w", f.filePath, ErrTokenNotFound)
	}
	return token, nil
}

// Write atomically saves the token with 0600 permissions.
func (f *FileStore) Write(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Temp file in the same directory keeps the rename atomic
	dir := filepath.Dir(f.filePath)
	tempFile, err := os.CreateTemp(dir, "*.tmp")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()
	defer func() { _ = os.Remove(tempName) }()
	defer func() { _ = tempFile.Close() }()

	if err := tempFile.Chmod(0600); err != nil {
		return err
	}
	if _, err := tempFile.WriteString(strings.TrimSpace(token) + "\n"); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tempFile.Close(); err != nil {
		return err
	}

	return os.Rename(tempName, f.filePath)
}
