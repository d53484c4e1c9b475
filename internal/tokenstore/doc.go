// Package tokenstore provides storage backends for Platform.sh credentials.
//
// The same backends hold two kinds of secrets: the long-lived API token
// and, optionally, the last session token so it survives between invocations.
//   - Env: Process environment; writes are visible to this process and its children only
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//
// Backends report a missing or empty secret with ErrTokenNotFound.
package tokenstore
