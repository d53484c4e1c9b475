package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/florianilch/platformsh-client/internal/credential"
	"github.com/florianilch/platformsh-client/internal/platform"
	"github.com/florianilch/platformsh-client/internal/tokenstore"
)

// App wires configuration, credential storage and the API client.
type App struct {
	cfg      *Config
	client   *platform.Client
	registry *prometheus.Registry
}

// New creates a new App instance. The API token is read eagerly so a missing
// token fails here, before any network activity.
func New(ctx context.Context, cfg *Config, opts ...platform.Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	apiToken, err := readAPIToken(ctx, cfg.Auth)
	if err != nil {
		return nil, &platform.Error{Kind: platform.KindConfiguration, Op: "read api token", Err: err}
	}

	session, err := newSessionStore(cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	registry := prometheus.NewRegistry()

	clientOpts := []platform.Option{
		platform.WithAccountsURL(cfg.API.AccountsURL),
		platform.WithRegionURL(platform.RegionUS, cfg.API.USURL),
		platform.WithRegionURL(platform.RegionEU, cfg.API.EUURL),
		platform.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		platform.WithSessionStore(session),
		platform.WithMetrics(registry),
	}
	client, err := platform.New(apiToken, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &App{
		cfg:      cfg,
		client:   client,
		registry: registry,
	}, nil
}

// Client returns the API client.
func (a *App) Client() *platform.Client {
	return a.client
}

// WriteMetrics writes the client counters to the configured textfile.
// It is a no-op when metrics.textfile is unset.
func (a *App) WriteMetrics() error {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, a.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	slog.Debug("wrote metrics", "path", path)
	return nil
}

// SaveAPIToken writes the API token to the configured auth storage.
// Env storage is rejected because the token would not outlive the process.
func SaveAPIToken(ctx context.Context, cfg *Config, apiToken string) error {
	apiToken = strings.TrimSpace(apiToken)
	if apiToken == "" {
		return platform.ErrMissingAPIToken
	}
	if cfg.Auth.Storage == TokenStorageTypeEnv {
		return errors.New("env storage is read-only, configure auth.storage as file or keyring")
	}

	store, err := cfg.Auth.NewTokenStore(tokenstore.KeyringServiceAPIToken)
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}
	if err := store.Write(ctx, apiToken); err != nil {
		return fmt.Errorf("failed to store api token: %w", err)
	}

	slog.InfoContext(ctx, "stored api token", "storage", cfg.Auth.Storage)
	return nil
}

func readAPIToken(ctx context.Context, cfg StorageConfig) (string, error) {
	store, err := cfg.NewTokenStore(tokenstore.KeyringServiceAPIToken)
	if err != nil {
		return "", fmt.Errorf("failed to create token store: %w", err)
	}

	token, err := store.Read(ctx)
	if err != nil {
		if errors.Is(err, tokenstore.ErrTokenNotFound) && cfg.Storage == TokenStorageTypeEnv {
			return "", fmt.Errorf("set the $%s environment variable: %w", cfg.EnvKey, err)
		}
		return "", err
	}
	return token, nil
}

// newSessionStore returns an in-memory cache, persisted when session storage is configured.
func newSessionStore(cfg StorageConfig) (credential.Store, error) {
	cache := credential.NewCache()

	store, err := cfg.NewTokenStore(tokenstore.KeyringServiceSessionToken)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return cache, nil
	}

	return NewPersistentSessionCache(cache, store)
}
