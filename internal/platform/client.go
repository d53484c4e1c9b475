package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/florianilch/platformsh-client/internal/credential"
	"github.com/florianilch/platformsh-client/internal/tokensource"
)

// Region identifies a regional API host.
type Region string

const (
	// RegionAuto tries every region in failover order.
	RegionAuto Region = ""
	RegionUS   Region = "us"
	RegionEU   Region = "eu"
)

// Default API hosts.
const (
	DefaultAccountsURL = tokensource.DefaultAccountsURL
	DefaultUSURL       = "https://us.platform.sh"
	DefaultEUURL       = "https://eu.platform.sh"
	DefaultTimeout     = 60 * time.Second
)

// Minter exchanges the API token for a fresh session token.
type Minter interface {
	Mint(ctx context.Context, apiToken string) (*oauth2.Token, error)
}

// Compile-time check to ensure tokensource.Minter implements Minter
var _ Minter = (*tokensource.Minter)(nil)

// Option configures a Client.
type Option func(*config)

type config struct {
	accountsURL string
	regionURLs  map[Region]string
	httpClient  *http.Client
	session     credential.Store
	minter      Minter
	registerer  prometheus.Registerer
	logger      *slog.Logger
}

// WithAccountsURL overrides the accounts host, which also serves the identity endpoint.
func WithAccountsURL(accountsURL string) Option {
	return func(c *config) {
		c.accountsURL = accountsURL
	}
}

// WithRegionURL overrides the base URL of a regional host.
func WithRegionURL(region Region, baseURL string) Option {
	return func(c *config) {
		c.regionURLs[region] = baseURL
	}
}

// WithHTTPClient sets the client used for API requests. Its transport is
// reused for identity requests unless WithMinter is given.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithSessionStore sets where the session token is cached.
// Defaults to an in-memory credential.Cache owned by the Client.
func WithSessionStore(store credential.Store) Option {
	return func(c *config) {
		c.session = store
	}
}

// WithMinter replaces the identity endpoint client.
func WithMinter(m Minter) Option {
	return func(c *config) {
		c.minter = m
	}
}

// WithMetrics registers the client collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

type regionHost struct {
	region  Region
	baseURL string
}

// Client issues authorized requests against the accounts and regional hosts.
// Safe for concurrent use; concurrent session token mints are coalesced.
type Client struct {
	apiToken    string
	accountsURL string
	// failover order
	regions []regionHost

	httpClient  *http.Client
	session     credential.Store
	minter      Minter
	mints       singleflight.Group
	mintTimeout time.Duration // bounds a shared mint, which outlives canceled callers

	metrics *Metrics
	logger  *slog.Logger
}

// New creates a Client for the given API token. No I/O is performed; the first
// session token is minted on the first request.
func New(apiToken string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiToken) == "" {
		return nil, newError(KindConfiguration, "create client", "", ErrMissingAPIToken)
	}

	cfg := &config{
		accountsURL: DefaultAccountsURL,
		regionURLs: map[Region]string{
			RegionUS: DefaultUSURL,
			RegionEU: DefaultEUURL,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	accountsURL, err := normalizeBaseURL(cfg.accountsURL)
	if err != nil {
		return nil, newError(KindConfiguration, "create client", "", fmt.Errorf("accounts url: %w", err))
	}

	regions := make([]regionHost, 0, 2)
	for _, region := range []Region{RegionUS, RegionEU} {
		baseURL, err := normalizeBaseURL(cfg.regionURLs[region])
		if err != nil {
			return nil, newError(KindConfiguration, "create client", "", fmt.Errorf("%s url: %w", region, err))
		}
		regions = append(regions, regionHost{region: region, baseURL: baseURL})
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	minter := cfg.minter
	if minter == nil {
		minterOpts := []tokensource.MinterOption{}
		if httpClient.Transport != nil {
			minterOpts = append(minterOpts, tokensource.WithTransport(httpClient.Transport))
		}
		minter = tokensource.NewMinter(tokensource.Endpoint(accountsURL), minterOpts...)
	}

	session := cfg.session
	if session == nil {
		session = credential.NewCache()
	}

	mintTimeout := httpClient.Timeout
	if mintTimeout <= 0 {
		mintTimeout = DefaultTimeout
	}

	metrics, err := NewMetrics(cfg.registerer)
	if err != nil {
		return nil, newError(KindConfiguration, "create client", "", fmt.Errorf("registering metrics: %w", err))
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		apiToken:    apiToken,
		accountsURL: accountsURL,
		regions:     regions,
		httpClient:  httpClient,
		session:     session,
		minter:      minter,
		mintTimeout: mintTimeout,
		metrics:     metrics,
		logger:      logger,
	}, nil
}

// MintSessionToken exchanges the API token for a new session token and caches it.
func (c *Client) MintSessionToken(ctx context.Context) (*oauth2.Token, error) {
	return c.mint(ctx, c.logger)
}

// mint contacts the identity endpoint. Concurrent callers share one round trip,
// which runs detached from any single caller's cancellation and is bounded by
// mintTimeout. Each caller stops waiting when its own context ends.
func (c *Client) mint(ctx context.Context, logger *slog.Logger) (*oauth2.Token, error) {
	results := c.mints.DoChan("session", func() (any, error) {
		mintCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.mintTimeout)
		defer cancel()

		token, err := c.minter.Mint(mintCtx, c.apiToken)
		c.metrics.SessionMints.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			return nil, newError(KindAuthentication, "mint session token", "", err)
		}
		if token == nil || token.AccessToken == "" {
			return nil, newError(KindAuthentication, "mint session token", "", errors.New("empty access token"))
		}
		c.session.Set(token)
		return token, nil
	})

	select {
	case <-ctx.Done():
		return nil, newError(KindAuthentication, "mint session token", "", ctx.Err())
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		token := res.Val.(*oauth2.Token)
		logger.DebugContext(ctx, "minted session token", "shared", res.Shared, "expiry", token.Expiry)
		return token, nil
	}
}

// normalizeBaseURL requires an absolute http(s) URL and strips any trailing slash.
func normalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return strings.TrimSuffix(raw, "/"), nil
}
