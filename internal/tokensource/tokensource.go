package tokensource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrEmptyAPIToken is returned when Mint is called without an API token.
var ErrEmptyAPIToken = errors.New("api token is empty")

// MinterOption configures a Minter.
type MinterOption func(*minterConfig)

// minterConfig holds configuration for NewMinter.
type minterConfig struct {
	baseTransport http.RoundTripper
	timeout       time.Duration
}

// WithTransport sets a custom base transport for identity requests.
// If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) MinterOption {
	return func(c *minterConfig) {
		c.baseTransport = transport
	}
}

// WithTimeout bounds a single identity round trip. Defaults to 30 seconds.
func WithTimeout(timeout time.Duration) MinterOption {
	return func(c *minterConfig) {
		c.timeout = timeout
	}
}

// Minter exchanges API tokens for session tokens at the identity endpoint.
type Minter struct {
	endpoint   oauth2.Endpoint
	httpClient *http.Client
}

// NewMinter creates a Minter for the given identity endpoint.
func NewMinter(endpoint oauth2.Endpoint, opts ...MinterOption) *Minter {
	cfg := &minterConfig{
		baseTransport: http.DefaultTransport,
		timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	// HTTP client with JSON transport (wraps provided or default transport for connection pooling)
	httpClient := &http.Client{
		Timeout: cfg.timeout,
		Transport: &jsonTokenTransport{
			base: cfg.baseTransport,
		},
	}

	return &Minter{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// Mint performs the api_token grant and returns the issued session token.
// Fails if the endpoint is unreachable, answers with a non-2xx status,
// or omits access_token from the response.
func (m *Minter) Mint(ctx context.Context, apiToken string) (*oauth2.Token, error) {
	if apiToken == "" {
		return nil, ErrEmptyAPIToken
	}

	conf := &clientcredentials.Config{
		ClientID:     ClientID,
		ClientSecret: "", // public client
		TokenURL:     m.endpoint.TokenURL,
		AuthStyle:    m.endpoint.AuthStyle,
		// x/oauth2 allows grant_type to be overridden for non-compliant servers
		EndpointParams: url.Values{
			"grant_type": {GrantTypeAPIToken},
			"api_token":  {apiToken},
		},
	}

	// oauth2 injects custom HTTP clients via context (oauth2.HTTPClient key).
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	// Config.Token builds a fresh source per call, so this always hits the endpoint.
	token, err := conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchanging api token: %w", err)
	}
	return token, nil
}

// jsonTokenTransport re-encodes the form body oauth2 sends to the token
// endpoint as a JSON object, which is what the identity endpoint accepts.
// It is only installed on the identity client, so every request is a token request.
type jsonTokenTransport struct {
	base http.RoundTripper
}

var _ http.RoundTripper = (*jsonTokenTransport)(nil)

func (t *jsonTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	jsonBody, err := formToJSON(req.Body)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(jsonBody))
	out.ContentLength = int64(len(jsonBody))
	out.Header.Set("Content-Type", "application/json")
	return t.base.RoundTrip(out)
}

// formToJSON reads and closes body. Repeated keys keep their first value.
func formToJSON(body io.ReadCloser) ([]byte, error) {
	if body == nil {
		return nil, errors.New("token request has no body")
	}
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading token request: %w", err)
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding token request: %w", err)
	}

	params := make(map[string]string, len(form))
	for key := range form {
		params[key] = form.Get(key)
	}
	return json.Marshal(params)
}
