package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Response is a parsed API response. Non-2xx statuses are returned as-is.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Request performs a single authorized request with the given session token.
// A nil body sends no payload; an empty method means GET.
func (c *Client) Request(ctx context.Context, rawURL, sessionToken, method string, body any) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{AccessToken: sessionToken}
	return c.do(ctx, c.callLogger(), rawURL, token, method, payload)
}

// RequestWithRefresh performs an authorized request with the cached session token.
// If it fails for any reason, a new session token is minted and the request is
// retried once. A missing cached token is minted before the first attempt and
// counts as the call's only mint.
func (c *Client) RequestWithRefresh(ctx context.Context, rawURL, method string, body any) (*Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}
	return c.requestWithRefresh(ctx, c.callLogger(), rawURL, method, payload)
}

// PlatformRequest sends path to the regional hosts with RequestWithRefresh semantics
// per region: US first, then EU once if US failed. If both fail, the EU error is
// returned. Any region other than RegionAuto fails with KindUnsupportedRegion
// without sending a request.
func (c *Client) PlatformRequest(ctx context.Context, path, method string, body any, region Region) (*Response, error) {
	if region != RegionAuto {
		return nil, newError(KindUnsupportedRegion, "select region", "", fmt.Errorf("%w: %q", ErrRegionNotImplemented, region))
	}
	if err := checkPath(path); err != nil {
		return nil, err
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	logger := c.callLogger()

	var lastErr error
	for i, host := range c.regions {
		if i > 0 {
			c.metrics.RegionFailovers.Inc()
			logger.WarnContext(ctx, "region request failed, trying next region",
				"failed_region", c.regions[i-1].region, "region", host.region, "error", lastErr)
		}

		resp, err := c.requestWithRefresh(ctx, logger.With("region", host.region), host.baseURL+path, method, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

// AccountsRequest sends path to the accounts host with RequestWithRefresh semantics.
// The accounts host is singular, so there is no region failover.
func (c *Client) AccountsRequest(ctx context.Context, path, method string, body any) (*Response, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	return c.RequestWithRefresh(ctx, c.accountsURL+path, method, body)
}

// checkPath requires an absolute path so it can be appended to a base URL.
func checkPath(path string) error {
	if !strings.HasPrefix(path, "/") {
		return newError(KindInvalidRequest, "build request", "", fmt.Errorf("path %q must start with /", path))
	}
	return nil
}

func (c *Client) requestWithRefresh(ctx context.Context, logger *slog.Logger, rawURL, method string, payload []byte) (*Response, error) {
	token, ok := c.session.Get()
	if !ok {
		var err error
		if token, err = c.mint(ctx, logger); err != nil {
			return nil, err
		}
		return c.do(ctx, logger, rawURL, token, method, payload)
	}

	resp, err := c.do(ctx, logger, rawURL, token, method, payload)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	logger.WarnContext(ctx, "request failed, refreshing session token", "url", rawURL, "error", err)
	c.session.Invalidate()

	token, mintErr := c.mint(ctx, logger)
	if mintErr != nil {
		return nil, mintErr
	}
	return c.do(ctx, logger, rawURL, token, method, payload)
}

// do performs one round trip and parses the body as JSON regardless of status.
func (c *Client) do(ctx context.Context, logger *slog.Logger, rawURL string, token *oauth2.Token, method string, payload []byte) (*Response, error) {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, newError(KindInvalidRequest, method, rawURL, err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	host := req.URL.Host

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.Requests.WithLabelValues(host, outcomeFailure).Inc()
		return nil, newError(KindTransport, method, redactURL(req.URL), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Requests.WithLabelValues(host, outcomeFailure).Inc()
		return nil, newError(KindTransport, method, redactURL(req.URL), fmt.Errorf("reading response body: %w", err))
	}

	logger.DebugContext(ctx, "api response", "method", method, "url", redactURL(req.URL), "status", resp.StatusCode, "bytes", len(data))

	if !json.Valid(data) {
		c.metrics.Requests.WithLabelValues(host, outcomeFailure).Inc()
		return nil, newError(KindResponseParse, method, redactURL(req.URL),
			fmt.Errorf("status %d: response body is not valid JSON", resp.StatusCode))
	}

	c.metrics.Requests.WithLabelValues(host, outcomeSuccess).Inc()
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       json.RawMessage(data),
	}, nil
}

// callLogger tags every log line of one top-level call with a shared id.
func (c *Client) callLogger() *slog.Logger {
	return c.logger.With("call_id", uuid.NewString())
}

// encodeBody marshals body once per top-level call so retries resend identical bytes.
func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, newError(KindInvalidRequest, "encode request body", "", err)
	}
	return data, nil
}

// redactURL drops user info and query so URLs are safe to log.
func redactURL(u *url.URL) string {
	clean := *u
	clean.User = nil
	clean.RawQuery = ""
	return clean.String()
}
