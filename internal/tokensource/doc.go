// Package tokensource exchanges Platform.sh API tokens for short-lived session tokens.
//
// The identity endpoint deviates from standard OAuth2 in two ways that require custom handling:
//   - The grant type is "api_token", which x/oauth2 has no first-class support for
//   - Token requests use JSON-encoded bodies (standard OAuth2 uses form-encoding)
//
// # Minting
//
//	m := tokensource.NewMinter(tokensource.Endpoint(tokensource.DefaultAccountsURL))
//	tok, err := m.Mint(ctx, apiToken)
//	// tok.AccessToken is the bearer credential for API requests
//
// Every Mint call performs a round trip; caching is the caller's job.
//
// # Custom Base Transport
//
// Configure a custom base transport for identity requests (e.g., for proxies or tests):
//
//	m := tokensource.NewMinter(endpoint, tokensource.WithTransport(customTransport))
package tokensource
