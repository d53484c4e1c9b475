package tokensource

import (
	"strings"

	"golang.org/x/oauth2"
)

const (
	// ClientID is the public OAuth2 client identifier used by the Platform.sh CLI.
	// Public client, so the secret is empty and the Basic header encodes "platform-cli:".
	ClientID = "platform-cli"

	// GrantTypeAPIToken is the non-standard grant exchanging a long-lived API token.
	GrantTypeAPIToken = "api_token"

	// DefaultAccountsURL hosts the identity endpoint and the accounts API.
	DefaultAccountsURL = "https://accounts.platform.sh"

	tokenPath = "/oauth2/token"
)

// Endpoint returns the OAuth2 endpoint served by the given accounts host.
func Endpoint(accountsURL string) oauth2.Endpoint {
	return oauth2.Endpoint{
		TokenURL:  strings.TrimSuffix(accountsURL, "/") + tokenPath,
		AuthStyle: oauth2.AuthStyleInHeader,
	}
}
