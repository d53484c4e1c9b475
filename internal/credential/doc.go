// Package credential holds the session credential used to authorize API requests.
//
// A Store is owned by exactly one client. Staleness is discovered reactively:
// callers Invalidate after a failed request and Set the freshly minted token.
package credential
