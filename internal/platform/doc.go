// Package platform is an authenticated client for the Platform.sh REST API.
//
// A Client exchanges its API token for a session token on first use and
// attaches that token to every request. Requests are dispatched through
// three layers, innermost first:
//
//	Request            single authorized round trip, body parsed as JSON
//	RequestWithRefresh on any failure, mint a new session token and retry once
//	PlatformRequest    try the US region; on any failure, fall over to EU once
//
// Region failover is outermost and the refresh retry is scoped to each region,
// so one call can issue up to four API requests.
//
// Non-2xx responses are returned, not raised: callers inspect Response.StatusCode.
package platform
