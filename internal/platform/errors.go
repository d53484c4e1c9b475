package platform

import "errors"

// Kind classifies client failures.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindConfiguration: the client cannot be built, e.g. the API token is missing.
	KindConfiguration
	// KindAuthentication: the identity endpoint failed or returned no access token.
	KindAuthentication
	// KindTransport: an API host could not be reached.
	KindTransport
	// KindResponseParse: the response body is not valid JSON.
	KindResponseParse
	// KindUnsupportedRegion: an explicit region was requested.
	KindUnsupportedRegion
	// KindInvalidRequest: the request could not be built, e.g. the body does not encode.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindTransport:
		return "transport"
	case KindResponseParse:
		return "response parse"
	case KindUnsupportedRegion:
		return "unsupported region"
	case KindInvalidRequest:
		return "invalid request"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "mint session token", "GET"
	URL  string // empty when no request was involved
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += " during " + e.Op
	}
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.As/Is support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, url string, err error) *Error {
	return &Error{Kind: kind, Op: op, URL: url, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsConfigurationError reports whether err is a configuration failure.
func IsConfigurationError(err error) bool { return KindOf(err) == KindConfiguration }

// IsAuthenticationError reports whether err is an identity endpoint failure.
func IsAuthenticationError(err error) bool { return KindOf(err) == KindAuthentication }

// IsTransportError reports whether err is a network failure.
func IsTransportError(err error) bool { return KindOf(err) == KindTransport }

// IsResponseParseError reports whether err is a malformed response body.
func IsResponseParseError(err error) bool { return KindOf(err) == KindResponseParse }

// IsUnsupportedRegionError reports whether err rejects an explicit region.
func IsUnsupportedRegionError(err error) bool { return KindOf(err) == KindUnsupportedRegion }

// ErrMissingAPIToken is the cause of the KindConfiguration error returned by New.
var ErrMissingAPIToken = errors.New("api token is required")

// ErrRegionNotImplemented is the cause of every KindUnsupportedRegion error.
var ErrRegionNotImplemented = errors.New("explicit region selection is not implemented")
