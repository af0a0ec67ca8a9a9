package domain

import "errors"

// Recoverable geocoding failures. Callers degrade to local-only results when
// errors.Is matches either sentinel.
var (
	// ErrNetworkFailure covers transport errors, timeouts and non-success
	// HTTP statuses from the geocoding provider.
	ErrNetworkFailure = errors.New("geocoding network failure")

	// ErrMalformedPayload covers provider responses that do not decode into
	// the expected shape.
	ErrMalformedPayload = errors.New("malformed geocoding payload")
)

// IsRecoverable reports whether err is a geocoding failure the search path
// absorbs by falling back to local results.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrNetworkFailure) || errors.Is(err, ErrMalformedPayload)
}
